package system

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/viewport"
)

func testLog() zerolog.Logger {
	return zerolog.Nop()
}

func testState(screenW, screenH float64) *viewport.State {
	s := viewport.NewState(viewport.DefaultZoomConfig())
	s.SetScreenSize(screenW, screenH)
	return s
}

func spawnCardAt(t *testing.T, b *board.Board, x, y float64, priority float64) {
	t.Helper()
	_, err := b.Spawn(board.Seed{
		Kind:     component.CardNote,
		Title:    "card",
		Bounds:   geom.NewRect(x, y, x+100, y+80),
		Priority: priority,
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
}

func TestCullingSystemSplitsVisibleFromDistant(t *testing.T) {
	b := board.New(testLog())
	spawnCardAt(t, b, 100, 100, 0)
	spawnCardAt(t, b, 50000, 50000, 0)

	state := testState(800, 600)
	sys := NewCullingSystem(b, state, viewport.NewCuller(viewport.DefaultCullingConfig()), nil, nil)
	sys.Update(b.World())

	res := sys.Result()
	if res.TotalEntities != 2 {
		t.Fatalf("expected 2 total entities, got %d", res.TotalEntities)
	}
	if res.VisibleEntities != 1 {
		t.Fatalf("expected 1 visible entity, got %d", res.VisibleEntities)
	}
}

func TestCullingSystemTruncatesByPriority(t *testing.T) {
	b := board.New(testLog())
	for i := 0; i < 6; i++ {
		spawnCardAt(t, b, float64(i)*120, 0, float64(i))
	}

	cfg := viewport.DefaultCullingConfig()
	cfg.MaxEntities = 3
	perf := viewport.NewPerfMonitor(4, time.Millisecond)

	sys := NewCullingSystem(b, testState(800, 600), viewport.NewCuller(cfg), perf, nil)
	sys.Update(b.World())

	res := sys.Result()
	if res.Truncated != 3 {
		t.Fatalf("expected 3 truncated, got %d", res.Truncated)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(res.Entries))
	}
	for _, e := range res.Entries {
		if e.Priority < 3 {
			t.Fatalf("low priority entity %v survived truncation", e.Priority)
		}
	}

	snap := perf.Snapshot()
	found := false
	for _, warn := range snap.Warnings {
		if strings.Contains(warn, "culling dropped") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected truncation warning, got %v", snap.Warnings)
	}
}

func TestCullingSystemTierTracksZoom(t *testing.T) {
	cases := []struct {
		name string
		zoom float64
		want viewport.Tier
	}{
		{"far_out_is_low", 0.3, viewport.TierLow},
		{"mid_is_medium", 1.0, viewport.TierMedium},
		{"close_is_high", 2.0, viewport.TierHigh},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := board.New(testLog())
			spawnCardAt(t, b, 0, 0, 0)

			state := testState(800, 600)
			state.SetZoom(c.zoom, geom.Vec{})

			sys := NewCullingSystem(b, state, viewport.NewCuller(viewport.DefaultCullingConfig()), nil, nil)
			sys.Update(b.World())

			if got := sys.Tier(); got != c.want {
				t.Fatalf("expected tier %v at zoom %v, got %v", c.want, c.zoom, got)
			}
		})
	}
}

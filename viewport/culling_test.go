package viewport

import (
	"math"
	"math/rand"
	"testing"

	"github.com/milk9111/pinboard/geom"
)

func box(x, y, w, h float64) geom.Rect {
	return geom.Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

func TestCullWindowAndBuffer(t *testing.T) {
	cfg := DefaultCullingConfig()
	cfg.BufferZone = 500
	c := NewCuller(cfg)
	vp := Viewport{Zoom: 1}

	cases := []struct {
		name    string
		bounds  geom.Rect
		visible bool
	}{
		{"on_screen", box(100, 100, 200, 150), true},
		{"inside_buffer_left", box(-450, 100, 100, 100), true},
		{"touching_buffer_edge", box(-600, 0, 100, 100), true},
		{"outside_buffer", box(-700, 0, 50, 50), false},
		{"inside_buffer_bottom", box(0, 1050, 100, 100), true},
		{"far_away", box(9000, 9000, 10, 10), false},
	}

	for _, cse := range cases {
		t.Run(cse.name, func(t *testing.T) {
			res := c.Cull([]Entity{{ID: 1, Bounds: cse.bounds}}, vp, 800, 600)
			if got := len(res.Entries) == 1; got != cse.visible {
				t.Fatalf("expected visible=%v, got %v (window %+v)", cse.visible, got, res.Bounds)
			}
		})
	}
}

func TestCullExcludesInvalidBounds(t *testing.T) {
	c := NewCuller(DefaultCullingConfig())
	vp := Viewport{Zoom: 1}
	nan := math.NaN()

	entities := []Entity{
		{ID: 1, Bounds: box(0, 0, 10, 10)},
		{ID: 2, Bounds: geom.Rect{MinX: nan, MinY: 0, MaxX: 10, MaxY: 10}},
		{ID: 3, Bounds: geom.Rect{MinX: 0, MinY: 0, MaxX: 0, MaxY: 0}},
		{ID: 4, Bounds: geom.Rect{MinX: 10, MinY: 10, MaxX: 5, MaxY: 5}},
		{ID: 5, Bounds: geom.Rect{MinX: 0, MinY: 0, MaxX: math.Inf(1), MaxY: 10}},
	}

	res := c.Cull(entities, vp, 800, 600)
	if len(res.Entries) != 1 || res.Entries[0].ID != 1 {
		t.Fatalf("expected only entity 1 to survive, got %+v", res.Entries)
	}
	if res.TotalEntities != 5 || res.VisibleEntities != 1 {
		t.Fatalf("expected totals 5/1, got %d/%d", res.TotalEntities, res.VisibleEntities)
	}
}

func TestCullTruncatesByPriority(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	entities := make([]Entity, 0, 500)
	for i := 0; i < 500; i++ {
		entities = append(entities, Entity{
			ID:       uint64(i + 1),
			Bounds:   box(rng.Float64()*700, rng.Float64()*500, 40, 30),
			Priority: rng.Float64() * 10,
		})
	}

	cfg := DefaultCullingConfig()
	cfg.MaxEntities = 300
	c := NewCuller(cfg)
	vp := Viewport{Zoom: 1}

	res := c.Cull(entities, vp, 800, 600)
	if res.VisibleEntities != 300 {
		t.Fatalf("expected 300 entries, got %d", res.VisibleEntities)
	}
	if res.Truncated != 200 {
		t.Fatalf("expected 200 truncated, got %d", res.Truncated)
	}
	for i := 1; i < len(res.Entries); i++ {
		if res.Entries[i].Priority > res.Entries[i-1].Priority {
			t.Fatalf("entries not in descending priority at %d: %v > %v",
				i, res.Entries[i].Priority, res.Entries[i-1].Priority)
		}
	}

	// Panning far away leaves nothing in the window.
	far := Viewport{Position: geom.Vec{X: -50000}, Zoom: 1}
	res = c.Cull(entities, far, 800, 600)
	if res.VisibleEntities != 0 || res.Truncated != 0 {
		t.Fatalf("expected empty result after pan, got %d visible %d truncated",
			res.VisibleEntities, res.Truncated)
	}
}

func TestCullPriorityTieProximity(t *testing.T) {
	cfg := DefaultCullingConfig()
	cfg.MaxEntities = 1
	cfg.BufferZone = 0
	c := NewCuller(cfg)
	vp := Viewport{Zoom: 1}

	near := Entity{ID: 1, Bounds: box(390, 290, 20, 20), Priority: 5}
	farther := Entity{ID: 2, Bounds: box(700, 500, 20, 20), Priority: 5}

	res := c.Cull([]Entity{farther, near}, vp, 800, 600)
	if len(res.Entries) != 1 || res.Entries[0].ID != 1 {
		t.Fatalf("expected center-proximate entity to win the tie, got %+v", res.Entries)
	}
	if res.Truncated != 1 {
		t.Fatalf("expected 1 truncated, got %d", res.Truncated)
	}
}

func TestCullBufferMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	entities := make([]Entity, 0, 200)
	for i := 0; i < 200; i++ {
		entities = append(entities, Entity{
			ID:     uint64(i + 1),
			Bounds: box(rng.Float64()*4000-2000, rng.Float64()*4000-2000, 50, 50),
		})
	}
	vp := Viewport{Zoom: 1}

	prev := -1
	for _, buffer := range []float64{0, 100, 250, 400, 500, 1000} {
		cfg := DefaultCullingConfig()
		cfg.BufferZone = buffer
		cfg.MaxEntities = 0
		res := NewCuller(cfg).Cull(entities, vp, 800, 600)
		if prev >= 0 && res.VisibleEntities < prev {
			t.Fatalf("buffer %v yielded %d entries, fewer than %d at smaller buffer",
				buffer, res.VisibleEntities, prev)
		}
		prev = res.VisibleEntities
	}
}

func TestCullReportsTierAndThreshold(t *testing.T) {
	cfg := DefaultCullingConfig()
	cfg.PriorityThreshold = 3
	c := NewCuller(cfg)

	entities := []Entity{
		{ID: 1, Bounds: box(0, 0, 10, 10), Priority: 1},
		{ID: 2, Bounds: box(20, 0, 10, 10), Priority: 5},
	}

	res := c.Cull(entities, Viewport{Zoom: 0.3}, 800, 600)
	if res.LevelOfDetail != TierLow {
		t.Fatalf("expected low tier at zoom 0.3, got %v", res.LevelOfDetail)
	}
	if res.BelowThreshold != 1 {
		t.Fatalf("expected 1 entry below threshold, got %d", res.BelowThreshold)
	}
	if res.VisibleEntities != 2 {
		t.Fatalf("threshold must not exclude entries, got %d", res.VisibleEntities)
	}

	res = c.Cull(entities, Viewport{Zoom: 2}, 800, 600)
	if res.LevelOfDetail != TierHigh {
		t.Fatalf("expected high tier at zoom 2, got %v", res.LevelOfDetail)
	}
}

func TestCullEmptyInput(t *testing.T) {
	c := NewCuller(DefaultCullingConfig())
	res := c.Cull(nil, Viewport{Zoom: 1}, 800, 600)
	if res.VisibleEntities != 0 || res.TotalEntities != 0 || res.Truncated != 0 {
		t.Fatalf("expected zeroed counts, got %+v", res)
	}
	if res.LevelOfDetail != TierMedium {
		t.Fatalf("expected tier still reported on empty input, got %v", res.LevelOfDetail)
	}
}

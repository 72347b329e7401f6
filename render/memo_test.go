package render

import (
	"testing"

	"github.com/google/uuid"

	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/viewport"
)

func noteSnapshot() CardSnapshot {
	return CardSnapshot{
		ID:         7,
		Kind:       component.CardNote,
		Title:      "groceries",
		Body:       "eggs, milk",
		Color:      0xfff4b5ff,
		ContentRev: 3,
		Bounds:     geom.Rect{MinX: 100, MinY: 100, MaxX: 300, MaxY: 250},
		Z:          4,
		Detail:     viewport.TierHigh,
	}
}

func TestRenderReturnsIdenticalListForEqualSnapshots(t *testing.T) {
	m := NewMemoizer()
	s := noteSnapshot()

	first := m.Render(s)
	second := m.Render(s)
	if first != second {
		t.Fatalf("equal snapshots must return the identical list pointer")
	}
	if hits, misses := m.Stats(); hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit 1 miss, got %d/%d", hits, misses)
	}
}

func TestRenderRebuildsOnRelevantChange(t *testing.T) {
	base := noteSnapshot()
	cases := []struct {
		name   string
		mutate func(*CardSnapshot)
	}{
		{"content_revision", func(s *CardSnapshot) { s.ContentRev++ }},
		{"title", func(s *CardSnapshot) { s.Title = "chores" }},
		{"bounds", func(s *CardSnapshot) { s.Bounds = s.Bounds.Translate(geom.Vec{X: 1}) }},
		{"selection", func(s *CardSnapshot) { s.Selected = true }},
		{"hover", func(s *CardSnapshot) { s.Hovering = true }},
		{"detail_tier", func(s *CardSnapshot) { s.Detail = viewport.TierLow }},
		{"z_order", func(s *CardSnapshot) { s.Z++ }},
		{"script_output", func(s *CardSnapshot) { s.ScriptOutput = "42" }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := NewMemoizer()
			first := m.Render(base)
			changed := base
			c.mutate(&changed)
			second := m.Render(changed)
			if first == second {
				t.Fatalf("changed snapshot must rebuild the list")
			}
			// And the new value is now the cached one.
			if third := m.Render(changed); third != second {
				t.Fatalf("rebuilt list should be cached")
			}
		})
	}
}

func TestDragEndIdentityParticipatesInCache(t *testing.T) {
	m := NewMemoizer()
	s := noteSnapshot()

	var persisted []uuid.UUID
	sink1 := func(uuid.UUID, geom.Rect) {}
	sink2 := func(id uuid.UUID, _ geom.Rect) { persisted = append(persisted, id) }
	if len(persisted) != 0 {
		t.Fatalf("nothing persisted yet")
	}

	m.BindDragEnd(sink1)
	first := m.Render(s)

	// Rebinding the same function keeps the cache.
	m.BindDragEnd(sink1)
	if got := m.Render(s); got != first {
		t.Fatalf("rebinding identical callback must not invalidate")
	}

	// A different persistence sink invalidates everything.
	m.BindDragEnd(sink2)
	if got := m.Render(s); got == first {
		t.Fatalf("new drag-end identity must rebuild cached lists")
	}
}

func TestHoverHookIsCosmetic(t *testing.T) {
	m := NewMemoizer()
	s := noteSnapshot()
	first := m.Render(s)

	fired := 0
	m.BindHover(func(uint64) { fired++ })
	if got := m.Render(s); got != first {
		t.Fatalf("hover hook must not affect cache identity")
	}
	m.BindHover(func(uint64) { fired += 2 })
	if got := m.Render(s); got != first {
		t.Fatalf("swapping hover hook must not affect cache identity")
	}
	m.Hover(s.ID)
	if fired != 2 {
		t.Fatalf("expected latest hover hook to fire, got %d", fired)
	}
}

func TestEvictAndReset(t *testing.T) {
	m := NewMemoizer()
	s := noteSnapshot()
	first := m.Render(s)

	m.Evict(s.ID)
	if got := m.Render(s); got == first {
		t.Fatalf("evicted entry should rebuild")
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", m.Len())
	}
	m.Reset()
	if m.Len() != 0 {
		t.Fatalf("expected empty cache after reset, got %d", m.Len())
	}
}

func TestBuildDetailTiers(t *testing.T) {
	s := noteSnapshot()

	s.Detail = viewport.TierLow
	low := build(s)
	s.Detail = viewport.TierMedium
	medium := build(s)
	s.Detail = viewport.TierHigh
	high := build(s)

	if len(low.Ops) >= len(medium.Ops) || len(medium.Ops) >= len(high.Ops) {
		t.Fatalf("expected op counts to grow with detail, got %d/%d/%d",
			len(low.Ops), len(medium.Ops), len(high.Ops))
	}
	for _, op := range low.Ops {
		if op.Kind == OpText {
			t.Fatalf("low detail must not emit text ops")
		}
	}
	foundTitle := false
	for _, op := range medium.Ops {
		if op.Kind == OpText && op.Text == s.Title {
			foundTitle = true
		}
		if op.Kind == OpText && op.Text == s.Body {
			t.Fatalf("medium detail must not emit the body")
		}
	}
	if !foundTitle {
		t.Fatalf("medium detail should emit the title")
	}
}

func TestBuildCodeCardShowsResult(t *testing.T) {
	s := noteSnapshot()
	s.Kind = component.CardCode
	s.Body = `x := 6 * 7`
	s.ScriptOutput = "42\n"

	list := build(s)
	found := false
	for _, op := range list.Ops {
		if op.Kind == OpText && op.Text == "=> 42" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected script output op, ops: %+v", list.Ops)
	}

	s.ScriptErr = "compile error"
	list = build(s)
	foundErr := false
	for _, op := range list.Ops {
		if op.Kind == OpText && op.Text == "! compile error" {
			foundErr = true
		}
		if op.Kind == OpText && op.Text == "=> 42" {
			t.Fatalf("error must suppress stale output")
		}
	}
	if !foundErr {
		t.Fatalf("expected script error op, ops: %+v", list.Ops)
	}
}

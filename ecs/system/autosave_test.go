package system

import (
	"context"
	"testing"
	"time"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
)

func TestAutosaveFlushesDirtyCards(t *testing.T) {
	db := testDB(t)
	b := board.New(testLog())
	e, err := b.Spawn(board.Seed{
		Kind:   component.CardNote,
		Title:  "draft",
		Body:   "remember this",
		Bounds: geom.NewRect(10, 20, 210, 140),
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	b.MarkDirty(e)

	sys := NewAutosaveSystem(b, db, nil, time.Hour, testLog(), nil)
	sched := ecs.NewScheduler(sys)

	sys.FlushSoon()
	sched.Update(b.World())

	n, err := db.CountCards(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 saved card, got %d", n)
	}
	if ecs.Has(b.World(), e, component.DirtyTagComponent.Kind()) {
		t.Fatalf("dirty tag should clear after a successful flush")
	}

	id, _ := b.CardID(e)
	saved, err := db.GetCard(context.Background(), id)
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if saved.Body != "remember this" {
		t.Fatalf("expected body to round-trip, got %q", saved.Body)
	}
}

func TestAutosaveDeletesRemovedCards(t *testing.T) {
	db := testDB(t)
	b := board.New(testLog())
	e, err := b.Spawn(board.Seed{
		Kind:   component.CardNote,
		Title:  "doomed",
		Bounds: geom.NewRect(0, 0, 100, 80),
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	b.MarkDirty(e)

	sys := NewAutosaveSystem(b, db, nil, time.Hour, testLog(), nil)
	sched := ecs.NewScheduler(sys)

	sys.FlushSoon()
	sched.Update(b.World())

	if err := b.Remove(e); err != nil {
		t.Fatalf("remove: %v", err)
	}
	sys.FlushSoon()
	sched.Update(b.World())

	n, err := db.CountCards(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 cards after delete, got %d", n)
	}
}

func TestAutosaveSavesConnectors(t *testing.T) {
	db := testDB(t)
	b := board.New(testLog())

	spawn := func(x float64) ecs.Entity {
		e, err := b.Spawn(board.Seed{
			Kind:   component.CardNote,
			Bounds: geom.NewRect(x, 0, x+100, 80),
		})
		if err != nil {
			t.Fatalf("spawn: %v", err)
		}
		b.MarkDirty(e)
		return e
	}
	from := spawn(0)
	to := spawn(200)

	fromID, _ := b.CardID(from)
	toID, _ := b.CardID(to)
	edge, err := b.Connect(fromID, toID)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	b.MarkDirty(edge)

	sys := NewAutosaveSystem(b, db, nil, time.Hour, testLog(), nil)
	sched := ecs.NewScheduler(sys)
	sys.FlushSoon()
	sched.Update(b.World())

	edges, err := db.Connectors(context.Background())
	if err != nil {
		t.Fatalf("connectors: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected 1 saved connector, got %d", len(edges))
	}
	if edges[0].From != fromID || edges[0].To != toID {
		t.Fatalf("connector endpoints did not round-trip")
	}
}

func TestAutosaveSavesViewportWhenMoved(t *testing.T) {
	db := testDB(t)
	b := board.New(testLog())
	state := testState(800, 600)
	state.Pan(geom.Vec{X: -123, Y: 45})

	sys := NewAutosaveSystem(b, db, state, time.Hour, testLog(), nil)
	sched := ecs.NewScheduler(sys)
	sys.FlushSoon()
	sched.Update(b.World())

	vp, ok, err := db.LoadViewport(context.Background())
	if err != nil {
		t.Fatalf("load viewport: %v", err)
	}
	if !ok {
		t.Fatalf("expected a saved viewport")
	}
	if vp != state.Viewport() {
		t.Fatalf("expected %+v, got %+v", state.Viewport(), vp)
	}
}

func TestAutosaveHonorsInterval(t *testing.T) {
	db := testDB(t)
	b := board.New(testLog())
	e, err := b.Spawn(board.Seed{
		Kind:   component.CardNote,
		Bounds: geom.NewRect(0, 0, 100, 80),
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	b.MarkDirty(e)

	sys := NewAutosaveSystem(b, db, nil, time.Minute, testLog(), nil)
	sched := ecs.NewScheduler(sys)

	start := time.Now()
	sys.now = func() time.Time { return start }
	sched.Update(b.World())

	n, _ := db.CountCards(context.Background())
	if n != 0 {
		t.Fatalf("flush before the interval elapsed")
	}

	sys.now = func() time.Time { return start.Add(2 * time.Minute) }
	sched.Update(b.World())

	n, _ = db.CountCards(context.Background())
	if n != 1 {
		t.Fatalf("expected flush after interval, got %d cards", n)
	}
}

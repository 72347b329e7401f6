package system

import (
	"testing"
	"time"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/script"
)

func spawnCodeCard(t *testing.T, b *board.Board, src string) ecs.Entity {
	t.Helper()
	e, err := b.Spawn(board.Seed{
		Kind:   component.CardCode,
		Title:  "calc",
		Body:   src,
		Bounds: geom.NewRect(0, 0, 200, 140),
	})
	if err != nil {
		t.Fatalf("spawn code card: %v", err)
	}
	return e
}

// pumpScripts runs the system until the card's result lands or the
// deadline passes.
func pumpScripts(t *testing.T, sys *ScriptSystem, w *ecs.World, e ecs.Entity) *component.ScriptResult {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		sys.Update(w)
		card, _ := ecs.Get(w, e, component.CardComponent.Kind())
		res, ok := ecs.Get(w, e, component.ScriptResultComponent.Kind())
		if ok && !res.Running && res.RunRevision == card.Revision {
			return res
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("script result never landed")
	return nil
}

func TestScriptSystemEvaluatesCodeCards(t *testing.T) {
	b := board.New(testLog())
	e := spawnCodeCard(t, b, "out := 6 * 7")

	sys := NewScriptSystem(b, script.NewEvaluator(0), testLog(), nil)
	res := pumpScripts(t, sys, b.World(), e)

	if res.Output != "42" {
		t.Fatalf("expected output 42, got %q", res.Output)
	}
	if res.Err != "" {
		t.Fatalf("expected no error, got %q", res.Err)
	}
}

func TestScriptSystemReportsErrors(t *testing.T) {
	b := board.New(testLog())
	e := spawnCodeCard(t, b, "out := 1 / 0")

	sys := NewScriptSystem(b, script.NewEvaluator(0), testLog(), nil)
	res := pumpScripts(t, sys, b.World(), e)

	if res.Err == "" {
		t.Fatalf("expected an error for division by zero")
	}
}

func TestScriptSystemReevaluatesOnEdit(t *testing.T) {
	b := board.New(testLog())
	e := spawnCodeCard(t, b, "out := 1 + 1")

	sys := NewScriptSystem(b, script.NewEvaluator(0), testLog(), nil)
	res := pumpScripts(t, sys, b.World(), e)
	if res.Output != "2" {
		t.Fatalf("expected output 2, got %q", res.Output)
	}

	if err := b.SetContent(e, "calc", "out := 10 * 10"); err != nil {
		t.Fatalf("set content: %v", err)
	}
	res = pumpScripts(t, sys, b.World(), e)
	if res.Output != "100" {
		t.Fatalf("expected output 100 after edit, got %q", res.Output)
	}
}

func TestScriptSystemIgnoresOtherKinds(t *testing.T) {
	b := board.New(testLog())
	e, err := b.Spawn(board.Seed{
		Kind:   component.CardNote,
		Title:  "note",
		Body:   "out := 1",
		Bounds: geom.NewRect(0, 0, 100, 80),
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	sys := NewScriptSystem(b, script.NewEvaluator(0), testLog(), nil)
	for i := 0; i < 5; i++ {
		sys.Update(b.World())
	}

	if _, ok := ecs.Get(b.World(), e, component.ScriptResultComponent.Kind()); ok {
		t.Fatalf("note card must not get a script result")
	}
}

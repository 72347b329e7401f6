package system

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/diag"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/script"
)

// scriptDone is one finished evaluation coming back from a worker
// goroutine.
type scriptDone struct {
	entity ecs.Entity
	id     uuid.UUID
	rev    uint64
	output string
	err    error
}

// ScriptSystem keeps code cards evaluated. Whenever a code card's
// revision moves past the revision its cached result ran at, the source
// goes to a goroutine and the outcome merges back on a later tick. A
// result for a revision the card has already left is dropped; the rerun
// for the newer revision is already in flight or about to be.
type ScriptSystem struct {
	board   *board.Board
	eval    *script.Evaluator
	log     zerolog.Logger
	metrics *diag.Metrics

	results  chan scriptDone
	inflight map[uuid.UUID]uint64
}

func NewScriptSystem(b *board.Board, eval *script.Evaluator, log zerolog.Logger, metrics *diag.Metrics) *ScriptSystem {
	return &ScriptSystem{
		board:    b,
		eval:     eval,
		log:      log,
		metrics:  metrics,
		results:  make(chan scriptDone, 16),
		inflight: make(map[uuid.UUID]uint64),
	}
}

func (s *ScriptSystem) Update(w *ecs.World) {
	if s == nil || s.eval == nil {
		return
	}

	for {
		select {
		case done := <-s.results:
			s.land(w, done)
		default:
			s.scan(w)
			return
		}
	}
}

func (s *ScriptSystem) land(w *ecs.World, done scriptDone) {
	if s.inflight[done.id] == done.rev {
		delete(s.inflight, done.id)
	}

	if !ecs.IsAlive(w, done.entity) {
		return
	}
	card, ok := ecs.Get(w, done.entity, component.CardComponent.Kind())
	if !ok || card.ID != done.id {
		return
	}
	if card.Revision != done.rev {
		// Stale output; the scan below queues the current revision.
		return
	}

	res, ok := ecs.Get(w, done.entity, component.ScriptResultComponent.Kind())
	if !ok {
		res = &component.ScriptResult{}
		_ = ecs.Add(w, done.entity, component.ScriptResultComponent.Kind(), res)
	}
	res.Output = done.output
	res.Err = ""
	if done.err != nil {
		res.Err = done.err.Error()
	}
	res.RunRevision = done.rev
	res.Running = false

	s.metrics.IncScriptRun(done.err != nil)
	if done.err != nil {
		s.log.Debug().Err(done.err).Str("card", done.id.String()).Msg("script failed")
	}
}

func (s *ScriptSystem) scan(w *ecs.World) {
	ecs.ForEach(w, component.CardComponent.Kind(), func(e ecs.Entity, card *component.Card) {
		if card.Kind != component.CardCode {
			return
		}
		if s.inflight[card.ID] == card.Revision {
			return
		}
		res, ok := ecs.Get(w, e, component.ScriptResultComponent.Kind())
		if ok && res.RunRevision == card.Revision {
			return
		}
		if !ok {
			res = &component.ScriptResult{}
			_ = ecs.Add(w, e, component.ScriptResultComponent.Kind(), res)
		}
		res.Running = true
		s.inflight[card.ID] = card.Revision

		go s.run(e, card.ID, card.Revision, card.Body)
	})
}

func (s *ScriptSystem) run(e ecs.Entity, id uuid.UUID, rev uint64, src string) {
	out, err := s.eval.Eval(context.Background(), src)
	s.results <- scriptDone{entity: e, id: id, rev: rev, output: out, err: err}
}

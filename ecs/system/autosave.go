package system

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/diag"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/store"
	"github.com/milk9111/pinboard/viewport"
)

const saveTimeout = 2 * time.Second

// AutosaveSystem periodically sweeps dirty cards and connectors into
// the store and drops rows for removed cards. Writes run synchronously
// on the update goroutine; a batch is a handful of local sqlite rows,
// and keeping the sweep single-threaded means a dirty flag can never
// race its own flush. FlushSoon collapses the wait after meaningful
// edits like a drag release.
type AutosaveSystem struct {
	board   *board.Board
	db      *store.Store
	state   *viewport.State
	log     zerolog.Logger
	metrics *diag.Metrics

	interval time.Duration
	now      func() time.Time
	last     time.Time
	flushNow bool

	removals []uuid.UUID

	savedVP viewport.Viewport
	hasVP   bool
}

func NewAutosaveSystem(b *board.Board, db *store.Store, state *viewport.State, interval time.Duration, log zerolog.Logger, metrics *diag.Metrics) *AutosaveSystem {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &AutosaveSystem{
		board:    b,
		db:       db,
		state:    state,
		log:      log,
		metrics:  metrics,
		interval: interval,
		now:      time.Now,
		last:     time.Now(),
	}
}

// FlushSoon makes the next update flush regardless of the interval.
func (a *AutosaveSystem) FlushSoon() {
	if a == nil {
		return
	}
	a.flushNow = true
}

func (a *AutosaveSystem) Update(w *ecs.World) {
	if a == nil || a.db == nil {
		return
	}

	for _, evt := range w.Events().Peek() {
		if evt.Kind != ecs.EventCardRemoved {
			continue
		}
		raw, ok := evt.Data.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		a.removals = append(a.removals, id)
	}

	now := a.now()
	if !a.flushNow && now.Sub(a.last) < a.interval {
		return
	}
	a.flushNow = false
	a.last = now
	a.Flush(w)
}

// Flush writes everything pending right now: dirty cards, dirty
// connectors, queued removals, and the viewport when it moved. Cards
// that fail to write stay dirty for the next sweep.
func (a *AutosaveSystem) Flush(w *ecs.World) {
	if a == nil || a.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	var rows []store.Card
	var edges []store.Connector
	clean := make([]ecs.Entity, 0)

	for _, e := range w.Query(component.DirtyTagComponent.Kind()) {
		if conn, ok := ecs.Get(w, e, component.ConnectorComponent.Kind()); ok {
			edges = append(edges, store.Connector{ID: uuid.New(), From: conn.From, To: conn.To})
			clean = append(clean, e)
			continue
		}
		row, ok := a.cardRow(w, e)
		if !ok {
			clean = append(clean, e)
			continue
		}
		rows = append(rows, row)
		clean = append(clean, e)
	}

	if len(rows) > 0 {
		if err := a.db.UpsertCards(ctx, rows); err != nil {
			a.log.Warn().Err(err).Int("cards", len(rows)).Msg("autosave flush failed")
			return
		}
		a.metrics.AddAutosavedCards(len(rows))
	}
	for _, edge := range edges {
		if err := a.db.UpsertConnector(ctx, edge); err != nil {
			a.log.Warn().Err(err).Msg("connector save failed")
			return
		}
	}
	for _, e := range clean {
		ecs.Remove(w, e, component.DirtyTagComponent.Kind())
	}

	kept := a.removals[:0]
	for _, id := range a.removals {
		if err := a.db.DeleteCard(ctx, id); err != nil {
			a.log.Warn().Err(err).Str("card", id.String()).Msg("card delete failed")
			kept = append(kept, id)
		}
	}
	a.removals = kept

	if a.state != nil {
		vp := a.state.Viewport()
		if !a.hasVP || vp != a.savedVP {
			if err := a.db.SaveViewport(ctx, vp); err != nil {
				a.log.Warn().Err(err).Msg("viewport save failed")
			} else {
				a.savedVP = vp
				a.hasVP = true
			}
		}
	}
}

func (a *AutosaveSystem) cardRow(w *ecs.World, e ecs.Entity) (store.Card, bool) {
	card, ok := ecs.Get(w, e, component.CardComponent.Kind())
	if !ok {
		return store.Card{}, false
	}
	place, ok := ecs.Get(w, e, component.PlacementComponent.Kind())
	if !ok {
		return store.Card{}, false
	}
	row := store.Card{
		ID:       card.ID,
		Kind:     card.Kind,
		Title:    card.Title,
		Body:     card.Body,
		Color:    card.Color,
		ImageKey: card.ImageKey,
		Revision: card.Revision,
		Bounds:   place.Bounds,
	}
	if z, ok := ecs.Get(w, e, component.ZOrderComponent.Kind()); ok {
		row.Z = z.Z
	}
	if pr, ok := ecs.Get(w, e, component.PriorityComponent.Kind()); ok {
		row.Priority = pr.Value
		row.Pinned = pr.Pinned
	}
	return row, true
}

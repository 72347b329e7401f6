package system

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/diag"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/store"
	"github.com/milk9111/pinboard/viewport"
)

// DefaultPrefetchMargin is how far beyond the visible bounds a region
// fetch reaches, in world units. Unloading keeps a second margin on top
// of that so cards near the edge do not thrash in and out.
const DefaultPrefetchMargin = 600.0

const fetchTimeout = 5 * time.Second

// regionLoad is one completed fetch, handed from the fetch goroutine to
// Update over the results channel.
type regionLoad struct {
	region geom.Rect
	cards  []store.Card
	edges  []store.Connector
	took   time.Duration
	err    error
}

// StreamingSystem keeps the board populated with the cards around the
// viewport. Bounds changes arm a debouncer; once the view settles, a
// goroutine fetches the region from the store and the rows merge into
// the world on a later tick. The previously loaded set stays mounted
// the whole time, so the user never watches cards blink out mid-pan.
type StreamingSystem struct {
	board    *board.Board
	db       *store.Store
	debounce *viewport.BoundsDebouncer
	log      zerolog.Logger
	metrics  *diag.Metrics

	prefetch float64
	results  chan regionLoad
	inflight bool
	queued   *geom.Rect
}

func NewStreamingSystem(b *board.Board, db *store.Store, settle time.Duration, prefetch float64, log zerolog.Logger, metrics *diag.Metrics) *StreamingSystem {
	if prefetch <= 0 {
		prefetch = DefaultPrefetchMargin
	}
	s := &StreamingSystem{
		board:    b,
		db:       db,
		log:      log,
		metrics:  metrics,
		prefetch: prefetch,
		results:  make(chan regionLoad, 1),
	}
	s.debounce = viewport.NewBoundsDebouncer(settle, s.schedule)
	return s
}

// Notify arms the debouncer with the latest visible bounds. Wire it to
// the viewport subscription so every pan and zoom restarts the settle
// window.
func (s *StreamingSystem) Notify(visible geom.Rect) {
	if s == nil {
		return
	}
	s.debounce.Arm(visible)
}

// Close stops the debouncer. In-flight fetches finish into the buffered
// channel and are dropped with it.
func (s *StreamingSystem) Close() {
	if s == nil {
		return
	}
	s.debounce.Close()
}

func (s *StreamingSystem) Update(_ *ecs.World) {
	if s == nil || s.db == nil {
		return
	}

	s.debounce.Tick()

	select {
	case load := <-s.results:
		s.merge(load)
	default:
	}
}

// schedule runs on settlement. One fetch flies at a time; a settlement
// landing mid-fetch is remembered and dispatched when the result lands.
func (s *StreamingSystem) schedule(visible geom.Rect) {
	region := visible.Expand(s.prefetch)
	if s.inflight {
		s.queued = &region
		return
	}
	s.inflight = true
	go s.fetch(region)
}

func (s *StreamingSystem) fetch(region geom.Rect) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	start := time.Now()
	cards, err := s.db.FetchRegion(ctx, region)
	var edges []store.Connector
	if err == nil {
		edges, err = s.db.Connectors(ctx)
	}
	s.results <- regionLoad{
		region: region,
		cards:  cards,
		edges:  edges,
		took:   time.Since(start),
		err:    err,
	}
}

func (s *StreamingSystem) merge(load regionLoad) {
	s.inflight = false
	defer s.dispatchQueued()

	if load.err != nil {
		// Keep serving whatever is already mounted.
		s.log.Warn().Err(load.err).Msg("region fetch failed")
		return
	}

	spawned := 0
	for _, c := range load.cards {
		if _, ok := s.board.EntityByID(c.ID); ok {
			continue
		}
		_, err := s.board.Spawn(board.Seed{
			ID:       c.ID,
			Kind:     c.Kind,
			Title:    c.Title,
			Body:     c.Body,
			Color:    c.Color,
			ImageKey: c.ImageKey,
			Revision: c.Revision,
			Bounds:   c.Bounds,
			Z:        c.Z,
			Priority: c.Priority,
			Pinned:   c.Pinned,
			Streamed: true,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("card", c.ID.String()).Msg("streamed card rejected")
			continue
		}
		spawned++
	}

	for _, edge := range load.edges {
		if _, ok := s.board.EntityByID(edge.From); !ok {
			continue
		}
		if _, ok := s.board.EntityByID(edge.To); !ok {
			continue
		}
		// Connect dedupes by pair, so re-fetched edges are no-ops.
		_, _ = s.board.Connect(edge.From, edge.To)
	}

	unloaded := s.board.UnloadOutside(load.region.Expand(s.prefetch))
	s.metrics.ObserveRegionFetch(load.took)
	s.board.World().Events().Push(ecs.Event{Kind: ecs.EventRegionSettled, Data: load.region})

	s.log.Debug().
		Int("fetched", len(load.cards)).
		Int("spawned", spawned).
		Int("unloaded", unloaded).
		Dur("took", load.took).
		Msg("region merged")
}

func (s *StreamingSystem) dispatchQueued() {
	if s.queued == nil {
		return
	}
	region := *s.queued
	s.queued = nil
	s.inflight = true
	go s.fetch(region)
}

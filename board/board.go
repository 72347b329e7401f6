// Package board is the domain layer over the ECS world: it owns card
// identity, stacking order, selection, and the spatial hit index, and
// projects world state into the shapes the viewport and renderer
// consume.
package board

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/render"
	"github.com/milk9111/pinboard/viewport"
)

var (
	ErrCardExists    = fmt.Errorf("board: card already present")
	ErrInvalidBounds = fmt.Errorf("board: invalid bounds")
	ErrNotACard      = fmt.Errorf("board: entity is not a card")
)

// Seed is everything needed to materialize one card entity, whether it
// comes from the store, the clipboard, or a toolbar action.
type Seed struct {
	ID       uuid.UUID // zero value allocates a fresh id
	Kind     component.CardKind
	Title    string
	Body     string
	Color    uint32
	ImageKey string
	Revision uint64

	Bounds   geom.Rect
	Z        int // zero picks the next slot above the current top
	Priority float64
	Pinned   bool

	Streamed bool
}

// Board wraps the ECS world with card bookkeeping. Not safe for
// concurrent use; the game loop owns it.
type Board struct {
	world *ecs.World
	byID  map[uuid.UUID]ecs.Entity
	hits  *hitIndex
	topZ  int
	log   zerolog.Logger
}

func New(log zerolog.Logger) *Board {
	return &Board{
		world: ecs.NewWorld(),
		byID:  make(map[uuid.UUID]ecs.Entity),
		hits:  newHitIndex(),
		log:   log,
	}
}

func (b *Board) World() *ecs.World { return b.world }

// Len returns the number of live cards.
func (b *Board) Len() int { return len(b.byID) }

// Spawn materializes a card entity from seed. Bounds must be valid and
// the id must not already be on the board.
func (b *Board) Spawn(seed Seed) (ecs.Entity, error) {
	if !seed.Bounds.Valid() {
		return 0, fmt.Errorf("board: spawn %q: %w", seed.Title, ErrInvalidBounds)
	}
	if seed.ID == uuid.Nil {
		seed.ID = uuid.New()
	}
	if _, ok := b.byID[seed.ID]; ok {
		return 0, fmt.Errorf("board: spawn %s: %w", seed.ID, ErrCardExists)
	}

	e := ecs.CreateEntity(b.world)
	card := &component.Card{
		ID:       seed.ID,
		Kind:     seed.Kind,
		Title:    seed.Title,
		Body:     seed.Body,
		Color:    seed.Color,
		ImageKey: seed.ImageKey,
		Revision: seed.Revision,
	}
	if err := ecs.Add(b.world, e, component.CardComponent.Kind(), card); err != nil {
		return 0, fmt.Errorf("board: spawn %s: %w", seed.ID, err)
	}
	_ = ecs.Add(b.world, e, component.PlacementComponent.Kind(), &component.Placement{Bounds: seed.Bounds})

	z := seed.Z
	if z == 0 {
		z = b.topZ + 1
	}
	_ = ecs.Add(b.world, e, component.ZOrderComponent.Kind(), &component.ZOrder{Z: z})
	if z > b.topZ {
		b.topZ = z
	}

	if seed.Priority != 0 || seed.Pinned {
		_ = ecs.Add(b.world, e, component.PriorityComponent.Kind(),
			&component.Priority{Value: seed.Priority, Pinned: seed.Pinned})
	}
	if seed.Streamed {
		_ = ecs.Add(b.world, e, component.StreamedTagComponent.Kind(), &component.StreamedTag{})
	}

	b.byID[seed.ID] = e
	b.hits.set(e, seed.Bounds)
	b.log.Debug().Str("card", seed.ID.String()).Str("kind", seed.Kind.String()).Msg("spawned card")
	return e, nil
}

// Remove deletes a card, its index entry, and its entity. The removal
// event carries the uuid so persistence can drop the row.
func (b *Board) Remove(e ecs.Entity) error {
	card, ok := ecs.Get(b.world, e, component.CardComponent.Kind())
	if !ok {
		return ErrNotACard
	}
	id := card.ID
	b.world.Events().Push(ecs.Event{Kind: ecs.EventCardRemoved, Entity: e, Data: id.String()})
	b.hits.remove(e)
	delete(b.byID, id)
	ecs.DestroyEntity(b.world, e)
	b.log.Debug().Str("card", id.String()).Msg("removed card")
	return nil
}

// EntityByID resolves a card uuid to its live entity.
func (b *Board) EntityByID(id uuid.UUID) (ecs.Entity, bool) {
	e, ok := b.byID[id]
	return e, ok
}

// CardID returns the uuid of a card entity.
func (b *Board) CardID(e ecs.Entity) (uuid.UUID, bool) {
	card, ok := ecs.Get(b.world, e, component.CardComponent.Kind())
	if !ok {
		return uuid.Nil, false
	}
	return card.ID, true
}

// Move replaces a card's bounds, reindexes it, and marks it dirty.
func (b *Board) Move(e ecs.Entity, bounds geom.Rect) error {
	if !bounds.Valid() {
		return fmt.Errorf("board: move %s: %w", e, ErrInvalidBounds)
	}
	place, ok := ecs.Get(b.world, e, component.PlacementComponent.Kind())
	if !ok {
		return ErrNotACard
	}
	place.Bounds = bounds
	b.hits.set(e, bounds)
	b.MarkDirty(e)
	return nil
}

// SetContent replaces title and body, bumping the card revision.
func (b *Board) SetContent(e ecs.Entity, title, body string) error {
	card, ok := ecs.Get(b.world, e, component.CardComponent.Kind())
	if !ok {
		return ErrNotACard
	}
	if card.Title == title && card.Body == body {
		return nil
	}
	card.Title = title
	card.Body = body
	card.Touch()
	b.MarkDirty(e)
	return nil
}

// BringToFront restacks the card above everything else.
func (b *Board) BringToFront(e ecs.Entity) {
	z, ok := ecs.Get(b.world, e, component.ZOrderComponent.Kind())
	if !ok {
		return
	}
	if z.Z == b.topZ {
		return
	}
	b.topZ++
	z.Z = b.topZ
	b.MarkDirty(e)
}

// MarkDirty queues e for the next autosave sweep.
func (b *Board) MarkDirty(e ecs.Entity) {
	_ = ecs.Add(b.world, e, component.DirtyTagComponent.Kind(), &component.DirtyTag{})
	b.world.Events().Push(ecs.Event{Kind: ecs.EventCardChanged, Entity: e})
}

// TogglePin flips a card's pin flag, reporting the new state. Pinned
// cards outrank everything else when culling has to drop entities.
func (b *Board) TogglePin(e ecs.Entity) (bool, error) {
	if !ecs.Has(b.world, e, component.CardComponent.Kind()) {
		return false, ErrNotACard
	}
	pr, ok := ecs.Get(b.world, e, component.PriorityComponent.Kind())
	if !ok {
		pr = &component.Priority{}
		_ = ecs.Add(b.world, e, component.PriorityComponent.Kind(), pr)
	}
	pr.Pinned = !pr.Pinned
	b.MarkDirty(e)
	return pr.Pinned, nil
}

// Select makes e the sole selected card and raises it.
func (b *Board) Select(e ecs.Entity) {
	b.ClearSelection()
	_ = ecs.Add(b.world, e, component.SelectedTagComponent.Kind(), &component.SelectedTag{})
	b.BringToFront(e)
}

func (b *Board) ClearSelection() {
	for _, e := range b.world.Query(component.SelectedTagComponent.Kind()) {
		ecs.Remove(b.world, e, component.SelectedTagComponent.Kind())
	}
}

// Selected returns the selected card, if any.
func (b *Board) Selected() (ecs.Entity, bool) {
	sel := b.world.Query(component.SelectedTagComponent.Kind())
	if len(sel) == 0 {
		return 0, false
	}
	return sel[0], true
}

// SetHover moves the hover tag to e, or clears it when e is 0.
func (b *Board) SetHover(e ecs.Entity) {
	for _, old := range b.world.Query(component.HoverTagComponent.Kind()) {
		if old == e {
			return
		}
		ecs.Remove(b.world, old, component.HoverTagComponent.Kind())
	}
	if e.Valid() && ecs.IsAlive(b.world, e) {
		_ = ecs.Add(b.world, e, component.HoverTagComponent.Kind(), &component.HoverTag{})
	}
}

// CardAt returns the topmost card under the world point.
func (b *Board) CardAt(p geom.Vec) (ecs.Entity, bool) {
	hits := b.hits.at(p)
	var best ecs.Entity
	bestZ := 0
	found := false
	for _, e := range hits {
		z, ok := ecs.Get(b.world, e, component.ZOrderComponent.Kind())
		if !ok {
			continue
		}
		if !found || z.Z > bestZ {
			best, bestZ, found = e, z.Z, true
		}
	}
	return best, found
}

// CardsIn returns the cards intersecting the world rect, unordered.
func (b *Board) CardsIn(r geom.Rect) []ecs.Entity {
	return b.hits.in(r)
}

// Connect adds a connector edge between two cards. An edge that already
// exists for the pair is returned instead of duplicated.
func (b *Board) Connect(from, to uuid.UUID) (ecs.Entity, error) {
	if _, ok := b.byID[from]; !ok {
		return 0, fmt.Errorf("board: connect: from %s: %w", from, ErrNotACard)
	}
	if _, ok := b.byID[to]; !ok {
		return 0, fmt.Errorf("board: connect: to %s: %w", to, ErrNotACard)
	}
	var existing ecs.Entity
	found := false
	ecs.ForEach(b.world, component.ConnectorComponent.Kind(), func(e ecs.Entity, c *component.Connector) {
		if !found && c.From == from && c.To == to {
			existing, found = e, true
		}
	})
	if found {
		return existing, nil
	}
	e := ecs.CreateEntity(b.world)
	_ = ecs.Add(b.world, e, component.ConnectorComponent.Kind(), &component.Connector{From: from, To: to})
	return e, nil
}

// ContentBounds returns the union of all card bounds, or false when the
// board is empty.
func (b *Board) ContentBounds() (geom.Rect, bool) {
	var out geom.Rect
	found := false
	ecs.ForEach(b.world, component.PlacementComponent.Kind(), func(_ ecs.Entity, p *component.Placement) {
		if !found {
			out = p.Bounds
			found = true
			return
		}
		out = out.Union(p.Bounds)
	})
	return out, found
}

func complexityFor(kind component.CardKind) viewport.Complexity {
	switch kind {
	case component.CardImage, component.CardCode:
		return viewport.ComplexityHigh
	case component.CardLink:
		return viewport.ComplexityLow
	default:
		return viewport.ComplexityMedium
	}
}

// CullSet projects every card into the culler's entity shape.
func (b *Board) CullSet() []viewport.Entity {
	out := make([]viewport.Entity, 0, len(b.byID))
	ecs.ForEach(b.world, component.CardComponent.Kind(), func(e ecs.Entity, card *component.Card) {
		place, ok := ecs.Get(b.world, e, component.PlacementComponent.Kind())
		if !ok {
			return
		}
		ent := viewport.Entity{
			ID:         uint64(e),
			Bounds:     place.Bounds,
			Complexity: complexityFor(card.Kind),
		}
		if pr, ok := ecs.Get(b.world, e, component.PriorityComponent.Kind()); ok {
			ent.Priority = pr.Effective()
		}
		out = append(out, ent)
	})
	return out
}

// Snapshots projects the culled entities into render snapshots in paint
// order (ascending z).
func (b *Board) Snapshots(culled []viewport.Entity, tier viewport.Tier) []render.CardSnapshot {
	out := make([]render.CardSnapshot, 0, len(culled))
	for _, ce := range culled {
		e := ecs.Entity(ce.ID)
		card, ok := ecs.Get(b.world, e, component.CardComponent.Kind())
		if !ok {
			continue
		}
		place, ok := ecs.Get(b.world, e, component.PlacementComponent.Kind())
		if !ok {
			continue
		}
		snap := render.CardSnapshot{
			ID:         uint64(e),
			Kind:       card.Kind,
			Title:      card.Title,
			Body:       card.Body,
			Color:      card.Color,
			ImageKey:   card.ImageKey,
			ContentRev: card.Revision,
			Bounds:     place.Bounds,
			Selected:   ecs.Has(b.world, e, component.SelectedTagComponent.Kind()),
			Hovering:   ecs.Has(b.world, e, component.HoverTagComponent.Kind()),
			Dragging:   ecs.Has(b.world, e, component.DragComponent.Kind()),
			Detail:     tier,
		}
		if z, ok := ecs.Get(b.world, e, component.ZOrderComponent.Kind()); ok {
			snap.Z = z.Z
		}
		if res, ok := ecs.Get(b.world, e, component.ScriptResultComponent.Kind()); ok {
			snap.ScriptOutput = res.Output
			snap.ScriptErr = res.Err
		}
		out = append(out, snap)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// UnloadOutside destroys streamed, unmodified cards whose bounds fall
// entirely outside keep, returning how many were dropped. Dirty cards
// stay until autosave flushes them.
func (b *Board) UnloadOutside(keep geom.Rect) int {
	dropped := 0
	ecs.ForEach(b.world, component.StreamedTagComponent.Kind(), func(e ecs.Entity, _ *component.StreamedTag) {
		if ecs.Has(b.world, e, component.DirtyTagComponent.Kind()) {
			return
		}
		place, ok := ecs.Get(b.world, e, component.PlacementComponent.Kind())
		if !ok || place.Bounds.Intersects(keep) {
			return
		}
		card, ok := ecs.Get(b.world, e, component.CardComponent.Kind())
		if !ok {
			return
		}
		b.hits.remove(e)
		delete(b.byID, card.ID)
		ecs.DestroyEntity(b.world, e)
		dropped++
	})
	if dropped > 0 {
		b.log.Debug().Int("count", dropped).Msg("unloaded offscreen cards")
	}
	return dropped
}

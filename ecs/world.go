// Package ecs is a small entity-component-system core. Entities are
// generational handles, components live in per-kind sparse sets, and
// systems run in scheduler order once per update tick.
package ecs

import (
	"errors"

	"github.com/milk9111/pinboard/ecs/component"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

// World owns the entity table, one sparse store per component kind, and
// the frame event queue. It is plain data; systems give it behavior.
// Not safe for concurrent use.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	events   EventQueue
}

func NewWorld() *World {
	return &World{stores: make(map[component.ComponentID]*SparseSet)}
}

// CreateEntity allocates a new entity.
func CreateEntity(w *World) Entity {
	return w.entities.create()
}

// DestroyEntity kills e and drops all of its components, reporting
// whether e was alive.
func DestroyEntity(w *World, e Entity) bool {
	if !w.entities.destroy(e) {
		return false
	}
	for _, s := range w.stores {
		s.Remove(e.id())
	}
	return true
}

// IsAlive reports whether the handle still refers to a live entity.
func IsAlive(w *World, e Entity) bool {
	return w.entities.isAlive(e)
}

// Entities returns all live entities in slot order.
func Entities(w *World) []Entity {
	return w.entities.entities()
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	return &w.events
}

// Query returns the live entities carrying every given kind. Iteration
// walks the smallest store, so put the rarest component first when it
// is known.
func (w *World) Query(kinds ...component.KindRef) []Entity {
	if len(kinds) == 0 {
		return nil
	}
	stores := make([]*SparseSet, 0, len(kinds))
	var smallest *SparseSet
	for _, k := range kinds {
		s, ok := w.stores[k.ID()]
		if !ok || s.Len() == 0 {
			return nil
		}
		stores = append(stores, s)
		if smallest == nil || s.Len() < smallest.Len() {
			smallest = s
		}
	}
	out := make([]Entity, 0, smallest.Len())
outer:
	for _, id := range smallest.ids() {
		for _, s := range stores {
			if s != smallest && !s.Has(id) {
				continue outer
			}
		}
		if e := w.entities.handleFor(id); e.Valid() {
			out = append(out, e)
		}
	}
	return out
}

// First returns any one live entity carrying the kind. Handy for
// singleton components.
func (w *World) First(kind component.KindRef) (Entity, bool) {
	s, ok := w.stores[kind.ID()]
	if !ok {
		return 0, false
	}
	for _, id := range s.ids() {
		if e := w.entities.handleFor(id); e.Valid() {
			return e, true
		}
	}
	return 0, false
}

func (w *World) store(id component.ComponentID) *SparseSet {
	s, ok := w.stores[id]
	if !ok {
		s = &SparseSet{}
		w.stores[id] = s
	}
	return s
}

func (w *World) addComponent(e Entity, id component.ComponentID, v any) error {
	if id == 0 {
		return ErrInvalidComponentKind
	}
	if v == nil {
		return ErrNilComponent
	}
	if !w.entities.isAlive(e) {
		return ErrEntityNotAlive
	}
	w.store(id).Set(e.id(), v)
	return nil
}

func (w *World) getComponent(e Entity, id component.ComponentID) (any, bool) {
	if !w.entities.isAlive(e) {
		return nil, false
	}
	s, ok := w.stores[id]
	if !ok {
		return nil, false
	}
	v := s.Get(e.id())
	return v, v != nil
}

func (w *World) hasComponent(e Entity, id component.ComponentID) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	s, ok := w.stores[id]
	return ok && s.Has(e.id())
}

func (w *World) removeComponent(e Entity, id component.ComponentID) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	s, ok := w.stores[id]
	return ok && s.Remove(e.id())
}

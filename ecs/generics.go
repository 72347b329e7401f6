package ecs

import "github.com/milk9111/pinboard/ecs/component"

// Add attaches v to e, replacing any existing component of the same kind.
func Add[T any](w *World, e Entity, kind component.ComponentKind[T], v *T) error {
	if !kind.Valid() {
		return ErrInvalidComponentKind
	}
	if v == nil {
		return ErrNilComponent
	}
	return w.addComponent(e, kind.ID(), v)
}

// Get returns e's component of the given kind. The pointer aliases the
// stored component, so mutations stick without a write-back.
func Get[T any](w *World, e Entity, kind component.ComponentKind[T]) (*T, bool) {
	v, ok := w.getComponent(e, kind.ID())
	if !ok {
		return nil, false
	}
	t, ok := v.(*T)
	return t, ok
}

// Has reports whether e carries a component of the given kind.
func Has[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	return w.hasComponent(e, kind.ID())
}

// Remove detaches e's component of the given kind, reporting whether one
// was present.
func Remove[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	return w.removeComponent(e, kind.ID())
}

// Count returns how many live entities carry the given kind.
func Count[T any](w *World, kind component.ComponentKind[T]) int {
	s, ok := w.stores[kind.ID()]
	if !ok {
		return 0
	}
	return s.Len()
}

// ForEach visits every live entity carrying the given kind. The id list
// is snapshotted up front, so fn may add and remove components or
// destroy entities, including the one being visited.
func ForEach[T any](w *World, kind component.ComponentKind[T], fn func(Entity, *T)) {
	s, ok := w.stores[kind.ID()]
	if !ok {
		return
	}
	ids := append([]entityID(nil), s.ids()...)
	for _, id := range ids {
		e := w.entities.handleFor(id)
		if !e.Valid() {
			continue
		}
		v := s.Get(id)
		if v == nil {
			continue
		}
		if t, ok := v.(*T); ok {
			fn(e, t)
		}
	}
}

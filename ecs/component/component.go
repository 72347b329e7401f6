// Package component declares the component kinds a board world can
// carry. Kinds are registered process-wide at package init through
// NewComponent; the typed handles keep world access free of casts at
// call sites.
package component

import "sync/atomic"

type ComponentID uint32

// KindRef is the type-erased view of a ComponentKind, letting callers
// mix kinds of different component types in one query.
type KindRef interface {
	ID() ComponentID
}

var nextComponentID atomic.Uint32

// ComponentKind ties a ComponentID to its Go type.
type ComponentKind[T any] struct {
	id ComponentID
}

func NewComponentKind[T any]() ComponentKind[T] {
	return ComponentKind[T]{id: ComponentID(nextComponentID.Add(1))}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

// ComponentHandle is the declaration-site wrapper for a kind.
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T]()}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}

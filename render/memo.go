package render

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/milk9111/pinboard/geom"
)

// DragEndFunc persists a card's bounds when the user releases a drag.
type DragEndFunc func(id uuid.UUID, bounds geom.Rect)

// Memoizer caches one display list per card and returns the identical
// list pointer for as long as the card's snapshot compares equal, so
// per-frame redraws of an idle board allocate nothing.
//
// The bound drag-end callback participates in cache identity: cached
// lists were built for a world wired to that callback, and swapping the
// persistence sink mid-session must not leave visuals attached to a
// stale one. Cosmetic hooks deliberately do not participate.
type Memoizer struct {
	entries map[uint64]memoEntry
	dragEnd DragEndFunc
	hover   func(uint64)

	hits   uint64
	misses uint64
}

type memoEntry struct {
	snap    CardSnapshot
	list    *DisplayList
	dragPtr uintptr
}

func NewMemoizer() *Memoizer {
	return &Memoizer{entries: make(map[uint64]memoEntry)}
}

// BindDragEnd installs the drag persistence callback. Binding a
// function with a different identity invalidates every cached entry.
func (m *Memoizer) BindDragEnd(fn DragEndFunc) {
	if funcPtr(fn) == funcPtr(m.dragEnd) {
		return
	}
	m.dragEnd = fn
	m.entries = make(map[uint64]memoEntry)
}

// DragEnd returns the bound persistence callback, or nil.
func (m *Memoizer) DragEnd() DragEndFunc { return m.dragEnd }

// BindHover installs a cosmetic hover hook. It never affects caching.
func (m *Memoizer) BindHover(fn func(cardID uint64)) { m.hover = fn }

// Hover invokes the hover hook, if any.
func (m *Memoizer) Hover(cardID uint64) {
	if m.hover != nil {
		m.hover(cardID)
	}
}

// Render returns the display list for s, rebuilding it only when s
// differs from the snapshot the cached list was built from.
func (m *Memoizer) Render(s CardSnapshot) *DisplayList {
	ptr := funcPtr(m.dragEnd)
	if e, ok := m.entries[s.ID]; ok && e.dragPtr == ptr && e.snap == s {
		m.hits++
		return e.list
	}
	list := build(s)
	m.entries[s.ID] = memoEntry{snap: s, list: list, dragPtr: ptr}
	m.misses++
	return list
}

// Evict drops the cached list for one card, e.g. after deletion.
func (m *Memoizer) Evict(id uint64) {
	delete(m.entries, id)
}

// Reset drops every cached list.
func (m *Memoizer) Reset() {
	m.entries = make(map[uint64]memoEntry)
	m.hits, m.misses = 0, 0
}

// Len returns the number of cached lists.
func (m *Memoizer) Len() int { return len(m.entries) }

// Stats returns cache hits and misses since the last Reset.
func (m *Memoizer) Stats() (hits, misses uint64) { return m.hits, m.misses }

func funcPtr(fn DragEndFunc) uintptr {
	if fn == nil {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

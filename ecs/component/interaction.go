package component

import "github.com/milk9111/pinboard/geom"

// SelectedTag marks the card the user last clicked.
type SelectedTag struct{}

var SelectedTagComponent = NewComponent[SelectedTag]()

// HoverTag marks the card under the pointer this tick.
type HoverTag struct{}

var HoverTagComponent = NewComponent[HoverTag]()

// Drag tracks an in-progress card drag. Offset is the grab point
// relative to the card's min corner, in world units, so the card does
// not snap its corner to the pointer.
type Drag struct {
	Offset geom.Vec
	Start  geom.Rect // bounds at grab time, for no-op detection on release
}

var DragComponent = NewComponent[Drag]()

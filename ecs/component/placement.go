package component

import "github.com/milk9111/pinboard/geom"

// Placement is a card's world-space bounds.
type Placement struct {
	Bounds geom.Rect
}

var PlacementComponent = NewComponent[Placement]()

package component

// ZOrder is a card's stacking position. Higher draws later, so on top.
type ZOrder struct {
	Z int
}

var ZOrderComponent = NewComponent[ZOrder]()

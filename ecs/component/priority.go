package component

// Priority ranks a card for culling truncation. Pinned cards get a
// large boost so they survive dense regions.
type Priority struct {
	Value  float64
	Pinned bool
}

// Effective is the rank the culler sees.
func (p Priority) Effective() float64 {
	if p.Pinned {
		return p.Value + 1000
	}
	return p.Value
}

var PriorityComponent = NewComponent[Priority]()

package board

import (
	"github.com/jakecoffman/cp"

	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/geom"
)

// hitIndex keeps one static sensor box per card in a Chipmunk space so
// pointer hit tests and region queries ride the space's spatial index
// instead of a linear scan.
type hitIndex struct {
	space   *cp.Space
	byCard  map[ecs.Entity]*cp.Shape
	byShape map[*cp.Shape]ecs.Entity
}

func newHitIndex() *hitIndex {
	return &hitIndex{
		space:   cp.NewSpace(),
		byCard:  make(map[ecs.Entity]*cp.Shape),
		byShape: make(map[*cp.Shape]ecs.Entity),
	}
}

func toBB(r geom.Rect) cp.BB {
	return cp.BB{L: r.MinX, B: r.MinY, R: r.MaxX, T: r.MaxY}
}

// set registers or moves a card's box. Invalid bounds drop the card
// from the index.
func (h *hitIndex) set(e ecs.Entity, r geom.Rect) {
	h.remove(e)
	if !r.Valid() {
		return
	}
	shape := cp.NewBox2(h.space.StaticBody, toBB(r), 0)
	shape.SetSensor(true)
	h.space.AddShape(shape)
	h.byCard[e] = shape
	h.byShape[shape] = e
}

func (h *hitIndex) remove(e ecs.Entity) {
	shape, ok := h.byCard[e]
	if !ok {
		return
	}
	h.space.RemoveShape(shape)
	delete(h.byCard, e)
	delete(h.byShape, shape)
}

// at returns every card whose box contains the world point.
func (h *hitIndex) at(p geom.Vec) []ecs.Entity {
	var out []ecs.Entity
	h.space.PointQuery(cp.Vector{X: p.X, Y: p.Y}, 0, cp.SHAPE_FILTER_ALL,
		func(shape *cp.Shape, _ cp.Vector, _ float64, _ cp.Vector) {
			if e, ok := h.byShape[shape]; ok {
				out = append(out, e)
			}
		})
	return out
}

// in returns every card whose box intersects the world rect.
func (h *hitIndex) in(r geom.Rect) []ecs.Entity {
	var out []ecs.Entity
	h.space.BBQuery(toBB(r), cp.SHAPE_FILTER_ALL,
		func(shape *cp.Shape, _ interface{}) {
			if e, ok := h.byShape[shape]; ok {
				out = append(out, e)
			}
		}, nil)
	return out
}

func (h *hitIndex) len() int {
	return len(h.byCard)
}

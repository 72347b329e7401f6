package ecs

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/pinboard/viewport"
)

// DrawSystem is implemented by systems that draw to the screen.
type DrawSystem interface {
	Draw(w *World, screen *ebiten.Image, view viewport.Viewport)
}

// Draw invokes every draw-capable system in scheduler order.
func (s *Scheduler) Draw(w *World, screen *ebiten.Image, view viewport.Viewport) {
	if w == nil || screen == nil {
		return
	}
	for _, system := range s.systems {
		ds, ok := system.(DrawSystem)
		if !ok {
			continue
		}
		ds.Draw(w, screen, view)
	}
}

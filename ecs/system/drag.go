package system

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/render"
	"github.com/milk9111/pinboard/viewport"
)

// DragSystem handles direct card manipulation: click to select, drag
// to move, hover highlighting, delete, pin toggling, and connector
// creation (press C with a card selected, then click the target card).
type DragSystem struct {
	state *viewport.State
	board *board.Board
	memo  *render.Memoizer
	nav   *NavigationSystem
	log   zerolog.Logger

	connectArmed bool
}

func NewDragSystem(state *viewport.State, b *board.Board, memo *render.Memoizer, nav *NavigationSystem, log zerolog.Logger) *DragSystem {
	return &DragSystem{state: state, board: b, memo: memo, nav: nav, log: log}
}

func (d *DragSystem) Update(w *ecs.World) {
	if d == nil || d.board == nil {
		return
	}
	if d.nav.Panning() || ebiten.IsKeyPressed(ebiten.KeySpace) {
		d.releaseDrags(w, false)
		return
	}

	cx, cy := ebiten.CursorPosition()
	world := viewport.ScreenToWorld(geom.Vec{X: float64(cx), Y: float64(cy)}, d.state.Viewport())

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		d.press(w, world)
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		d.moveDrags(w, world)
	default:
		d.releaseDrags(w, true)
		d.hover(world)
	}

	d.keys()
}

func (d *DragSystem) press(w *ecs.World, world geom.Vec) {
	e, ok := d.board.CardAt(world)
	if !ok {
		d.board.ClearSelection()
		d.connectArmed = false
		return
	}

	if d.connectArmed {
		d.connectArmed = false
		if sel, selOK := d.board.Selected(); selOK && sel != e {
			d.connect(sel, e)
			return
		}
	}

	d.board.Select(e)
	place, ok := ecs.Get(w, e, component.PlacementComponent.Kind())
	if !ok {
		return
	}
	_ = ecs.Add(w, e, component.DragComponent.Kind(), &component.Drag{
		Offset: world.Sub(geom.Vec{X: place.Bounds.MinX, Y: place.Bounds.MinY}),
		Start:  place.Bounds,
	})
}

func (d *DragSystem) moveDrags(w *ecs.World, world geom.Vec) {
	ecs.ForEach(w, component.DragComponent.Kind(), func(e ecs.Entity, drag *component.Drag) {
		place, ok := ecs.Get(w, e, component.PlacementComponent.Kind())
		if !ok {
			return
		}
		min := world.Sub(drag.Offset)
		bounds := geom.Rect{
			MinX: min.X,
			MinY: min.Y,
			MaxX: min.X + place.Bounds.Width(),
			MaxY: min.Y + place.Bounds.Height(),
		}
		if err := d.board.Move(e, bounds); err != nil {
			d.log.Warn().Err(err).Msg("card drag move rejected")
		}
	})
}

// releaseDrags ends all in-progress drags. When commit is set and the
// card actually moved, the memoizer's persist callback fires with the
// final bounds.
func (d *DragSystem) releaseDrags(w *ecs.World, commit bool) {
	ecs.ForEach(w, component.DragComponent.Kind(), func(e ecs.Entity, drag *component.Drag) {
		start := drag.Start
		ecs.Remove(w, e, component.DragComponent.Kind())
		if !commit {
			return
		}
		place, ok := ecs.Get(w, e, component.PlacementComponent.Kind())
		if !ok || place.Bounds == start {
			return
		}
		id, ok := d.board.CardID(e)
		if !ok {
			return
		}
		if fn := d.memo.DragEnd(); fn != nil {
			fn(id, place.Bounds)
		}
	})
}

func (d *DragSystem) hover(world geom.Vec) {
	e, ok := d.board.CardAt(world)
	if !ok {
		d.memo.Hover(0)
		return
	}
	d.memo.Hover(uint64(e))
}

func (d *DragSystem) connect(from, to ecs.Entity) {
	fromID, ok := d.board.CardID(from)
	if !ok {
		return
	}
	toID, ok := d.board.CardID(to)
	if !ok {
		return
	}
	edge, err := d.board.Connect(fromID, toID)
	if err != nil {
		d.log.Warn().Err(err).Msg("connector rejected")
		return
	}
	d.board.MarkDirty(edge)
}

func (d *DragSystem) keys() {
	sel, ok := d.board.Selected()
	if !ok {
		d.connectArmed = false
		return
	}
	// Ctrl chords belong to the app shortcuts, not to card editing.
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta) {
		return
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		if err := d.board.Remove(sel); err != nil {
			d.log.Warn().Err(err).Msg("card delete rejected")
		}
		d.connectArmed = false
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		d.connectArmed = true
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		if _, err := d.board.TogglePin(sel); err != nil {
			d.log.Warn().Err(err).Msg("pin toggle rejected")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		d.connectArmed = false
	}
}

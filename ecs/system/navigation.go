// Package system holds the per-tick systems that connect input, the
// viewport, the card board, the store, and the screen. Order matters;
// the game registers them on the scheduler in the sequence Update
// expects: navigation, drag, culling, streaming, script, autosave,
// import, render.
package system

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/viewport"
)

// keyPanStep is the screen-space nudge per tick while an arrow key is
// held.
const keyPanStep = 16.0

// tickDt matches ebiten's fixed 60 updates per second.
const tickDt = time.Second / 60

// NavigationSystem translates raw ebiten input into navigator gestures:
// wheel zoom anchored at the cursor, middle-button (or space plus left
// button) pan drags, arrow-key panning, and +/-/0/Home shortcuts. It
// also advances momentum and animations by one tick.
type NavigationSystem struct {
	state *viewport.State
	nav   *viewport.Navigator
	board *board.Board

	panning bool
}

func NewNavigationSystem(state *viewport.State, nav *viewport.Navigator, b *board.Board) *NavigationSystem {
	return &NavigationSystem{state: state, nav: nav, board: b}
}

// Panning reports whether a pan drag is in progress, so the card drag
// system can stay out of the way.
func (n *NavigationSystem) Panning() bool {
	return n != nil && n.panning
}

func (n *NavigationSystem) Update(_ *ecs.World) {
	if n == nil || n.nav == nil {
		return
	}

	cx, cy := ebiten.CursorPosition()
	cursor := geom.Vec{X: float64(cx), Y: float64(cy)}

	if _, wy := ebiten.Wheel(); wy != 0 {
		n.nav.Wheel(wy, cursor)
	}

	panHeld := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) ||
		(ebiten.IsKeyPressed(ebiten.KeySpace) && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
	switch {
	case panHeld && !n.panning:
		n.panning = true
		n.nav.DragStart(cursor)
	case panHeld:
		n.nav.DragMove(cursor)
	case n.panning:
		n.panning = false
		n.nav.DragEnd()
	}

	// Arrow keys move the view, so the pan delta runs opposite the
	// arrow direction.
	var pan geom.Vec
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		pan.X += keyPanStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		pan.X -= keyPanStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		pan.Y += keyPanStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		pan.Y -= keyPanStep
	}
	if pan != (geom.Vec{}) {
		n.nav.KeyPan(pan)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		n.nav.KeyZoom(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		n.nav.KeyZoom(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit0) || inpututil.IsKeyJustPressed(ebiten.KeyKP0) {
		n.nav.ZoomTo(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyHome) {
		n.home()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		n.nav.StopAllAnimations()
	}

	n.nav.Tick(tickDt)
}

// home flies to the middle of the board's content, or back to the
// origin when the board is empty.
func (n *NavigationSystem) home() {
	if n.board != nil {
		if content, ok := n.board.ContentBounds(); ok {
			n.nav.PanTo(content.Center())
			return
		}
	}
	n.nav.StopAllAnimations()
	n.state.Reset()
}

package system

import (
	"bytes"
	"context"
	"image"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/render"
	"github.com/milk9111/pinboard/store"
	"github.com/milk9111/pinboard/viewport"
)

const (
	colorCanvas    = 0xf2f0ebff
	colorConnector = 0x8a857890
	colorNoImage   = 0xd0ccc4ff

	// faceHeight is basicfont.Face7x13's natural line height; text ops
	// scale relative to it.
	faceHeight = 13.0
	// minTextPx skips text that would land smaller than this on screen.
	minTextPx = 5.0
)

// RenderSystem draws the culled card set. Display lists come from the
// memoizer, so an unchanged card costs a cache hit and a handful of
// draw calls; world-to-screen mapping happens here, keeping the lists
// zoom-independent.
type RenderSystem struct {
	board *board.Board
	cull  *CullingSystem
	memo  *render.Memoizer
	db    *store.Store
	log   zerolog.Logger

	face    ebtext.Face
	images  map[string]*ebiten.Image
	missing map[string]bool
}

func NewRenderSystem(b *board.Board, cull *CullingSystem, memo *render.Memoizer, db *store.Store, log zerolog.Logger) *RenderSystem {
	return &RenderSystem{
		board:   b,
		cull:    cull,
		memo:    memo,
		db:      db,
		log:     log,
		face:    ebtext.NewGoXFace(basicfont.Face7x13),
		images:  make(map[string]*ebiten.Image),
		missing: make(map[string]bool),
	}
}

// Update is a no-op; all the work happens in Draw.
func (r *RenderSystem) Update(_ *ecs.World) {}

func (r *RenderSystem) Draw(w *ecs.World, screen *ebiten.Image, view viewport.Viewport) {
	if r == nil || screen == nil {
		return
	}
	screen.Fill(render.RGBA(colorCanvas))

	tier := r.cull.Tier()
	if tier > viewport.TierLow {
		r.drawConnectors(w, screen, view)
	}

	for _, snap := range r.board.Snapshots(r.cull.Result().Entries, tier) {
		list := r.memo.Render(snap)
		if list == nil {
			continue
		}
		r.drawList(screen, list, view)
	}
}

func (r *RenderSystem) drawConnectors(w *ecs.World, screen *ebiten.Image, view viewport.Viewport) {
	width := float32(geom.Clamp(2*view.Zoom, 1, 3))
	clr := render.RGBA(colorConnector)

	ecs.ForEach(w, component.ConnectorComponent.Kind(), func(_ ecs.Entity, c *component.Connector) {
		from, ok := r.endpoint(w, c.From)
		if !ok {
			return
		}
		to, ok := r.endpoint(w, c.To)
		if !ok {
			return
		}
		a := viewport.WorldToScreen(from, view)
		b := viewport.WorldToScreen(to, view)
		vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), width, clr, true)
	})
}

func (r *RenderSystem) endpoint(w *ecs.World, id uuid.UUID) (geom.Vec, bool) {
	e, ok := r.board.EntityByID(id)
	if !ok {
		return geom.Vec{}, false
	}
	place, ok := ecs.Get(w, e, component.PlacementComponent.Kind())
	if !ok {
		return geom.Vec{}, false
	}
	return place.Bounds.Center(), true
}

func (r *RenderSystem) drawList(screen *ebiten.Image, list *render.DisplayList, view viewport.Viewport) {
	for _, op := range list.Ops {
		min := viewport.WorldToScreen(geom.Vec{X: op.Rect.MinX, Y: op.Rect.MinY}, view)
		w := op.Rect.Width() * view.Zoom
		h := op.Rect.Height() * view.Zoom

		switch op.Kind {
		case render.OpFill:
			vector.FillRect(screen, float32(min.X), float32(min.Y), float32(w), float32(h), render.RGBA(op.Color), false)
		case render.OpStroke:
			sw := float32(geom.Clamp(op.Width*view.Zoom, 1, 4))
			vector.StrokeRect(screen, float32(min.X), float32(min.Y), float32(w), float32(h), sw, render.RGBA(op.Color), false)
		case render.OpLine:
			to := viewport.WorldToScreen(geom.Vec{X: op.Rect.MaxX, Y: op.Rect.MaxY}, view)
			lw := float32(geom.Clamp(op.Width*view.Zoom, 1, 3))
			vector.StrokeLine(screen, float32(min.X), float32(min.Y), float32(to.X), float32(to.Y), lw, render.RGBA(op.Color), true)
		case render.OpText:
			r.drawText(screen, op, min, w, h, view.Zoom)
		case render.OpImage:
			r.drawImage(screen, op, min, w, h)
		}
	}
}

func (r *RenderSystem) drawText(screen *ebiten.Image, op render.Op, min geom.Vec, w, h, zoom float64) {
	px := op.Em * zoom
	if px < minTextPx || w < 1 || h < 1 {
		return
	}

	clip := image.Rect(int(min.X), int(min.Y), int(min.X+w)+1, int(min.Y+h)+1)
	target, ok := screen.SubImage(clip).(*ebiten.Image)
	if !ok {
		return
	}

	topts := &ebtext.DrawOptions{}
	topts.GeoM.Scale(px/faceHeight, px/faceHeight)
	topts.GeoM.Translate(min.X, min.Y)
	topts.ColorScale.ScaleWithColor(render.RGBA(op.Color))
	topts.LineSpacing = faceHeight * 1.3
	ebtext.Draw(target, op.Text, r.face, topts)
}

func (r *RenderSystem) drawImage(screen *ebiten.Image, op render.Op, min geom.Vec, w, h float64) {
	if w < 1 || h < 1 {
		return
	}
	img := r.image(op.Ref)
	if img == nil {
		vector.FillRect(screen, float32(min.X), float32(min.Y), float32(w), float32(h), render.RGBA(colorNoImage), false)
		vector.StrokeLine(screen, float32(min.X), float32(min.Y), float32(min.X+w), float32(min.Y+h), 1, render.RGBA(colorConnector), true)
		vector.StrokeLine(screen, float32(min.X+w), float32(min.Y), float32(min.X), float32(min.Y+h), 1, render.RGBA(colorConnector), true)
		return
	}

	bounds := img.Bounds()
	iop := &ebiten.DrawImageOptions{}
	iop.Filter = ebiten.FilterLinear
	iop.GeoM.Scale(w/float64(bounds.Dx()), h/float64(bounds.Dy()))
	iop.GeoM.Translate(min.X, min.Y)
	screen.DrawImage(img, iop)
}

// image returns the decoded blob for key, loading it on first use. A
// key that fails once is not retried.
func (r *RenderSystem) image(key string) *ebiten.Image {
	if key == "" {
		return nil
	}
	if img, ok := r.images[key]; ok {
		return img
	}
	if r.missing[key] {
		return nil
	}

	data, err := r.db.GetBlob(context.Background(), key)
	if err != nil {
		r.missing[key] = true
		r.log.Warn().Err(err).Str("key", key).Msg("image blob missing")
		return nil
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		r.missing[key] = true
		r.log.Warn().Err(err).Str("key", key).Msg("image blob undecodable")
		return nil
	}
	img := ebiten.NewImageFromImage(decoded)
	r.images[key] = img
	return img
}

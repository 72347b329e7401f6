// Package export rasterizes board display lists into PNG images, for
// sharing a board region without the app running.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/render"
)

// maxDim caps the output bitmap so a mistyped region cannot allocate
// gigabytes.
const maxDim = 8192

var (
	ErrEmptyRegion = errors.New("export: empty region")
	ErrTooLarge    = errors.New("export: image too large")
)

// Line is a straight world-space segment, used for connectors.
type Line struct {
	From  geom.Vec
	To    geom.Vec
	Color uint32
	Width float64
}

// Options tune the rasterization.
type Options struct {
	Scale      float64 // pixels per world unit, 1 when zero
	Padding    float64 // world units added around the region
	Background uint32  // 0xRRGGBBAA, opaque white when zero
	Images     func(key string) (image.Image, bool)
}

var fonts struct {
	once sync.Once
	ttf  *truetype.Font
	err  error

	mu    sync.Mutex
	faces map[float64]font.Face
}

func fontFace(size float64) (font.Face, error) {
	fonts.once.Do(func() {
		fonts.ttf, fonts.err = truetype.Parse(gomono.TTF)
		fonts.faces = map[float64]font.Face{}
	})
	if fonts.err != nil {
		return nil, fmt.Errorf("export: parse font: %w", fonts.err)
	}
	fonts.mu.Lock()
	defer fonts.mu.Unlock()
	if face, ok := fonts.faces[size]; ok {
		return face, nil
	}
	face := truetype.NewFace(fonts.ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	fonts.faces[size] = face
	return face, nil
}

// Render rasterizes the lists and lines covering region into an image.
// Lists draw in slice order, so callers pass them bottom-most first.
func Render(lists []render.DisplayList, lines []Line, region geom.Rect, opts Options) (image.Image, error) {
	dc, err := rasterize(lists, lines, region, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// SavePNG renders the region straight to a PNG file.
func SavePNG(path string, lists []render.DisplayList, lines []Line, region geom.Rect, opts Options) error {
	dc, err := rasterize(lists, lines, region, opts)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

func rasterize(lists []render.DisplayList, lines []Line, region geom.Rect, opts Options) (*gg.Context, error) {
	if !region.Valid() {
		return nil, ErrEmptyRegion
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	if opts.Padding > 0 {
		region = region.Expand(opts.Padding)
	}

	w := int(region.Width() * scale)
	h := int(region.Height() * scale)
	if w < 1 || h < 1 {
		return nil, ErrEmptyRegion
	}
	if w > maxDim || h > maxDim {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrTooLarge, w, h, maxDim)
	}

	dc := gg.NewContext(w, h)
	bg := opts.Background
	if bg == 0 {
		bg = 0xf2f0ebff
	}
	dc.SetColor(render.RGBA(bg))
	dc.Clear()

	// World-to-pixel mapping for everything that follows.
	toX := func(x float64) float64 { return (x - region.MinX) * scale }
	toY := func(y float64) float64 { return (y - region.MinY) * scale }

	for _, line := range lines {
		dc.SetColor(render.RGBA(line.Color))
		width := line.Width * scale
		if width <= 0 {
			width = 1
		}
		dc.SetLineWidth(width)
		dc.DrawLine(toX(line.From.X), toY(line.From.Y), toX(line.To.X), toY(line.To.Y))
		dc.Stroke()
	}

	for _, list := range lists {
		for _, op := range list.Ops {
			x := toX(op.Rect.MinX)
			y := toY(op.Rect.MinY)
			rw := op.Rect.Width() * scale
			rh := op.Rect.Height() * scale

			switch op.Kind {
			case render.OpFill:
				dc.SetColor(render.RGBA(op.Color))
				dc.DrawRectangle(x, y, rw, rh)
				dc.Fill()

			case render.OpStroke:
				dc.SetColor(render.RGBA(op.Color))
				dc.SetLineWidth(op.Width * scale)
				dc.DrawRectangle(x, y, rw, rh)
				dc.Stroke()

			case render.OpLine:
				dc.SetColor(render.RGBA(op.Color))
				width := op.Width * scale
				if width <= 0 {
					width = 1
				}
				dc.SetLineWidth(width)
				dc.DrawLine(x, y, toX(op.Rect.MaxX), toY(op.Rect.MaxY))
				dc.Stroke()

			case render.OpText:
				if err := drawText(dc, op, x, y, scale); err != nil {
					return nil, err
				}

			case render.OpImage:
				drawImage(dc, opts, op, x, y, rw, rh)
			}
		}
	}

	return dc, nil
}

func drawText(dc *gg.Context, op render.Op, x, y, scale float64) error {
	face, err := fontFace(op.Em * scale)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(render.RGBA(op.Color))
	lineHeight := op.Em * scale
	for i, line := range strings.Split(op.Text, "\n") {
		dc.DrawString(line, x, y+lineHeight+float64(i)*lineHeight*1.2)
	}
	return nil
}

// drawImage scales the blob into the op rect, or draws a crossed
// placeholder when the blob is unavailable.
func drawImage(dc *gg.Context, opts Options, op render.Op, x, y, w, h float64) {
	var im image.Image
	if opts.Images != nil {
		if found, ok := opts.Images(op.Ref); ok {
			im = found
		}
	}
	if im == nil {
		dc.SetColor(color.RGBA{R: 0xb0, G: 0xb0, B: 0xb8, A: 0xff})
		dc.SetLineWidth(1)
		dc.DrawRectangle(x, y, w, h)
		dc.Stroke()
		dc.DrawLine(x, y, x+w, y+h)
		dc.Stroke()
		dc.DrawLine(x+w, y, x, y+h)
		dc.Stroke()
		return
	}

	b := im.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	dc.Push()
	dc.Translate(x, y)
	dc.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	dc.DrawImage(im, 0, 0)
	dc.Pop()
}

// Package render turns card state into cached display lists. It is
// deliberately free of any drawing backend: the game's draw systems
// consume the ops, so everything here tests headless.
package render

import (
	"fmt"
	"strings"

	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/viewport"
)

// CardSnapshot is the rendering-relevant projection of one card. It is
// a comparable value: two snapshots render identically exactly when
// they are equal, which is what the memoizer keys on.
type CardSnapshot struct {
	ID         uint64
	Kind       component.CardKind
	Title      string
	Body       string
	Color      uint32
	ImageKey   string
	ContentRev uint64

	Bounds geom.Rect
	Z      int

	Selected bool
	Hovering bool
	Dragging bool

	ScriptOutput string
	ScriptErr    string

	Detail viewport.Tier
}

// OpKind tags one drawing instruction.
type OpKind int

const (
	OpFill OpKind = iota
	OpStroke
	OpText
	OpImage
	OpLine
)

// Op is a single backend-agnostic drawing instruction in world space.
type Op struct {
	Kind  OpKind
	Rect  geom.Rect
	Color uint32
	Text  string
	Em    float64 // text size in world units
	Ref   string  // image blob key for OpImage
	Width float64 // stroke or line width
}

// DisplayList is the cached draw program for one card. Consumers must
// treat it as immutable; the memoizer hands the same list out until the
// snapshot changes.
type DisplayList struct {
	ID  uint64
	Ops []Op
}

const (
	colorShadow    = 0x00000040
	colorBorder    = 0x3c3c46ff
	colorSelection = 0xffb347ff
	colorHover     = 0x8888a0ff
	colorTitleText = 0x1a1a22ff
	colorBodyText  = 0x2e2e38ff
	colorErrText   = 0xb03030ff
	colorCodeBg    = 0x23252eff
	colorCodeText  = 0xd8dee9ff
	colorLinkText  = 0x2a6db5ff
)

const (
	titleEm = 16.0
	bodyEm  = 12.0
	pad     = 8.0
)

// build compiles a snapshot into its display list. Detail tiers drop
// work from the bottom up: low is a flat quad, medium adds the title,
// high adds everything else.
func build(s CardSnapshot) *DisplayList {
	list := &DisplayList{ID: s.ID}

	if s.Detail >= viewport.TierHigh && !s.Dragging {
		list.Ops = append(list.Ops, Op{
			Kind:  OpFill,
			Rect:  s.Bounds.Translate(geom.Vec{X: 3, Y: 3}),
			Color: colorShadow,
		})
	}

	fill := s.Color
	if s.Kind == component.CardCode {
		fill = colorCodeBg
	}
	list.Ops = append(list.Ops, Op{Kind: OpFill, Rect: s.Bounds, Color: fill})

	if s.Detail == viewport.TierLow {
		finishChrome(list, s)
		return list
	}

	inner := s.Bounds.Expand(-pad)
	if inner.Valid() && s.Title != "" {
		list.Ops = append(list.Ops, Op{
			Kind:  OpText,
			Rect:  inner,
			Color: titleColor(s),
			Text:  s.Title,
			Em:    titleEm,
		})
	}

	if s.Detail >= viewport.TierHigh {
		buildBody(list, s, inner)
	}

	finishChrome(list, s)
	return list
}

func titleColor(s CardSnapshot) uint32 {
	if s.Kind == component.CardCode {
		return colorCodeText
	}
	return colorTitleText
}

func buildBody(list *DisplayList, s CardSnapshot, inner geom.Rect) {
	if !inner.Valid() {
		return
	}
	body := inner
	body.MinY += titleEm + pad/2

	switch s.Kind {
	case component.CardImage:
		if s.ImageKey != "" {
			list.Ops = append(list.Ops, Op{Kind: OpImage, Rect: body, Ref: s.ImageKey})
		}
	case component.CardLink:
		list.Ops = append(list.Ops, Op{
			Kind: OpText, Rect: body, Color: colorLinkText, Text: s.Body, Em: bodyEm,
		})
		list.Ops = append(list.Ops, Op{
			Kind:  OpLine,
			Rect:  geom.Rect{MinX: body.MinX, MinY: body.MinY + bodyEm + 2, MaxX: body.MaxX, MaxY: body.MinY + bodyEm + 2},
			Color: colorLinkText,
			Width: 1,
		})
	case component.CardCode:
		list.Ops = append(list.Ops, Op{
			Kind: OpText, Rect: body, Color: colorCodeText, Text: s.Body, Em: bodyEm,
		})
		if s.ScriptErr != "" {
			list.Ops = append(list.Ops, Op{
				Kind: OpText, Rect: resultRow(body), Color: colorErrText,
				Text: fmt.Sprintf("! %s", s.ScriptErr), Em: bodyEm,
			})
		} else if s.ScriptOutput != "" {
			list.Ops = append(list.Ops, Op{
				Kind: OpText, Rect: resultRow(body), Color: colorCodeText,
				Text: fmt.Sprintf("=> %s", strings.TrimRight(s.ScriptOutput, "\n")), Em: bodyEm,
			})
		}
	default:
		if s.Body != "" {
			list.Ops = append(list.Ops, Op{
				Kind: OpText, Rect: body, Color: colorBodyText, Text: s.Body, Em: bodyEm,
			})
		}
	}
}

// resultRow pins evaluation output to the card's bottom edge so it
// never collides with the source text above it.
func resultRow(body geom.Rect) geom.Rect {
	return geom.Rect{MinX: body.MinX, MinY: body.MaxY - bodyEm, MaxX: body.MaxX, MaxY: body.MaxY}
}

func finishChrome(list *DisplayList, s CardSnapshot) {
	switch {
	case s.Selected:
		list.Ops = append(list.Ops, Op{Kind: OpStroke, Rect: s.Bounds, Color: colorSelection, Width: 2})
	case s.Hovering && s.Detail > viewport.TierLow:
		list.Ops = append(list.Ops, Op{Kind: OpStroke, Rect: s.Bounds, Color: colorHover, Width: 1})
	case s.Detail > viewport.TierLow:
		list.Ops = append(list.Ops, Op{Kind: OpStroke, Rect: s.Bounds, Color: colorBorder, Width: 1})
	}
}

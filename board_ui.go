package main

import (
	"fmt"
	"image/color"

	"golang.org/x/image/font/basicfont"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
)

// toolbar is the strip along the top edge: board actions on the left,
// live zoom and card-count readouts after them. It uses colored
// nine-slices and the built-in basic font, so no theme assets load.
type toolbar struct {
	ui     *ebitenui.UI
	zoom   *widget.Text
	status *widget.Text
}

func newToolbar(g *Game) *toolbar {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x2b, G: 0x29, B: 0x26, A: 230})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x4a, G: 0x47, B: 0x42, A: 255})

	goFace := ebtext.NewGoXFace(basicfont.Face7x13)
	var face ebtext.Face = goFace

	btnTextColor := &widget.ButtonTextColor{Idle: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}}
	labelColor := color.NRGBA{R: 0xe8, G: 0xe4, B: 0xdc, A: 0xff}

	t := &toolbar{}

	button := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnImg}),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}
	label := func(text string) *widget.Text {
		return widget.NewText(
			widget.TextOpts.Text(text, &face, labelColor),
			widget.TextOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})),
		)
	}

	t.zoom = label("100%")
	t.status = label("0 cards")

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
			widget.RowLayoutOpts.Spacing(8),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 6, Bottom: 6, Left: 10, Right: 10}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionStart,
				VerticalPosition:   widget.AnchorLayoutPositionStart,
			}),
		),
	)
	panel.AddChild(button("Home", g.goHome))
	panel.AddChild(button("-", func() { g.nav.KeyZoom(-1) }))
	panel.AddChild(t.zoom)
	panel.AddChild(button("+", func() { g.nav.KeyZoom(1) }))
	panel.AddChild(button("Note", g.spawnNote))
	panel.AddChild(button("Export", g.exportVisible))
	panel.AddChild(t.status)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	t.ui = &ebitenui.UI{Container: root}
	return t
}

func (t *toolbar) Update() {
	t.ui.Update()
}

func (t *toolbar) Draw(screen *ebiten.Image) {
	t.ui.Draw(screen)
}

// Refresh rewrites the live readouts from the current frame's state.
func (t *toolbar) Refresh(g *Game) {
	t.zoom.Label = fmt.Sprintf("%.0f%%", g.state.Viewport().Zoom*100)
	res := g.culling.Result()
	t.status.Label = fmt.Sprintf("%d/%d cards", res.VisibleEntities, res.TotalEntities)
}

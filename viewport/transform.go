package viewport

import "github.com/milk9111/pinboard/geom"

// ScreenToWorld maps a screen-space point into world space under v.
// Inverse of WorldToScreen; v.Zoom is always positive by invariant.
func ScreenToWorld(p geom.Vec, v Viewport) geom.Vec {
	return p.Sub(v.Position).Div(v.Zoom)
}

// WorldToScreen maps a world-space point onto the screen under v.
func WorldToScreen(p geom.Vec, v Viewport) geom.Vec {
	return p.Scale(v.Zoom).Add(v.Position)
}

// VisibleWorldRect returns the world-space rectangle covered by a screen of
// the given pixel size under v.
func VisibleWorldRect(v Viewport, screenW, screenH float64) geom.Rect {
	tl := ScreenToWorld(geom.Vec{}, v)
	br := ScreenToWorld(geom.Vec{X: screenW, Y: screenH}, v)
	return geom.Rect{MinX: tl.X, MinY: tl.Y, MaxX: br.X, MaxY: br.Y}
}

package main

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// drawHUD prints the diagnostics overlay below the toolbar. Toggled
// with F1.
func (g *Game) drawHUD(screen *ebiten.Image) {
	res := g.culling.Result()
	snap := g.perf.Snapshot()
	vp := g.state.Viewport()
	hits, misses := g.memo.Stats()

	var sb strings.Builder
	fmt.Fprintf(&sb, "fps %.1f  frame %.2fms\n", ebiten.ActualFPS(), float64(snap.FrameTime.Microseconds())/1000)
	fmt.Fprintf(&sb, "cards %d  visible %d  memo %d/%d\n", res.TotalEntities, res.VisibleEntities, hits, hits+misses)
	fmt.Fprintf(&sb, "zoom %.2f  pos %.0f,%.0f  nav %s  lod %s\n", vp.Zoom, vp.Position.X, vp.Position.Y, g.nav.Mode(), g.culling.Tier())
	for _, w := range snap.Warnings {
		sb.WriteString(w)
		sb.WriteByte('\n')
	}
	ebitenutil.DebugPrintAt(screen, sb.String(), 8, 40)
}

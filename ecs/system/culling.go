package system

import (
	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/diag"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/viewport"
)

// CullingSystem runs one visibility pass per tick and holds the result
// for the systems after it: the renderer draws Result().Entries at
// Tier(), the perf monitor hears about truncation.
type CullingSystem struct {
	board   *board.Board
	state   *viewport.State
	culler  *viewport.Culler
	perf    *viewport.PerfMonitor
	metrics *diag.Metrics

	result viewport.Result
}

func NewCullingSystem(b *board.Board, state *viewport.State, culler *viewport.Culler, perf *viewport.PerfMonitor, metrics *diag.Metrics) *CullingSystem {
	return &CullingSystem{board: b, state: state, culler: culler, perf: perf, metrics: metrics}
}

// Result returns the latest culling pass.
func (c *CullingSystem) Result() viewport.Result {
	if c == nil {
		return viewport.Result{}
	}
	return c.result
}

// Tier returns the level of detail selected for the current zoom.
func (c *CullingSystem) Tier() viewport.Tier {
	if c == nil {
		return viewport.TierHigh
	}
	return c.result.LevelOfDetail
}

func (c *CullingSystem) Update(_ *ecs.World) {
	if c == nil || c.culler == nil {
		return
	}

	vp := c.state.Viewport()
	screenW, screenH := c.state.ScreenSize()
	c.result = c.culler.Cull(c.board.CullSet(), vp, screenW, screenH)

	if c.result.Truncated > 0 {
		if c.perf != nil {
			c.perf.NoteTruncation(c.result.Truncated)
		}
		c.metrics.IncTruncation()
	}
	c.metrics.SetCards(c.result.TotalEntities, c.result.VisibleEntities)
	c.metrics.SetZoom(vp.Zoom)
}

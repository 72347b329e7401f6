// Package viewport implements the pan/zoom camera core for an infinite
// 2D canvas: coordinate transforms, zoom clamping anchored at the cursor,
// level-of-detail selection, visibility culling, bounds debouncing, and
// gesture-driven navigation. It has no dependency on any UI framework so
// the whole package is testable headless.
package viewport

import "github.com/milk9111/pinboard/geom"

// Viewport is the immutable camera value: Position is the screen-space
// translation of the world origin, Zoom the uniform scale factor.
type Viewport struct {
	Position geom.Vec
	Zoom     float64
}

// ZoomConfig bounds the zoom factor and sets the per-notch wheel step.
type ZoomConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

func DefaultZoomConfig() ZoomConfig {
	return ZoomConfig{Min: 0.25, Max: 4.0, Step: 1.05}
}

// State owns the live viewport value and enforces its invariants. All
// mutation goes through the Set* methods so zoom stays inside the
// configured range and subscribers observe every effective change.
// State is not safe for concurrent use; the game loop owns it.
type State struct {
	vp      Viewport
	zoom    ZoomConfig
	screenW float64
	screenH float64

	content   geom.Rect
	constrain bool

	subs []func(Viewport)
}

func NewState(cfg ZoomConfig) *State {
	if cfg.Min <= 0 || cfg.Max < cfg.Min {
		cfg = DefaultZoomConfig()
	}
	if cfg.Step <= 1 {
		cfg.Step = DefaultZoomConfig().Step
	}
	s := &State{zoom: cfg}
	s.vp = s.home()
	return s
}

// home is the reset viewport: origin translation, unit zoom clamped into
// the configured range.
func (s *State) home() Viewport {
	return Viewport{Zoom: geom.Clamp(1.0, s.zoom.Min, s.zoom.Max)}
}

func (s *State) Viewport() Viewport { return s.vp }

func (s *State) ZoomConfig() ZoomConfig { return s.zoom }

func (s *State) SetScreenSize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	s.screenW, s.screenH = w, h
}

func (s *State) ScreenSize() (w, h float64) { return s.screenW, s.screenH }

// SetZoom clamps z into the configured range and, when the clamped value
// differs from the current zoom, repositions the viewport so the world
// point under anchor (a screen-space point) stays under anchor. A z that
// clamps to the current zoom is a no-op: no reposition, no notification.
func (s *State) SetZoom(z float64, anchor geom.Vec) {
	clamped := geom.Clamp(z, s.zoom.Min, s.zoom.Max)
	if clamped == s.vp.Zoom {
		return
	}
	world := ScreenToWorld(anchor, s.vp)
	s.vp.Zoom = clamped
	s.vp.Position = anchor.Sub(world.Scale(clamped))
	s.applyConstraint()
	s.notify()
}

// SetPosition replaces the translation unconditionally. When a content
// constraint is active the new position is clamped so the visible window
// stays over the content rectangle.
func (s *State) SetPosition(p geom.Vec) {
	s.vp.Position = p
	s.applyConstraint()
	s.notify()
}

// Pan offsets the translation by a screen-space delta.
func (s *State) Pan(delta geom.Vec) {
	s.SetPosition(s.vp.Position.Add(delta))
}

// Reset restores the home viewport regardless of the current value.
func (s *State) Reset() {
	s.vp = s.home()
	s.applyConstraint()
	s.notify()
}

// ConstrainTo clamps all future positions so the visible window tracks
// content. Passing an invalid rectangle clears the constraint.
func (s *State) ConstrainTo(content geom.Rect) {
	if !content.Valid() {
		s.ClearConstraint()
		return
	}
	s.content = content
	s.constrain = true
	s.applyConstraint()
	s.notify()
}

func (s *State) ClearConstraint() {
	s.constrain = false
	s.content = geom.Rect{}
}

func (s *State) applyConstraint() {
	if !s.constrain || s.screenW <= 0 || s.screenH <= 0 {
		return
	}
	vis := VisibleWorldRect(s.vp, s.screenW, s.screenH)
	minX := clampAxis(vis.MinX, vis.Width(), s.content.MinX, s.content.MaxX)
	minY := clampAxis(vis.MinY, vis.Height(), s.content.MinY, s.content.MaxY)
	s.vp.Position = geom.Vec{X: -minX * s.vp.Zoom, Y: -minY * s.vp.Zoom}
}

// clampAxis keeps a window of the given extent inside [lo, hi] along one
// axis, centering it when the window is wider than the range.
func clampAxis(min, extent, lo, hi float64) float64 {
	if extent >= hi-lo {
		return (lo+hi)/2 - extent/2
	}
	return geom.Clamp(min, lo, hi-extent)
}

// VisibleBounds is the world rectangle covered by the current screen.
// Requires a screen size; returns the zero rect before one is set.
func (s *State) VisibleBounds() geom.Rect {
	if s.screenW <= 0 || s.screenH <= 0 {
		return geom.Rect{}
	}
	return VisibleWorldRect(s.vp, s.screenW, s.screenH)
}

// Subscribe registers fn to run synchronously after every effective
// viewport change. Subscribers must not mutate the State reentrantly.
func (s *State) Subscribe(fn func(Viewport)) {
	if fn == nil {
		return
	}
	s.subs = append(s.subs, fn)
}

func (s *State) notify() {
	for _, fn := range s.subs {
		fn(s.vp)
	}
}

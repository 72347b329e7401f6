package viewport

import (
	"math"
	"time"

	"github.com/milk9111/pinboard/geom"
)

// NavState names the navigator's exclusive interaction mode.
type NavState int

const (
	NavIdle NavState = iota
	NavGesture
	NavMomentum
	NavAnimating
)

func (s NavState) String() string {
	switch s {
	case NavIdle:
		return "idle"
	case NavGesture:
		return "gestureActive"
	case NavMomentum:
		return "momentumActive"
	case NavAnimating:
		return "animating"
	default:
		return "unknown"
	}
}

// NavigationConfig tunes gestures, momentum, and programmatic animation.
type NavigationConfig struct {
	EnableMomentum  bool `yaml:"enable_momentum"`
	EnableInertia   bool `yaml:"enable_inertia"`
	EnableSmoothing bool `yaml:"enable_smoothing"`

	// MomentumFriction multiplies the coast velocity once per tick.
	MomentumFriction float64 `yaml:"momentum_friction"`
	// VelocityThreshold is the speed in px/sec below which a release
	// does not coast and a coast comes to rest.
	VelocityThreshold float64 `yaml:"velocity_threshold"`
	// MaxVelocity caps the release speed in px/sec.
	MaxVelocity float64 `yaml:"max_velocity"`

	AnimationDuration time.Duration `yaml:"animation_duration"`
}

func DefaultNavigationConfig() NavigationConfig {
	return NavigationConfig{
		EnableMomentum:    true,
		EnableInertia:     true,
		EnableSmoothing:   true,
		MomentumFriction:  0.92,
		VelocityThreshold: 40,
		MaxVelocity:       4000,
		AnimationDuration: 300 * time.Millisecond,
	}
}

// velocityBlend weights the newest per-tick drag velocity against the
// running estimate so one jittery frame does not dominate the release.
const velocityBlend = 0.8

type animation struct {
	fromPos, toPos   geom.Vec
	fromZoom, toZoom float64
	zooming          bool
	elapsed          time.Duration
	duration         time.Duration
}

// Navigator turns pointer, wheel, and keyboard input into viewport
// mutations and drives momentum and programmatic animations from the
// update loop. At most one mode is active at a time: starting a gesture
// or an animation preempts whatever was running. Not safe for
// concurrent use; the game loop owns it.
type Navigator struct {
	state *State
	cfg   NavigationConfig

	mode NavState

	lastPointer geom.Vec
	frameDelta  geom.Vec
	velocity    geom.Vec

	anim animation
}

func NewNavigator(state *State, cfg NavigationConfig) *Navigator {
	if cfg.MomentumFriction <= 0 || cfg.MomentumFriction >= 1 {
		cfg.MomentumFriction = DefaultNavigationConfig().MomentumFriction
	}
	if cfg.VelocityThreshold <= 0 {
		cfg.VelocityThreshold = DefaultNavigationConfig().VelocityThreshold
	}
	if cfg.MaxVelocity <= 0 {
		cfg.MaxVelocity = DefaultNavigationConfig().MaxVelocity
	}
	if cfg.AnimationDuration <= 0 {
		cfg.AnimationDuration = DefaultNavigationConfig().AnimationDuration
	}
	return &Navigator{state: state, cfg: cfg}
}

func (n *Navigator) Mode() NavState { return n.mode }

// Wheel zooms by the configured step per notch, anchored at the cursor
// so the world point under it stays put. Positive notches zoom in.
func (n *Navigator) Wheel(notches float64, cursor geom.Vec) {
	if notches == 0 {
		return
	}
	n.StopAllAnimations()
	vp := n.state.Viewport()
	factor := math.Pow(n.state.ZoomConfig().Step, notches)
	n.state.SetZoom(vp.Zoom*factor, cursor)
}

// DragStart begins a pan gesture at the given screen point, preempting
// any animation or momentum in flight.
func (n *Navigator) DragStart(p geom.Vec) {
	n.StopAllAnimations()
	n.mode = NavGesture
	n.lastPointer = p
	n.frameDelta = geom.Vec{}
	n.velocity = geom.Vec{}
}

// DragMove pans the viewport by the pointer delta since the last move.
// Ignored outside a gesture.
func (n *Navigator) DragMove(p geom.Vec) {
	if n.mode != NavGesture {
		return
	}
	delta := p.Sub(n.lastPointer)
	n.lastPointer = p
	n.frameDelta = n.frameDelta.Add(delta)
	n.state.Pan(delta)
}

// DragEnd finishes the gesture. A fast enough release hands the tracked
// velocity to momentum; otherwise the navigator goes idle where it is.
func (n *Navigator) DragEnd() {
	if n.mode != NavGesture {
		return
	}
	n.mode = NavIdle
	if !n.cfg.EnableMomentum {
		n.velocity = geom.Vec{}
		return
	}
	speed := n.velocity.Len()
	if speed < n.cfg.VelocityThreshold {
		n.velocity = geom.Vec{}
		return
	}
	if speed > n.cfg.MaxVelocity {
		n.velocity = n.velocity.Scale(n.cfg.MaxVelocity / speed)
	}
	n.mode = NavMomentum
}

// KeyPan nudges the viewport by a screen-space delta, preempting any
// animation or momentum.
func (n *Navigator) KeyPan(delta geom.Vec) {
	n.StopAllAnimations()
	n.state.Pan(delta)
}

// KeyZoom steps the zoom by the configured factor, anchored at the
// screen center. Positive steps zoom in.
func (n *Navigator) KeyZoom(steps float64) {
	if steps == 0 {
		return
	}
	n.StopAllAnimations()
	vp := n.state.Viewport()
	factor := math.Pow(n.state.ZoomConfig().Step, steps)
	n.state.SetZoom(vp.Zoom*factor, n.screenCenter())
}

// PanTo animates the viewport so the given world point ends up at the
// screen center, preserving the current zoom.
func (n *Navigator) PanTo(world geom.Vec) {
	n.StopAllAnimations()
	vp := n.state.Viewport()
	target := n.screenCenter().Sub(world.Scale(vp.Zoom))
	if target == vp.Position {
		return
	}
	n.mode = NavAnimating
	n.anim = animation{
		fromPos:  vp.Position,
		toPos:    target,
		duration: n.cfg.AnimationDuration,
	}
}

// ZoomTo animates the zoom toward z, anchored at the screen center. A
// target that clamps to the current zoom is a no-op.
func (n *Navigator) ZoomTo(z float64) {
	n.StopAllAnimations()
	vp := n.state.Viewport()
	zc := n.state.ZoomConfig()
	target := geom.Clamp(z, zc.Min, zc.Max)
	if target == vp.Zoom {
		return
	}
	n.mode = NavAnimating
	n.anim = animation{
		fromZoom: vp.Zoom,
		toZoom:   target,
		zooming:  true,
		duration: n.cfg.AnimationDuration,
	}
}

// StopAllAnimations halts momentum and programmatic animation
// immediately, leaving the viewport wherever it is. An in-progress
// gesture is the user's hand and is not interrupted.
func (n *Navigator) StopAllAnimations() {
	if n.mode == NavGesture {
		return
	}
	n.mode = NavIdle
	n.velocity = geom.Vec{}
	n.anim = animation{}
}

// Tick advances momentum and animation by dt. Call once per update.
func (n *Navigator) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	switch n.mode {
	case NavGesture:
		inst := n.frameDelta.Div(dt.Seconds())
		n.frameDelta = geom.Vec{}
		if !n.cfg.EnableInertia {
			return
		}
		n.velocity = geom.Vec{
			X: geom.Lerp(n.velocity.X, inst.X, velocityBlend),
			Y: geom.Lerp(n.velocity.Y, inst.Y, velocityBlend),
		}
	case NavMomentum:
		n.state.Pan(n.velocity.Scale(dt.Seconds()))
		n.velocity = n.velocity.Scale(n.cfg.MomentumFriction)
		if n.velocity.Len() < n.cfg.VelocityThreshold {
			n.mode = NavIdle
			n.velocity = geom.Vec{}
		}
	case NavAnimating:
		n.anim.elapsed += dt
		t := geom.Clamp(float64(n.anim.elapsed)/float64(n.anim.duration), 0, 1)
		k := t
		if n.cfg.EnableSmoothing {
			k = geom.Smoothstep(t)
		}
		if n.anim.zooming {
			z := geom.Lerp(n.anim.fromZoom, n.anim.toZoom, k)
			n.state.SetZoom(z, n.screenCenter())
		} else {
			n.state.SetPosition(geom.Vec{
				X: geom.Lerp(n.anim.fromPos.X, n.anim.toPos.X, k),
				Y: geom.Lerp(n.anim.fromPos.Y, n.anim.toPos.Y, k),
			})
		}
		if t >= 1 {
			n.mode = NavIdle
			n.anim = animation{}
		}
	}
}

func (n *Navigator) screenCenter() geom.Vec {
	w, h := n.state.ScreenSize()
	return geom.Vec{X: w / 2, Y: h / 2}
}

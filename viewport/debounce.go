package viewport

import (
	"time"

	"github.com/milk9111/pinboard/geom"
)

// DefaultSettleDelay is how long the viewport must hold still before a
// bounds change is considered settled.
const DefaultSettleDelay = 150 * time.Millisecond

// BoundsDebouncer coalesces rapid viewport bounds changes into a single
// settled emission. Arm records the latest candidate bounds and
// (re)starts the settle window; Tick fires the callback once the window
// elapses with no further changes. Whatever bounds were last emitted
// stay in effect until the next emission, so consumers keep serving the
// previous region while the user is still moving.
//
// The debouncer is driven from the update loop rather than by a timer
// goroutine, so it is single-threaded by construction. Not safe for
// concurrent use.
type BoundsDebouncer struct {
	settle    time.Duration
	now       func() time.Time
	onSettled func(geom.Rect)

	pending  bool
	deadline time.Time
	next     geom.Rect

	last    geom.Rect
	hasLast bool
	closed  bool
}

// NewBoundsDebouncer returns a debouncer firing onSettled after bounds
// hold still for settle. A non-positive settle uses DefaultSettleDelay.
func NewBoundsDebouncer(settle time.Duration, onSettled func(geom.Rect)) *BoundsDebouncer {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &BoundsDebouncer{
		settle:    settle,
		now:       time.Now,
		onSettled: onSettled,
	}
}

// Arm schedules b as the next settled bounds and restarts the settle
// window. Arming with bounds equal to the pending candidate, or equal to
// the last emission while idle, is a no-op, so callers may arm every
// frame without postponing settlement forever. After Close, Arm does
// nothing.
func (d *BoundsDebouncer) Arm(b geom.Rect) {
	if d.closed || !b.Valid() {
		return
	}
	if d.pending && b == d.next {
		return
	}
	if !d.pending && d.hasLast && b == d.last {
		return
	}
	d.next = b
	d.pending = true
	d.deadline = d.now().Add(d.settle)
}

// Tick checks the settle deadline and emits at most one settlement.
// Call once per update.
func (d *BoundsDebouncer) Tick() {
	if d.closed || !d.pending {
		return
	}
	if d.now().Before(d.deadline) {
		return
	}
	d.pending = false
	d.last = d.next
	d.hasLast = true
	if d.onSettled != nil {
		d.onSettled(d.last)
	}
}

// Cancel drops any pending bounds without emitting. The last emitted
// bounds remain current.
func (d *BoundsDebouncer) Cancel() {
	d.pending = false
}

// Close cancels any pending emission and makes every further call a
// no-op. Closing twice is harmless.
func (d *BoundsDebouncer) Close() {
	d.pending = false
	d.closed = true
}

// Pending reports whether an emission is armed and waiting to settle.
func (d *BoundsDebouncer) Pending() bool { return d.pending }

// Current returns the most recently emitted bounds, if any.
func (d *BoundsDebouncer) Current() (geom.Rect, bool) {
	return d.last, d.hasLast
}

package viewport

import (
	"testing"
	"time"

	"github.com/milk9111/pinboard/geom"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDebouncer(t *testing.T) (*BoundsDebouncer, *fakeClock, *[]geom.Rect) {
	t.Helper()
	clock := newFakeClock()
	var emitted []geom.Rect
	d := NewBoundsDebouncer(150*time.Millisecond, func(b geom.Rect) {
		emitted = append(emitted, b)
	})
	d.now = clock.now
	return d, clock, &emitted
}

func TestDebounceSettlesAfterDelay(t *testing.T) {
	d, clock, emitted := newTestDebouncer(t)
	b := box(0, 0, 800, 600)

	d.Arm(b)
	if !d.Pending() {
		t.Fatalf("expected pending after arm")
	}

	clock.advance(149 * time.Millisecond)
	d.Tick()
	if len(*emitted) != 0 {
		t.Fatalf("emitted before settle delay elapsed")
	}

	clock.advance(1 * time.Millisecond)
	d.Tick()
	if len(*emitted) != 1 || (*emitted)[0] != b {
		t.Fatalf("expected single emission of %+v, got %+v", b, *emitted)
	}
	if d.Pending() {
		t.Fatalf("expected idle after emission")
	}

	// Further ticks stay quiet.
	clock.advance(time.Second)
	d.Tick()
	if len(*emitted) != 1 {
		t.Fatalf("expected no further emissions, got %d", len(*emitted))
	}
}

func TestDebounceRestartsOnChange(t *testing.T) {
	d, clock, emitted := newTestDebouncer(t)
	b1 := box(0, 0, 800, 600)
	b2 := box(100, 0, 800, 600)

	d.Arm(b1)
	clock.advance(100 * time.Millisecond)
	d.Tick()
	d.Arm(b2) // restarts the window

	clock.advance(100 * time.Millisecond) // 200ms after b1, 100ms after b2
	d.Tick()
	if len(*emitted) != 0 {
		t.Fatalf("emitted before restarted delay elapsed: %+v", *emitted)
	}

	clock.advance(50 * time.Millisecond)
	d.Tick()
	if len(*emitted) != 1 || (*emitted)[0] != b2 {
		t.Fatalf("expected single emission of latest bounds, got %+v", *emitted)
	}
}

func TestDebounceArmIdempotent(t *testing.T) {
	d, clock, emitted := newTestDebouncer(t)
	b := box(0, 0, 800, 600)

	// Re-arming with identical pending bounds must not push the deadline.
	d.Arm(b)
	clock.advance(100 * time.Millisecond)
	d.Arm(b)
	clock.advance(50 * time.Millisecond)
	d.Tick()
	if len(*emitted) != 1 {
		t.Fatalf("expected emission at original deadline, got %d", len(*emitted))
	}

	// Arming with the already-emitted bounds while idle is a no-op.
	d.Arm(b)
	if d.Pending() {
		t.Fatalf("re-arming emitted bounds should not go pending")
	}

	// A genuinely new rect arms again.
	d.Arm(box(1, 0, 800, 600))
	if !d.Pending() {
		t.Fatalf("expected pending for changed bounds")
	}
}

func TestDebounceCancel(t *testing.T) {
	d, clock, emitted := newTestDebouncer(t)
	d.Arm(box(0, 0, 800, 600))
	clock.advance(200 * time.Millisecond)
	d.Cancel()
	d.Tick()
	if len(*emitted) != 0 {
		t.Fatalf("cancel should drop the pending emission, got %+v", *emitted)
	}
	if _, ok := d.Current(); ok {
		t.Fatalf("nothing was emitted, current should be empty")
	}
}

func TestDebounceCloseIsFinalAndIdempotent(t *testing.T) {
	d, clock, emitted := newTestDebouncer(t)
	b := box(0, 0, 800, 600)

	d.Arm(b)
	clock.advance(200 * time.Millisecond)
	d.Tick()
	if len(*emitted) != 1 {
		t.Fatalf("expected one emission before close, got %d", len(*emitted))
	}

	d.Close()
	d.Close() // second teardown is a no-op

	d.Arm(box(5, 5, 100, 100))
	clock.advance(time.Second)
	d.Tick()
	if len(*emitted) != 1 {
		t.Fatalf("closed debouncer must not emit, got %d emissions", len(*emitted))
	}

	// The last emitted bounds stay readable so consumers keep serving
	// the previous region.
	if cur, ok := d.Current(); !ok || cur != b {
		t.Fatalf("expected last emission to stay current, got %+v ok=%v", cur, ok)
	}
}

func TestDebounceIgnoresInvalidBounds(t *testing.T) {
	d, _, _ := newTestDebouncer(t)
	d.Arm(geom.Rect{})
	if d.Pending() {
		t.Fatalf("invalid bounds should not arm the debouncer")
	}
}

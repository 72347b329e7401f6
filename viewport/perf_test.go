package viewport

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestPerfSnapshotAverages(t *testing.T) {
	m := NewPerfMonitor(4, DefaultFrameBudget)
	for _, d := range []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond} {
		m.Sample(d)
	}

	snap := m.Snapshot()
	if math.Abs(snap.CurrentFPS-50) > 1e-6 {
		t.Fatalf("expected current fps 50, got %v", snap.CurrentFPS)
	}
	if snap.FrameTime != 20*time.Millisecond {
		t.Fatalf("expected newest frame time 20ms, got %v", snap.FrameTime)
	}
	// Average of 10,10,20 is 13.333ms -> 75 fps.
	if math.Abs(snap.AverageFPS-75) > 0.1 {
		t.Fatalf("expected average fps near 75, got %v", snap.AverageFPS)
	}
}

func TestPerfWindowWraps(t *testing.T) {
	m := NewPerfMonitor(2, DefaultFrameBudget)
	m.Sample(100 * time.Millisecond)
	m.Sample(10 * time.Millisecond)
	m.Sample(10 * time.Millisecond) // overwrites the 100ms sample

	snap := m.Snapshot()
	if math.Abs(snap.AverageFPS-100) > 0.1 {
		t.Fatalf("expected old sample evicted, average fps near 100, got %v", snap.AverageFPS)
	}
}

func TestPerfWarnings(t *testing.T) {
	m := NewPerfMonitor(4, 16*time.Millisecond)
	m.Sample(40 * time.Millisecond)
	m.NoteTruncation(25)

	snap := m.Snapshot()
	if len(snap.Warnings) != 2 {
		t.Fatalf("expected budget and truncation warnings, got %v", snap.Warnings)
	}
	joined := strings.Join(snap.Warnings, "\n")
	if !strings.Contains(joined, "over") || !strings.Contains(joined, "25") {
		t.Fatalf("unexpected warning text: %v", snap.Warnings)
	}

	// Truncation warnings clear after being reported once.
	m.Sample(time.Millisecond)
	snap = m.Snapshot()
	for _, w := range snap.Warnings {
		if strings.Contains(w, "dropped") {
			t.Fatalf("truncation warning should clear after snapshot: %v", snap.Warnings)
		}
	}
}

func TestPerfEmptySnapshot(t *testing.T) {
	m := NewPerfMonitor(8, 0)
	snap := m.Snapshot()
	if snap.CurrentFPS != 0 || snap.AverageFPS != 0 || len(snap.Warnings) != 0 {
		t.Fatalf("expected zeroed snapshot, got %+v", snap)
	}
}

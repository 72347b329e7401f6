package viewport

import (
	"fmt"
	"time"
)

// DefaultFrameBudget is the per-frame time budget warnings are measured
// against, matching a 60 TPS update loop.
const DefaultFrameBudget = time.Second / 60

// PerfSnapshot is one read of the monitor's rolling window.
type PerfSnapshot struct {
	CurrentFPS float64
	AverageFPS float64
	FrameTime  time.Duration
	Warnings   []string
}

// PerfMonitor keeps a rolling window of frame times and reports when the
// update loop falls behind its budget or culling had to drop entities.
type PerfMonitor struct {
	samples []time.Duration
	idx     int
	filled  bool
	budget  time.Duration

	truncated int
}

func NewPerfMonitor(window int, budget time.Duration) *PerfMonitor {
	if window <= 0 {
		window = 120
	}
	if budget <= 0 {
		budget = DefaultFrameBudget
	}
	return &PerfMonitor{samples: make([]time.Duration, window), budget: budget}
}

// Sample records one frame's duration.
func (m *PerfMonitor) Sample(frameTime time.Duration) {
	if frameTime <= 0 {
		return
	}
	m.samples[m.idx] = frameTime
	m.idx++
	if m.idx == len(m.samples) {
		m.idx = 0
		m.filled = true
	}
}

// NoteTruncation records that a culling pass dropped entities. The count
// surfaces as a warning on the next snapshot, then clears.
func (m *PerfMonitor) NoteTruncation(dropped int) {
	if dropped > 0 {
		m.truncated = dropped
	}
}

// Snapshot summarizes the window. With no samples yet it reports zeros.
func (m *PerfMonitor) Snapshot() PerfSnapshot {
	n := m.idx
	if m.filled {
		n = len(m.samples)
	}
	var snap PerfSnapshot
	if n > 0 {
		var sum time.Duration
		for i := 0; i < n; i++ {
			sum += m.samples[i]
		}
		avg := sum / time.Duration(n)
		newest := m.samples[(m.idx+len(m.samples)-1)%len(m.samples)]
		snap.FrameTime = newest
		if newest > 0 {
			snap.CurrentFPS = float64(time.Second) / float64(newest)
		}
		if avg > 0 {
			snap.AverageFPS = float64(time.Second) / float64(avg)
		}
		if avg > m.budget {
			snap.Warnings = append(snap.Warnings,
				fmt.Sprintf("frame time %.1fms over %.1fms budget",
					float64(avg)/float64(time.Millisecond),
					float64(m.budget)/float64(time.Millisecond)))
		}
	}
	if m.truncated > 0 {
		snap.Warnings = append(snap.Warnings,
			fmt.Sprintf("culling dropped %d entities over the cap", m.truncated))
		m.truncated = 0
	}
	return snap
}

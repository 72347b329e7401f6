package diag

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes board runtime metrics that are safe to scrape via
// Prometheus.
type Metrics struct {
	registry        *prometheus.Registry
	frameTime       prometheus.Histogram
	cardsTotal      prometheus.Gauge
	cardsVisible    prometheus.Gauge
	zoom            prometheus.Gauge
	cullTruncations prometheus.Counter
	scriptRuns      *prometheus.CounterVec
	regionFetches   prometheus.Counter
	regionDuration  prometheus.Histogram
	autosaveCards   prometheus.Counter
}

// NewMetrics creates a fresh registry with the board metrics
// registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	frameTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pinboard",
		Name:      "frame_time_seconds",
		Help:      "Duration of a single update/draw frame",
		Buckets:   []float64{0.002, 0.004, 0.008, 0.0167, 0.033, 0.066, 0.1},
	})

	cardsTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pinboard",
		Name:      "cards_total",
		Help:      "Cards currently loaded on the board",
	})

	cardsVisible := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pinboard",
		Name:      "cards_visible",
		Help:      "Cards that survived culling this frame",
	})

	zoom := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pinboard",
		Name:      "zoom_factor",
		Help:      "Current viewport zoom factor",
	})

	cullTruncations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pinboard",
		Name:      "cull_truncations_total",
		Help:      "Frames where the visible set was cut at the entity cap",
	})

	scriptRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pinboard",
		Name:      "script_runs_total",
		Help:      "Code card evaluations by result",
	}, []string{"result"})

	regionFetches := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pinboard",
		Name:      "region_fetches_total",
		Help:      "Settled viewport regions streamed from the store",
	})

	regionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pinboard",
		Name:      "region_fetch_duration_seconds",
		Help:      "Duration of store region queries",
		Buckets:   prometheus.DefBuckets,
	})

	autosaveCards := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pinboard",
		Name:      "autosave_cards_total",
		Help:      "Card rows flushed by the autosave sweep",
	})

	registry.MustRegister(
		frameTime,
		cardsTotal,
		cardsVisible,
		zoom,
		cullTruncations,
		scriptRuns,
		regionFetches,
		regionDuration,
		autosaveCards,
	)

	return &Metrics{
		registry:        registry,
		frameTime:       frameTime,
		cardsTotal:      cardsTotal,
		cardsVisible:    cardsVisible,
		zoom:            zoom,
		cullTruncations: cullTruncations,
		scriptRuns:      scriptRuns,
		regionFetches:   regionFetches,
		regionDuration:  regionDuration,
		autosaveCards:   autosaveCards,
	}
}

// ObserveFrame records one frame duration.
func (m *Metrics) ObserveFrame(d time.Duration) {
	if m == nil {
		return
	}
	m.frameTime.Observe(d.Seconds())
}

// SetCards records the loaded and visible card counts.
func (m *Metrics) SetCards(total, visible int) {
	if m == nil {
		return
	}
	m.cardsTotal.Set(float64(total))
	m.cardsVisible.Set(float64(visible))
}

// SetZoom records the current zoom factor.
func (m *Metrics) SetZoom(z float64) {
	if m == nil {
		return
	}
	m.zoom.Set(z)
}

// IncTruncation counts a frame that hit the visible entity cap.
func (m *Metrics) IncTruncation() {
	if m == nil {
		return
	}
	m.cullTruncations.Inc()
}

// IncScriptRun counts one code card evaluation.
func (m *Metrics) IncScriptRun(failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "error"
	}
	m.scriptRuns.With(prometheus.Labels{"result": result}).Inc()
}

// ObserveRegionFetch records one settled region query.
func (m *Metrics) ObserveRegionFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.regionFetches.Inc()
	m.regionDuration.Observe(d.Seconds())
}

// AddAutosavedCards counts rows flushed by an autosave sweep.
func (m *Metrics) AddAutosavedCards(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.autosaveCards.Add(float64(n))
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

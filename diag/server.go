// Package diag serves the optional diagnostics endpoint: health and
// stats JSON, Prometheus metrics, and a live websocket feed pushing a
// stats snapshot once a second.
package diag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 5 * time.Second

// Stats is the snapshot published by the game loop each frame.
type Stats struct {
	FPS           float64 `json:"fps"`
	FrameTimeMS   float64 `json:"frame_time_ms"`
	Cards         int     `json:"cards"`
	VisibleCards  int     `json:"visible_cards"`
	Zoom          float64 `json:"zoom"`
	NavState      string  `json:"nav_state"`
	LevelOfDetail string  `json:"level_of_detail"`
	Truncated     bool    `json:"truncated"`
	MemoHits      uint64  `json:"memo_hits"`
	MemoMisses    uint64  `json:"memo_misses"`
}

// Server owns the diagnostics HTTP listener. The game loop publishes
// snapshots; handlers only ever read the latest one, so a stalled
// scraper cannot block a frame.
type Server struct {
	log      zerolog.Logger
	metrics  *Metrics
	upgrader websocket.Upgrader
	srv      *http.Server

	mu   sync.RWMutex
	last Stats
}

func NewServer(addr string, log zerolog.Logger, metrics *Metrics) *Server {
	s := &Server{
		log:     log,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			// Local diagnostics only; no cross-origin story needed.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.srv = &http.Server{Addr: addr, Handler: s.Router()}
	return s
}

// Publish stores the latest snapshot for handlers and the live feed.
func (s *Server) Publish(st Stats) {
	s.mu.Lock()
	s.last = st
	s.mu.Unlock()
}

func (s *Server) snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Metrics returns the instrument set the game loop feeds.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/stats", s.handleStats)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/live", s.handleLive)

	return r
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("diagnostics listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("diagnostics server stopped")
		}
	}()
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("diag request")
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(s.snapshot())
}

// handleLive upgrades to a websocket and pushes one snapshot on
// connect, then one per second until the client goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("live feed upgrade failed")
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	push := func() error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(s.snapshot())
	}

	if err := push(); err != nil {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := push(); err != nil {
				return
			}
		}
	}
}

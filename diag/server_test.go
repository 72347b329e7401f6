package diag

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return NewServer("localhost:0", zerolog.Nop(), NewMetrics())
}

func TestHealthz(t *testing.T) {
	s := testServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("expected ok, got %q", rr.Body.String())
	}
}

func TestStatsReturnsLatestSnapshot(t *testing.T) {
	s := testServer(t)
	s.Publish(Stats{FPS: 60, Cards: 12, VisibleCards: 7, Zoom: 1.5, NavState: "idle"})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got Stats
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("expected a stats body, got %v", err)
	}
	if got.Cards != 12 || got.VisibleCards != 7 || got.Zoom != 1.5 {
		t.Fatalf("expected published snapshot, got %+v", got)
	}
}

func TestMetricsEndpointExposesInstruments(t *testing.T) {
	s := testServer(t)
	m := s.Metrics()
	m.ObserveFrame(8 * time.Millisecond)
	m.SetCards(100, 40)
	m.SetZoom(2)
	m.IncTruncation()
	m.IncScriptRun(false)
	m.IncScriptRun(true)
	m.ObserveRegionFetch(3 * time.Millisecond)
	m.AddAutosavedCards(5)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"pinboard_frame_time_seconds",
		"pinboard_cards_total 100",
		"pinboard_cards_visible 40",
		"pinboard_zoom_factor 2",
		"pinboard_cull_truncations_total 1",
		`pinboard_script_runs_total{result="error"} 1`,
		`pinboard_script_runs_total{result="ok"} 1`,
		"pinboard_region_fetches_total 1",
		"pinboard_autosave_cards_total 5",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics body to contain %q", want)
		}
	}
}

func TestLiveFeedPushesSnapshotOnConnect(t *testing.T) {
	s := testServer(t)
	s.Publish(Stats{FPS: 59.9, Cards: 3, NavState: "momentumActive"})

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Stats
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("expected a snapshot frame, got %v", err)
	}
	if got.Cards != 3 || got.NavState != "momentumActive" {
		t.Fatalf("expected published snapshot, got %+v", got)
	}
}

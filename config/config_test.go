package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Zoom.Min != 0.25 || cfg.Zoom.Max != 4.0 {
		t.Fatalf("expected zoom range [0.25, 4.0], got [%v, %v]", cfg.Zoom.Min, cfg.Zoom.Max)
	}
	if cfg.Culling.BufferZone != 400 || cfg.Culling.MaxEntities != 300 {
		t.Fatalf("expected culling defaults 400/300, got %v/%v", cfg.Culling.BufferZone, cfg.Culling.MaxEntities)
	}
	if got := cfg.Stream.SettleDelay(); got != 150*time.Millisecond {
		t.Fatalf("expected 150ms settle, got %v", got)
	}
	if got := cfg.Navigation.Build().AnimationDuration; got != 300*time.Millisecond {
		t.Fatalf("expected 300ms animation, got %v", got)
	}
	if !cfg.Navigation.EnableMomentum {
		t.Fatal("expected momentum on by default")
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("expected missing file to be fine, got %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesSubset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
window:
  width: 1920
zoom:
  max: 8.0
navigation:
  enable_momentum: false
  animation_ms: 500
stream:
  settle_ms: 200
diag:
  enabled: true
  addr: "localhost:9999"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("expected write to succeed, got %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}

	if cfg.Window.Width != 1920 {
		t.Fatalf("expected width override 1920, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Fatalf("expected height to keep default 720, got %d", cfg.Window.Height)
	}
	if cfg.Zoom.Max != 8.0 || cfg.Zoom.Min != 0.25 {
		t.Fatalf("expected zoom max override with default min, got [%v, %v]", cfg.Zoom.Min, cfg.Zoom.Max)
	}
	if cfg.Navigation.EnableMomentum {
		t.Fatal("expected momentum off")
	}
	if cfg.Navigation.EnableInertia != true {
		t.Fatal("expected inertia to keep default true")
	}
	if got := cfg.Navigation.Build().AnimationDuration; got != 500*time.Millisecond {
		t.Fatalf("expected 500ms animation, got %v", got)
	}
	if cfg.Stream.SettleMS != 200 {
		t.Fatalf("expected settle override 200, got %d", cfg.Stream.SettleMS)
	}
	if !cfg.Diag.Enabled || cfg.Diag.Addr != "localhost:9999" {
		t.Fatalf("expected diag override, got %+v", cfg.Diag)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("window: [not: a: map"), 0o644); err != nil {
		t.Fatalf("expected write to succeed, got %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestNormalizeClampsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
window:
  width: -5
stream:
  settle_ms: 0
autosave_ms: -1
script:
  timeout_ms: 0
log:
  level: "chatty"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("expected write to succeed, got %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	def := Default()
	if cfg.Window.Width != def.Window.Width {
		t.Fatalf("expected width reset to %d, got %d", def.Window.Width, cfg.Window.Width)
	}
	if cfg.Stream.SettleMS != def.Stream.SettleMS {
		t.Fatalf("expected settle reset to %d, got %d", def.Stream.SettleMS, cfg.Stream.SettleMS)
	}
	if cfg.AutosaveMS != def.AutosaveMS {
		t.Fatalf("expected autosave reset to %d, got %d", def.AutosaveMS, cfg.AutosaveMS)
	}
	if cfg.Script.TimeoutMS != def.Script.TimeoutMS {
		t.Fatalf("expected script timeout reset to %d, got %d", def.Script.TimeoutMS, cfg.Script.TimeoutMS)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected log level reset to info, got %s", cfg.Log.Level)
	}
}

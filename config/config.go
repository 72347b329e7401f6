// Package config loads the application config from YAML, merging the
// file over built-in defaults so a partial file only overrides what it
// names.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/pinboard/viewport"
)

type Config struct {
	Window     Window                 `yaml:"window"`
	Zoom       viewport.ZoomConfig    `yaml:"zoom"`
	Culling    viewport.CullingConfig `yaml:"culling"`
	Navigation Navigation             `yaml:"navigation"`
	Stream     Stream                 `yaml:"stream"`
	AutosaveMS int                    `yaml:"autosave_ms"`
	Script     Script                 `yaml:"script"`
	Store      Store                  `yaml:"store"`
	Import     Import                 `yaml:"import"`
	Diag       Diag                   `yaml:"diag"`
	Log        Log                    `yaml:"log"`
}

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Navigation mirrors viewport.NavigationConfig with the duration in
// milliseconds so the YAML stays readable.
type Navigation struct {
	EnableMomentum    bool    `yaml:"enable_momentum"`
	EnableInertia     bool    `yaml:"enable_inertia"`
	EnableSmoothing   bool    `yaml:"enable_smoothing"`
	MomentumFriction  float64 `yaml:"momentum_friction"`
	VelocityThreshold float64 `yaml:"velocity_threshold"`
	MaxVelocity       float64 `yaml:"max_velocity"`
	AnimationMS       int     `yaml:"animation_ms"`
}

// Build converts the section into the runtime navigation config.
func (n Navigation) Build() viewport.NavigationConfig {
	return viewport.NavigationConfig{
		EnableMomentum:    n.EnableMomentum,
		EnableInertia:     n.EnableInertia,
		EnableSmoothing:   n.EnableSmoothing,
		MomentumFriction:  n.MomentumFriction,
		VelocityThreshold: n.VelocityThreshold,
		MaxVelocity:       n.MaxVelocity,
		AnimationDuration: time.Duration(n.AnimationMS) * time.Millisecond,
	}
}

type Stream struct {
	SettleMS int `yaml:"settle_ms"`
}

// SettleDelay returns the debounce settle window.
func (s Stream) SettleDelay() time.Duration {
	return time.Duration(s.SettleMS) * time.Millisecond
}

type Script struct {
	TimeoutMS int `yaml:"timeout_ms"`
}

// Timeout returns the per-evaluation deadline.
func (s Script) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

type Store struct {
	Path string `yaml:"path"`
}

type Import struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type Diag struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: Window{Width: 1280, Height: 720, Title: "pinboard"},
		Zoom:   viewport.DefaultZoomConfig(),
		Culling: viewport.CullingConfig{
			BufferZone:              400,
			MaxEntities:             300,
			PriorityThreshold:       0,
			EnableLevelOfDetail:     true,
			SimplificationThreshold: 0.5,
		},
		Navigation: Navigation{
			EnableMomentum:    true,
			EnableInertia:     true,
			EnableSmoothing:   true,
			MomentumFriction:  0.92,
			VelocityThreshold: 40,
			MaxVelocity:       4000,
			AnimationMS:       300,
		},
		Stream:     Stream{SettleMS: 150},
		AutosaveMS: 2000,
		Script:     Script{TimeoutMS: 100},
		Store:      Store{Path: "pinboard.db"},
		Import:     Import{Enabled: true, Dir: "drop"},
		Diag:       Diag{Enabled: false, Addr: "localhost:6060"},
		Log:        Log{Level: "info", Pretty: true},
	}
}

// Load reads path over the defaults. A missing file is not an error;
// the defaults come back unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize pulls out-of-range values back to their defaults. The
// viewport constructors re-validate their own sections.
func (c *Config) normalize() {
	def := Default()
	if c.Window.Width <= 0 {
		c.Window.Width = def.Window.Width
	}
	if c.Window.Height <= 0 {
		c.Window.Height = def.Window.Height
	}
	if c.Window.Title == "" {
		c.Window.Title = def.Window.Title
	}
	if c.Stream.SettleMS <= 0 {
		c.Stream.SettleMS = def.Stream.SettleMS
	}
	if c.AutosaveMS <= 0 {
		c.AutosaveMS = def.AutosaveMS
	}
	if c.Script.TimeoutMS <= 0 {
		c.Script.TimeoutMS = def.Script.TimeoutMS
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	if c.Import.Dir == "" {
		c.Import.Dir = def.Import.Dir
	}
	if c.Diag.Addr == "" {
		c.Diag.Addr = def.Diag.Addr
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		c.Log.Level = def.Log.Level
	}
}

// AutosaveInterval returns how often dirty cards flush to the store.
func (c Config) AutosaveInterval() time.Duration {
	return time.Duration(c.AutosaveMS) * time.Millisecond
}

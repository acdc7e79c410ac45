// Package config loads the engine configuration from a TOML file layered over
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/plus3/kiln/render"
)

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Loop     LoopConfig     `toml:"loop"`
	Batching BatchingConfig `toml:"batching"`
	Logging  LoggingConfig  `toml:"logging"`
	Scene    SceneConfig    `toml:"scene"`
	Debug    DebugConfig    `toml:"debug"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	VSync  bool   `toml:"vsync"`
}

type LoopConfig struct {
	TickRate  int     `toml:"tick_rate"`  // updates per second
	TimeScale float64 `toml:"time_scale"` // 1 is real time
	// MinFPS disables optional systems once the frame rate stays below it.
	MinFPS      int           `toml:"min_fps"`
	MinFPSAfter time.Duration `toml:"min_fps_after"`
	// SkipFailedFrames keeps the loop running when a frame fails.
	SkipFailedFrames bool `toml:"skip_failed_frames"`
}

type BatchingConfig struct {
	GrowthFactor     float64 `toml:"growth_factor"`
	InitialInstances int     `toml:"initial_instances"`
	RetainFrames     int     `toml:"retain_frames"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type SceneConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
	Seed  uint64 `toml:"seed"`
}

type DebugConfig struct {
	Overlay bool `toml:"overlay"`
}

// Load reads path and decodes it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "kiln",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Loop: LoopConfig{
			TickRate:    60,
			TimeScale:   1,
			MinFPS:      30,
			MinFPSAfter: 5 * time.Second,
		},
		Batching: BatchingConfig{
			GrowthFactor:     render.DefaultGrowthFactor,
			InitialInstances: 256,
			RetainFrames:     render.DefaultRetainFrames,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scene: SceneConfig{
			Path: "scenes/demo.yaml",
			Seed: 1,
		},
	}
}

// Validate checks values the loop and pipelines cannot start with.
func (c *Config) Validate() error {
	if g := c.Batching.GrowthFactor; !(g > 1 && g <= 2) {
		return fmt.Errorf("batching.growth_factor: %w: got %v", render.ErrInvalidGrowthFactor, g)
	}
	if c.Batching.InitialInstances < 0 {
		return fmt.Errorf("batching.initial_instances must not be negative, got %d", c.Batching.InitialInstances)
	}
	if c.Loop.TickRate <= 0 {
		return fmt.Errorf("loop.tick_rate must be positive, got %d", c.Loop.TickRate)
	}
	if c.Loop.TimeScale < 0 {
		return fmt.Errorf("loop.time_scale must not be negative, got %v", c.Loop.TimeScale)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

// TickInterval is the duration of one update at TickRate.
func (c LoopConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

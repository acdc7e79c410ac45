package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plus3/kiln/config"
	"github.com/plus3/kiln/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := config.Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, render.DefaultGrowthFactor, cfg.Batching.GrowthFactor)
	assert.Equal(t, time.Second/60, cfg.Loop.TickInterval())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiln.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[window]
title = "stress"
width = 800

[loop]
time_scale = 0.5
min_fps_after = "10s"

[batching]
growth_factor = 1.5

[logging]
level = "debug"
format = "json"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "stress", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset keys keep their default")
	assert.Equal(t, 0.5, cfg.Loop.TimeScale)
	assert.Equal(t, 10*time.Second, cfg.Loop.MinFPSAfter)
	assert.Equal(t, 60, cfg.Loop.TickRate)
	assert.Equal(t, 1.5, cfg.Batching.GrowthFactor)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"growth factor too small", "[batching]\ngrowth_factor = 1.0"},
		{"growth factor too large", "[batching]\ngrowth_factor = 3.0"},
		{"zero tick rate", "[loop]\ntick_rate = 0"},
		{"negative time scale", "[loop]\ntime_scale = -1.0"},
		{"malformed", "[window\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.toml))
			assert.Error(t, err)
		})
	}

	_, err := config.Parse([]byte("[batching]\ngrowth_factor = 0.5"))
	assert.ErrorIs(t, err, render.ErrInvalidGrowthFactor)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			logger, err := config.NewLogger(config.LoggingConfig{Level: "warn", Format: format})
			require.NoError(t, err)
			assert.False(t, logger.Core().Enabled(-1))
			assert.True(t, logger.Core().Enabled(1))
		})
	}

	logger, err := config.NewLogger(config.LoggingConfig{Level: "bogus"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(0), "unknown levels fall back to info")
}

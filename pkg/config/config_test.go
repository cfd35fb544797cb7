package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := New("")
	require.NoError(t, err)

	assert.Equal(t, ModeFixed, cfg.Mode)
	assert.Equal(t, 1264, cfg.CanvasWidth)
	assert.Equal(t, 1680, cfg.CanvasHeight)
	assert.Equal(t, 50.0, cfg.PaddingMargin)
	assert.Equal(t, 85, cfg.JPEGQuality)
	assert.Equal(t, 5, cfg.DatabaseConnectRetryCount)
	assert.Equal(t, 500*time.Millisecond, cfg.DatabaseConnectRetryDelay)
	assert.Equal(t, 3, cfg.DatabaseMaxRetries)
	assert.False(t, cfg.DatabaseDebug)
	assert.Empty(t, cfg.DatabasePath)
}

func TestNewConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := []byte("mode: crop\njpeg_quality: 70\ninput_dir: /tmp/markups\n")
	require.NoError(t, os.WriteFile(path, contents, 0644))

	cfg, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, ModeCrop, cfg.Mode)
	assert.Equal(t, 70, cfg.JPEGQuality)
	assert.Equal(t, "/tmp/markups", cfg.InputDir)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1264, cfg.CanvasWidth)
}

func TestNewConfigFileMissing(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewEnvOverrides(t *testing.T) {
	t.Setenv("MARKUP_MODE", "crop")
	t.Setenv("MARKUP_CANVAS_WIDTH", "800")
	t.Setenv("MARKUP_DATABASE_DEBUG", "true")

	cfg, err := New("")
	require.NoError(t, err)

	assert.Equal(t, ModeCrop, cfg.Mode)
	assert.Equal(t, 800, cfg.CanvasWidth)
	assert.True(t, cfg.DatabaseDebug)
}

func TestNewEnvBeatsConfigFile(t *testing.T) {
	t.Setenv("MARKUP_JPEG_QUALITY", "95")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jpeg_quality: 70\n"), 0644))

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, 95, cfg.JPEGQuality)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "unknown mode",
			mutate:  func(cfg *Config) { cfg.Mode = "tile" },
			wantErr: true,
		},
		{
			name:    "zero canvas width",
			mutate:  func(cfg *Config) { cfg.CanvasWidth = 0 },
			wantErr: true,
		},
		{
			name:    "negative padding",
			mutate:  func(cfg *Config) { cfg.PaddingMargin = -1 },
			wantErr: true,
		},
		{
			name:    "quality above 100",
			mutate:  func(cfg *Config) { cfg.JPEGQuality = 101 },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := New("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

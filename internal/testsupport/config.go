package testsupport

import (
	"path/filepath"
	"testing"

	"maestro/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Paths are already absolute, so no normalize pass is needed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.BuildDir = filepath.Join(base, "build")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.TranscodeCacheDir = filepath.Join(base, "transcode")
	cfg.Mods.Enabled = nil

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithTarget sets the target game context on the test config.
func WithTarget(target string) ConfigOption {
	return func(c *config.Config) {
		c.Game.Target = target
	}
}

// WithCacheDisabled turns the transcode cache off.
func WithCacheDisabled() ConfigOption {
	return func(c *config.Config) {
		c.TranscodeCache.Enabled = false
	}
}

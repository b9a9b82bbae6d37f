package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	BuildDir          string `toml:"build_dir"`
	LogDir            string `toml:"log_dir"`
	TranscodeCacheDir string `toml:"transcode_cache_dir"`
}

// Game selects the target context and supplies per-context base slot IDs.
type Game struct {
	Target  string           `toml:"target"`
	BaseIDs map[string]int64 `toml:"base_ids"`
}

// Mods lists the enabled mod directories in load order. The order is
// significant: it determines slot ID assignment across packages.
type Mods struct {
	Enabled []string `toml:"enabled"`
}

// Encoder contains configuration for the external audio transcoder.
type Encoder struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Parallelism    int    `toml:"parallelism"`
}

// TranscodeCache contains configuration for the content-addressed encode cache.
type TranscodeCache struct {
	Enabled bool `toml:"enabled"`
	MaxGiB  int  `toml:"max_gib"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for maestro.
//
// Configuration sections by subsystem:
//   - Paths: build, log, and transcode cache directories
//   - Game: target context and base slot IDs
//   - Mods: enabled mod directories in load order
//   - Encoder: external transcoder binary and parallelism
//   - TranscodeCache: content-addressed encode reuse
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths          Paths          `toml:"paths"`
	Game           Game           `toml:"game"`
	Mods           Mods           `toml:"mods"`
	Encoder        Encoder        `toml:"encoder"`
	TranscodeCache TranscodeCache `toml:"transcode_cache"`
	Notifications  Notifications  `toml:"notifications"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/maestro/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// EnsureDirectories creates the directories maestro writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.BuildDir, c.Paths.LogDir, c.Paths.TranscodeCacheDir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// BaseID returns the configured base slot ID for the named base-ID key.
func (c *Config) BaseID(key string) (int64, bool) {
	id, ok := c.Game.BaseIDs[key]
	return id, ok
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("maestro.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}

package config

import (
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeMods(); err != nil {
		return err
	}
	c.normalizeGame()
	c.normalizeEncoder()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.BuildDir, err = expandPath(c.Paths.BuildDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.TranscodeCacheDir, err = expandPath(c.Paths.TranscodeCacheDir); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeMods() error {
	normalized := make([]string, 0, len(c.Mods.Enabled))
	for _, dir := range c.Mods.Enabled {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return err
		}
		normalized = append(normalized, expanded)
	}
	c.Mods.Enabled = normalized
	return nil
}

func (c *Config) normalizeGame() {
	c.Game.Target = strings.ToLower(strings.TrimSpace(c.Game.Target))
	if c.Game.BaseIDs == nil {
		c.Game.BaseIDs = map[string]int64{}
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Binary = strings.TrimSpace(c.Encoder.Binary)
	if c.Encoder.Binary == "" {
		c.Encoder.Binary = defaultEncoderBinary
	}
	if c.Encoder.TimeoutSeconds <= 0 {
		c.Encoder.TimeoutSeconds = defaultEncoderTimeoutSeconds
	}
	if c.Encoder.Parallelism < 0 {
		c.Encoder.Parallelism = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGame(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateTranscodeCache(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.BuildDir == "" {
		return errors.New("paths.build_dir must be set")
	}
	return nil
}

func (c *Config) validateGame() error {
	if c.Game.Target == "" {
		return errors.New("game.target must be set")
	}
	for key, id := range c.Game.BaseIDs {
		if id < 0 {
			return fmt.Errorf("game.base_ids.%s must not be negative", key)
		}
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.Binary == "" {
		return errors.New("encoder.binary must be set")
	}
	if c.Encoder.TimeoutSeconds <= 0 {
		return errors.New("encoder.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTranscodeCache() error {
	if !c.TranscodeCache.Enabled {
		return nil
	}
	if c.Paths.TranscodeCacheDir == "" {
		return errors.New("paths.transcode_cache_dir must be set when the transcode cache is enabled")
	}
	if c.TranscodeCache.MaxGiB <= 0 {
		return errors.New("transcode_cache.max_gib must be positive")
	}
	return nil
}

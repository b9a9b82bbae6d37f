package encoder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"maestro/internal/fileutil"
	"maestro/internal/logging"
	"maestro/internal/transcodecache"
)

// Cached decorates a Codec with the content-addressed transcode cache: a hit
// copies the cached encode into place, a miss encodes and backfills the cache.
type Cached struct {
	codec  Codec
	cache  *transcodecache.Cache
	logger *slog.Logger
}

// NewCached wraps codec with the cache. A nil cache returns codec unchanged.
func NewCached(codec Codec, cache *transcodecache.Cache, logger *slog.Logger) Codec {
	if cache == nil {
		return codec
	}
	return &Cached{
		codec:  codec,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "encoder"),
	}
}

func (c *Cached) InputExtensions() []string { return c.codec.InputExtensions() }

func (c *Cached) OutputExtension() string { return c.codec.OutputExtension() }

func (c *Cached) Encode(ctx context.Context, sourcePath, destPath string) error {
	key, err := transcodecache.Key(sourcePath, c.codec.OutputExtension())
	if err != nil {
		// Hashing failure means the source is unreadable; let the real
		// codec surface the definitive error.
		return c.codec.Encode(ctx, sourcePath, destPath)
	}

	if cached, ok, err := c.cache.Lookup(ctx, key); err == nil && ok {
		if err := placeFile(cached, destPath); err != nil {
			return fmt.Errorf("restore cached transcode: %w", err)
		}
		c.logger.Debug("transcode cache hit",
			logging.String("source", sourcePath),
			logging.String("key", key),
		)
		return nil
	}

	if err := c.codec.Encode(ctx, sourcePath, destPath); err != nil {
		return err
	}

	if err := c.cache.Store(ctx, key, destPath); err != nil {
		c.logger.Warn("failed to backfill transcode cache",
			logging.String("source", sourcePath),
			logging.Error(err),
		)
	}
	return nil
}

// placeFile copies src into destPath via a temp sibling and rename, keeping
// the no-partial-file guarantee of the Codec contract.
func placeFile(src, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	tempPath := destPath + ".part"
	if err := fileutil.CopyFile(src, tempPath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}

var _ Codec = (*Cached)(nil)

package transcodecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"

	"maestro/internal/config"
	"maestro/internal/fileutil"
	"maestro/internal/logging"
)

// Cache stores encoded transcodes keyed by source content so unchanged songs
// never hit the external transcoder twice, even across a state purge. A nil
// *Cache is a valid disabled cache: every method is a no-op miss.
type Cache struct {
	db       *sql.DB
	root     string
	maxBytes int64
	logger   *slog.Logger
}

// Stats describes current cache usage.
type Stats struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
	MaxBytes   int64 `json:"max_bytes"`
}

// Open initializes the cache directory and its SQLite index. Returns nil when
// caching is disabled or misconfigured.
func Open(cfg *config.Config, logger *slog.Logger) (*Cache, error) {
	if cfg == nil || !cfg.TranscodeCache.Enabled {
		return nil, nil
	}
	root := strings.TrimSpace(cfg.Paths.TranscodeCacheDir)
	if root == "" || cfg.TranscodeCache.MaxGiB <= 0 {
		return nil, nil
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}

	dbPath := filepath.Join(root, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache index: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{
		db:       db,
		root:     root,
		maxBytes: int64(cfg.TranscodeCache.MaxGiB) * 1024 * 1024 * 1024,
		logger:   logging.NewComponentLogger(logger, "transcodecache"),
	}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close releases the index database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Key computes the cache key for a source file and target extension: the
// xxhash64 of the file content, qualified by the output extension so a format
// change never serves stale bytes.
func Key(sourcePath, outputExt string) (string, error) {
	file, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open source for hashing: %w", err)
	}
	defer file.Close()

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash source: %w", err)
	}
	return fmt.Sprintf("%016x%s", hasher.Sum64(), strings.ToLower(outputExt)), nil
}

// Lookup returns the cached file for key. A miss (or a nil cache) returns
// ok=false with no error. Index rows whose backing file has disappeared are
// dropped and reported as misses.
func (c *Cache) Lookup(ctx context.Context, key string) (path string, ok bool, err error) {
	if c == nil {
		return "", false, nil
	}
	row := c.db.QueryRowContext(ctx, `SELECT path FROM transcodes WHERE key = ?`, key)
	if err := row.Scan(&path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query cache: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		_, _ = c.db.ExecContext(ctx, `DELETE FROM transcodes WHERE key = ?`, key)
		return "", false, nil
	}
	return path, true, nil
}

// Store copies an encoded file into the cache under key and indexes it,
// then prunes oldest entries beyond the size budget.
func (c *Cache) Store(ctx context.Context, key, encodedPath string) error {
	if c == nil {
		return nil
	}
	info, err := os.Stat(encodedPath)
	if err != nil {
		return fmt.Errorf("inspect encoded file: %w", err)
	}

	dest := filepath.Join(c.root, key)
	if err := fileutil.CopyFile(encodedPath, dest); err != nil {
		return fmt.Errorf("copy into cache: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO transcodes (key, path, size_bytes, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET path = excluded.path,
            size_bytes = excluded.size_bytes, created_at = excluded.created_at`,
		key, dest, info.Size(), now,
	)
	if err != nil {
		return fmt.Errorf("index cache entry: %w", err)
	}

	if err := c.prune(ctx, key); err != nil {
		c.logger.Warn("cache prune failed", logging.Error(err))
	}
	return nil
}

// PurgeOutputs removes every cached transcode with the given output extension
// along with its index row. Used during the version-bump purge so no stale
// binary-format output survives a schema change. Individual deletion failures
// are logged and do not stop the purge.
func (c *Cache) PurgeOutputs(ctx context.Context, outputExt string) error {
	if c == nil {
		return nil
	}
	suffix := strings.ToLower(outputExt)
	rows, err := c.db.QueryContext(ctx, `SELECT key, path FROM transcodes`)
	if err != nil {
		return fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	type entry struct{ key, path string }
	var doomed []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.key, &e.path); err != nil {
			return fmt.Errorf("scan cache entry: %w", err)
		}
		if strings.HasSuffix(strings.ToLower(e.key), suffix) {
			doomed = append(doomed, e)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate cache entries: %w", err)
	}

	for _, e := range doomed {
		if err := os.Remove(e.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("failed to delete cached transcode",
				logging.String("path", e.path),
				logging.Error(err),
			)
			continue
		}
		if _, err := c.db.ExecContext(ctx, `DELETE FROM transcodes WHERE key = ?`, e.key); err != nil {
			return fmt.Errorf("drop cache row: %w", err)
		}
	}
	return nil
}

// Stats returns current cache usage.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	if c == nil {
		return Stats{}, nil
	}
	var stats Stats
	row := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(size_bytes), 0) FROM transcodes`)
	if err := row.Scan(&stats.Entries, &stats.TotalBytes); err != nil {
		return Stats{}, fmt.Errorf("query cache stats: %w", err)
	}
	stats.MaxBytes = c.maxBytes
	return stats, nil
}

// prune removes oldest entries until usage fits the budget. keepKey protects
// the entry just written.
func (c *Cache) prune(ctx context.Context, keepKey string) error {
	stats, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.TotalBytes <= c.maxBytes {
		return nil
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT key, path, size_bytes FROM transcodes ORDER BY created_at ASC`)
	if err != nil {
		return fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	type entry struct {
		key, path string
		size      int64
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.key, &e.path, &e.size); err != nil {
			return fmt.Errorf("scan cache entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate cache entries: %w", err)
	}

	excess := stats.TotalBytes - c.maxBytes
	for _, e := range entries {
		if excess <= 0 {
			break
		}
		if e.key == keepKey {
			continue
		}
		if err := os.Remove(e.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("failed to evict cache entry",
				logging.String("path", e.path),
				logging.Error(err),
			)
			continue
		}
		if _, err := c.db.ExecContext(ctx, `DELETE FROM transcodes WHERE key = ?`, e.key); err != nil {
			return fmt.Errorf("drop cache row: %w", err)
		}
		excess -= e.size
	}
	return nil
}

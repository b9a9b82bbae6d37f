// Package transcodecache keeps encoded transcodes keyed by source content so
// repeated registrations of unchanged audio skip the external transcoder.
//
// Entries live as flat files in the cache directory with a SQLite index
// (index.db) recording key, path, size, and age. The cache enforces a
// configurable size budget by evicting oldest entries first. A version-bump
// purge removes every entry carrying the encoder's output extension; entries
// for other formats are left alone.
//
// A nil *Cache is the disabled mode: lookups miss, stores are no-ops.
package transcodecache

package songs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"maestro/internal/fileutil"
	"maestro/internal/logging"
)

// SchemaVersion is the current registry schema version. Bump this whenever
// the build output format or the state layout changes; every build output and
// cached transcode is discarded and re-encoded on the next pass.
const SchemaVersion = 1

const (
	// StateFileName holds the previous run's song set, one file per context.
	StateFileName = "music.json"
	// VersionFileName holds the schema version the state was written with.
	VersionFileName = "version.txt"
)

// StatePath returns the state file location under a context build directory.
func StatePath(buildDir string) string {
	return filepath.Join(buildDir, StateFileName)
}

// VersionPath returns the version marker location under a context build directory.
func VersionPath(buildDir string) string {
	return filepath.Join(buildDir, VersionFileName)
}

// ReadVersion reads the schema version marker. ok is false when the marker is
// absent or unparseable; both cases mean "treat as new version".
func ReadVersion(buildDir string) (version int, ok bool) {
	data, err := os.ReadFile(VersionPath(buildDir))
	if err != nil {
		return 0, false
	}
	version, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return version, true
}

// WriteVersion persists the schema version marker.
func WriteVersion(buildDir string, version int) error {
	data := []byte(strconv.Itoa(version) + "\n")
	if err := fileutil.WriteFileAtomic(VersionPath(buildDir), data, 0o644); err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}
	return nil
}

// Load reads the previous run's song set. A missing file is a normal first
// run; an unreadable or corrupt file degrades to an empty set with a log
// entry, which simply forces a full re-encode.
func Load(buildDir string, logger *slog.Logger) []Song {
	log := logging.NewComponentLogger(logger, "songs")

	data, err := os.ReadFile(StatePath(buildDir))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("previous registry state unreadable, treating as first run",
				logging.String("path", StatePath(buildDir)),
				logging.Error(err),
			)
		}
		return nil
	}

	var list []Song
	if err := json.Unmarshal(data, &list); err != nil {
		log.Warn("previous registry state corrupt, treating as first run",
			logging.String("path", StatePath(buildDir)),
			logging.Error(err),
		)
		return nil
	}
	return list
}

// Save persists the song set, indented for human inspection. The write is
// atomic (temp file + rename) so a crash leaves either the old state or none.
func Save(buildDir string, list []Song) error {
	if list == nil {
		list = []Song{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry state: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(StatePath(buildDir), data, 0o644); err != nil {
		return fmt.Errorf("write registry state: %w", err)
	}
	return nil
}

// RemoveState deletes the state file and version marker. Missing files are
// not errors.
func RemoveState(buildDir string) error {
	var errs []error
	for _, path := range []string{StatePath(buildDir), VersionPath(buildDir)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

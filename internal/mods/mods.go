package mods

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"maestro/internal/logging"
)

// ManifestName is the per-mod manifest file that supplies the package ID.
const ManifestName = "mod.json"

// MusicSubdir is the package-local folder scanned for battle music sources.
var MusicSubdir = filepath.Join("battle-themes", "music")

// Package is one enabled mod that may contribute music.
type Package struct {
	ID  string
	Dir string
}

type manifest struct {
	ID string `json:"id"`
}

// Discover reads the manifest of every enabled mod directory, preserving the
// input order. Mods with a missing or malformed manifest are skipped with a
// log entry; they never abort discovery.
func Discover(dirs []string, logger *slog.Logger) []Package {
	log := logging.NewComponentLogger(logger, "mods")

	packages := make([]Package, 0, len(dirs))
	for _, dir := range dirs {
		pkg, err := readManifest(dir)
		if err != nil {
			log.Warn("skipping mod with unreadable manifest",
				logging.String("dir", dir),
				logging.Error(err),
			)
			continue
		}
		packages = append(packages, pkg)
	}
	return packages
}

func readManifest(dir string) (Package, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return Package{}, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Package{}, err
	}
	id := strings.TrimSpace(m.ID)
	if id == "" {
		return Package{}, errors.New("manifest has no id")
	}
	return Package{ID: id, Dir: dir}, nil
}

// MusicFiles lists the audio sources under the package's music folder whose
// extension matches one of exts (case-insensitive, leading dot expected).
// The walk is recursive and files come back in lexical path order, which is
// what makes slot assignment within a package deterministic. A missing music
// folder yields an empty slice and no error.
func MusicFiles(packageDir string, exts []string) ([]string, error) {
	root := filepath.Join(packageDir, MusicSubdir)
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// SongName derives the logical song name from a source file path: the base
// name without its extension.
func SongName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

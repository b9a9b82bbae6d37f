package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"maestro/internal/mods"
)

// WriteMod creates a mod directory with a valid manifest and the given music
// files (paths relative to the mod's music folder) and returns its path.
func WriteMod(t testing.TB, root, id string, musicFiles ...string) string {
	t.Helper()

	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir mod %s: %v", id, err)
	}
	manifest := []byte(`{"id": "` + id + `"}` + "\n")
	if err := os.WriteFile(filepath.Join(dir, mods.ManifestName), manifest, 0o644); err != nil {
		t.Fatalf("write manifest for %s: %v", id, err)
	}
	for _, name := range musicFiles {
		WriteMusicFile(t, dir, name, "audio:"+name)
	}
	return dir
}

// WriteMusicFile places content under the mod's music folder.
func WriteMusicFile(t testing.TB, modDir, name, content string) string {
	t.Helper()

	path := filepath.Join(modDir, mods.MusicSubdir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir music dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write music file %s: %v", name, err)
	}
	return path
}

// RemoveMusicFile deletes a source file previously created with WriteMusicFile.
func RemoveMusicFile(t testing.TB, modDir, name string) {
	t.Helper()

	if err := os.Remove(filepath.Join(modDir, mods.MusicSubdir, name)); err != nil {
		t.Fatalf("remove music file %s: %v", name, err)
	}
}

package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// StubCodec is an in-process Codec implementation for tests. It "encodes" by
// copying the source with a marker prefix and records every invocation.
type StubCodec struct {
	mu      sync.Mutex
	encoded []string

	// FailSources lists source base names whose encode should fail.
	FailSources map[string]bool
}

// NewStubCodec returns a stub accepting .wav and .ogg inputs.
func NewStubCodec() *StubCodec {
	return &StubCodec{FailSources: map[string]bool{}}
}

func (c *StubCodec) InputExtensions() []string { return []string{".wav", ".ogg"} }

func (c *StubCodec) OutputExtension() string { return ".hca" }

func (c *StubCodec) Encode(_ context.Context, sourcePath, destPath string) error {
	if c.FailSources[filepath.Base(sourcePath)] {
		return errors.New("stub codec: forced failure for " + filepath.Base(sourcePath))
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(destPath, append([]byte("hca:"), data...), 0o644); err != nil {
		return err
	}

	c.mu.Lock()
	c.encoded = append(c.encoded, sourcePath)
	c.mu.Unlock()
	return nil
}

// EncodeCount returns how many encodes completed successfully.
func (c *StubCodec) EncodeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.encoded)
}

// Encoded returns the source paths encoded so far.
func (c *StubCodec) Encoded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.encoded))
	copy(out, c.encoded)
	return out
}

// Reset clears the invocation record between pass runs.
func (c *StubCodec) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoded = nil
}

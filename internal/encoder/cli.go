package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"maestro/internal/faults"
)

var commandContext = exec.CommandContext

// OutputExtension is the encoded container the supported games load by slot ID.
const OutputExtension = ".hca"

var inputExtensions = []string{".wav", ".ogg", ".mp3", ".flac"}

// Option configures the CLI codec.
type Option func(*CLI)

// WithBinary overrides the default transcoder binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithTimeout bounds a single encode invocation. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		c.timeout = timeout
	}
}

// CLI wraps an external audio transcoder command.
type CLI struct {
	binary  string
	timeout time.Duration
}

// NewCLI constructs a CLI codec using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "vgaudio"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

func (c *CLI) InputExtensions() []string {
	exts := make([]string, len(inputExtensions))
	copy(exts, inputExtensions)
	return exts
}

func (c *CLI) OutputExtension() string { return OutputExtension }

// Encode runs the transcoder against a temporary sibling of destPath and
// renames the result into place, so a failed invocation leaves nothing at
// destPath.
func (c *CLI) Encode(ctx context.Context, sourcePath, destPath string) error {
	if sourcePath == "" {
		return errors.New("source path required")
	}
	if destPath == "" {
		return errors.New("destination path required")
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tempPath := destPath + ".part"
	args := []string{"--input", sourcePath, "--output", tempPath}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(tempPath)
		return faults.Wrap(faults.ErrExternalTool, "encoder",
			fmt.Sprintf("run %s: %s", c.binary, firstLine(output)), err)
	}
	if _, err := os.Stat(tempPath); err != nil {
		return faults.Wrap(faults.ErrExternalTool, "encoder",
			fmt.Sprintf("%s exited cleanly but produced no output", c.binary), err)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("finalize encoded output: %w", err)
	}
	return nil
}

func firstLine(output []byte) string {
	for i, b := range output {
		if b == '\n' {
			return string(output[:i])
		}
	}
	return string(output)
}

var _ Codec = (*CLI)(nil)

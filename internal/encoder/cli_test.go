package encoder

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"maestro/internal/faults"
)

// stubTranscoder replaces the external binary with a shell command. When
// succeed is true it copies input to output like a real transcoder; otherwise
// it exits nonzero without producing output.
func stubTranscoder(t *testing.T, succeed bool) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		var input, output string
		for i := 0; i+1 < len(args); i++ {
			switch args[i] {
			case "--input":
				input = args[i+1]
			case "--output":
				output = args[i+1]
			}
		}
		if succeed {
			return exec.CommandContext(ctx, "sh", "-c", `cp "$0" "$1"`, input, output)
		}
		return exec.CommandContext(ctx, "sh", "-c", "echo transcode exploded; exit 1")
	}
	t.Cleanup(func() { commandContext = original })
	return &captured
}

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/vgaudio"))
	if cli.binary != "/opt/vgaudio" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestCLIEncodeRequiresPaths(t *testing.T) {
	cli := NewCLI()
	if err := cli.Encode(context.Background(), "", "/tmp/out.hca"); err == nil {
		t.Fatal("expected error when source path is empty")
	}
	if err := cli.Encode(context.Background(), "/tmp/in.wav", ""); err == nil {
		t.Fatal("expected error when destination path is empty")
	}
}

func TestCLIEncodeWritesDestination(t *testing.T) {
	captured := stubTranscoder(t, true)

	dir := t.TempDir()
	src := filepath.Join(dir, "battle.wav")
	dst := filepath.Join(dir, "build", "4000.hca")
	if err := os.WriteFile(src, []byte("riff"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cli := NewCLI()
	if err := cli.Encode(context.Background(), src, dst); err != nil {
		t.Fatalf("encode: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "riff" {
		t.Fatalf("unexpected output content: %q", data)
	}
	if len(*captured) != 4 || (*captured)[0] != "--input" {
		t.Fatalf("unexpected transcoder args: %v", *captured)
	}
}

func TestCLIEncodeFailureLeavesNoPartialFile(t *testing.T) {
	stubTranscoder(t, false)

	dir := t.TempDir()
	src := filepath.Join(dir, "battle.wav")
	dst := filepath.Join(dir, "4000.hca")
	if err := os.WriteFile(src, []byte("riff"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cli := NewCLI()
	err := cli.Encode(context.Background(), src, dst)
	if err == nil {
		t.Fatal("expected encode failure")
	}
	if !errors.Is(err, faults.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Fatal("destination must not exist after a failed encode")
	}
	if _, statErr := os.Stat(dst + ".part"); !os.IsNotExist(statErr) {
		t.Fatal("temp file must be cleaned up after a failed encode")
	}
}

func TestCLIInputExtensionsCopy(t *testing.T) {
	cli := NewCLI()
	exts := cli.InputExtensions()
	exts[0] = ".mutated"
	if cli.InputExtensions()[0] == ".mutated" {
		t.Fatal("InputExtensions must return a copy")
	}
	if cli.OutputExtension() != ".hca" {
		t.Fatalf("unexpected output extension %q", cli.OutputExtension())
	}
}

package encoder

import (
	"context"
)

// Codec is the narrow contract the registry engine consumes. Implementations
// transform one source audio file into one encoded output file.
//
// Encode must leave no partial file at destPath on failure; the engine relies
// on "file exists at build path" meaning "valid encode of the recorded
// source".
type Codec interface {
	// InputExtensions returns the accepted source extensions, lowercased
	// with a leading dot. Matching is case-insensitive.
	InputExtensions() []string
	// OutputExtension returns the produced extension, used for build file
	// naming and transcode-cache cleanup during a version-bump purge.
	OutputExtension() string
	// Encode reads sourcePath and writes a complete encoded file at
	// destPath, creating parent directories as needed.
	Encode(ctx context.Context, sourcePath, destPath string) error
}

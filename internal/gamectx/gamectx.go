package gamectx

import (
	"fmt"
	"path/filepath"
	"strings"

	"maestro/internal/faults"
)

// Context identifies one target game edition. Build paths and the base slot
// ID offset are pure functions of the context.
type Context string

const (
	Vanilla Context = "vanilla"
	Deluxe  Context = "deluxe"
)

// Descriptor captures everything context-specific: the build subdirectory
// segment and the config key that supplies the base slot ID. Adding a context
// is a new table row, not new code.
type Descriptor struct {
	PathSegment string
	BaseIDKey   string
}

var descriptors = map[Context]Descriptor{
	Vanilla: {PathSegment: "vanilla", BaseIDKey: "vanilla_base_id"},
	Deluxe:  {PathSegment: "deluxe", BaseIDKey: "deluxe_base_id"},
}

// OutputExtension is the encoded audio container the game loads by slot ID.
const OutputExtension = ".hca"

// UnknownContextError reports an unrecognized target context name. It wraps
// faults.ErrConfiguration so callers can distinguish it from transient I/O
// failures.
type UnknownContextError struct {
	Name string
}

func (e *UnknownContextError) Error() string {
	return fmt.Sprintf("unknown target context %q (known: %s)", e.Name, strings.Join(Names(), ", "))
}

func (e *UnknownContextError) Unwrap() error { return faults.ErrConfiguration }

// Parse resolves a context name from configuration.
func Parse(name string) (Context, error) {
	ctx := Context(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := descriptors[ctx]; !ok {
		return "", &UnknownContextError{Name: name}
	}
	return ctx, nil
}

// Names returns the known context names in stable order.
func Names() []string {
	return []string{string(Vanilla), string(Deluxe)}
}

// Descriptor returns the context's descriptor. The boolean is false for
// contexts that never passed Parse.
func (c Context) Descriptor() (Descriptor, bool) {
	d, ok := descriptors[c]
	return d, ok
}

// BuildDir returns the per-context build directory under root.
func (c Context) BuildDir(root string) string {
	d := descriptors[c]
	return filepath.Join(root, d.PathSegment)
}

// BuildPath returns the build output file for the given slot ID.
func (c Context) BuildPath(root string, id int64) string {
	return filepath.Join(c.BuildDir(root), fmt.Sprintf("%d%s", id, OutputExtension))
}

func (c Context) String() string { return string(c) }

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"maestro/internal/config"
	"maestro/internal/encoder"
	"maestro/internal/faults"
	"maestro/internal/gamectx"
	"maestro/internal/logging"
	"maestro/internal/mods"
	"maestro/internal/notifications"
	"maestro/internal/songs"
	"maestro/internal/transcodecache"
)

// Listener is invoked after a successful registration pass with the target
// context and the root build directory, so other components can locate
// freshly built audio.
type Listener func(game gamectx.Context, buildDir string)

// Deps carries everything a registration pass needs. Config and Codec are
// required; Notifier defaults to noop and Logger to a no-op logger.
type Deps struct {
	Config   *config.Config
	Codec    encoder.Codec
	Cache    *transcodecache.Cache
	Notifier notifications.Service
	Logger   *slog.Logger

	// Listeners receive the registration-completed event in-process.
	Listeners []Listener

	// Packages overrides mod discovery when set; used by hosts that resolve
	// enabled packages themselves. Order determines slot assignment.
	Packages []mods.Package
}

// Engine holds the result of a completed registration pass. There is no
// separate build phase: constructing the engine via Register is the build.
type Engine struct {
	game      gamectx.Context
	buildDir  string
	passID    string
	songs     []songs.Song
	byPackage map[string][]songs.Song
}

// Register runs the full registration pass: version check, purge, discovery,
// slot allocation, encode, prune, persist, notify. Only configuration errors
// (unknown context, missing base ID) and cancellation abort the pass; every
// per-package and per-song failure is logged and skipped.
func Register(ctx context.Context, deps Deps) (*Engine, error) {
	if deps.Config == nil || deps.Codec == nil {
		return nil, errors.New("registry requires config and codec")
	}
	cfg := deps.Config
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	logger := logging.NewComponentLogger(deps.Logger, "registry")

	game, err := gamectx.Parse(cfg.Game.Target)
	if err != nil {
		return nil, err
	}
	descriptor, _ := game.Descriptor()
	baseID, ok := cfg.BaseID(descriptor.BaseIDKey)
	if !ok {
		return nil, faults.Wrap(faults.ErrConfiguration, "registry",
			fmt.Sprintf("game.base_ids.%s is not configured", descriptor.BaseIDKey), nil)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "registry", "ensure directories", err)
	}
	buildDir := game.BuildDir(cfg.Paths.BuildDir)
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "registry", "ensure build directory", err)
	}

	lock := flock.New(filepath.Join(buildDir, ".maestro.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire registry lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another registration pass holds the lock for %s", buildDir)
	}
	defer func() { _ = lock.Unlock() }()

	passID := uuid.NewString()
	logger = logger.With(
		logging.String(logging.FieldGame, game.String()),
		logging.String(logging.FieldPassID, passID),
	)

	pass := &pass{
		cfg:      cfg,
		codec:    deps.Codec,
		cache:    deps.Cache,
		logger:   logger,
		game:     game,
		buildDir: buildDir,
		baseID:   baseID,
	}

	registered, err := pass.run(ctx, deps.Packages)
	if err != nil {
		if notifyErr := deps.Notifier.NotifyRegistrationFailed(context.WithoutCancel(ctx), game.String(), err); notifyErr != nil {
			logger.Warn("failed to send failure notification", logging.Error(notifyErr))
		}
		return nil, err
	}

	if err := deps.Notifier.NotifyRegistrationCompleted(ctx, game.String(), buildDir, len(registered)); err != nil {
		logger.Warn("failed to send completion notification", logging.Error(err))
	}
	for _, listener := range deps.Listeners {
		listener(game, buildDir)
	}

	byPackage := make(map[string][]songs.Song)
	for _, s := range registered {
		byPackage[s.PackageID] = append(byPackage[s.PackageID], s)
	}

	logger.Info("registration pass complete", logging.Int("songs", len(registered)))

	return &Engine{
		game:      game,
		buildDir:  buildDir,
		passID:    passID,
		songs:     registered,
		byPackage: byPackage,
	}, nil
}

// Game returns the target context this engine registered for.
func (e *Engine) Game() gamectx.Context { return e.game }

// BuildDir returns the root build directory for the target context.
func (e *Engine) BuildDir() string { return e.buildDir }

// PassID returns the unique identifier of the completed registration pass.
func (e *Engine) PassID() string { return e.passID }

// Songs returns every registered song in registration order.
func (e *Engine) Songs() []songs.Song {
	out := make([]songs.Song, len(e.songs))
	copy(out, e.songs)
	return out
}

// SongsForPackage returns the registered songs belonging to a package in
// registration order. Unknown packages yield an empty slice. Pure read.
func (e *Engine) SongsForPackage(packageID string) []songs.Song {
	list := e.byPackage[packageID]
	out := make([]songs.Song, len(list))
	copy(out, list)
	return out
}

func parallelism(cfg *config.Config) int {
	if cfg.Encoder.Parallelism > 0 {
		return cfg.Encoder.Parallelism
	}
	return runtime.NumCPU()
}

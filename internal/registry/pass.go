package registry

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"maestro/internal/config"
	"maestro/internal/encoder"
	"maestro/internal/gamectx"
	"maestro/internal/logging"
	"maestro/internal/mods"
	"maestro/internal/songs"
	"maestro/internal/transcodecache"
)

type pass struct {
	cfg      *config.Config
	codec    encoder.Codec
	cache    *transcodecache.Cache
	logger   *slog.Logger
	game     gamectx.Context
	buildDir string
	baseID   int64
}

// run executes steps 1-8 and returns the songs recorded in the new state.
func (p *pass) run(ctx context.Context, packages []mods.Package) ([]songs.Song, error) {
	previous := p.loadPrevious(ctx)

	if packages == nil {
		packages = mods.Discover(p.cfg.Mods.Enabled, p.logger)
	}
	current := p.allocate(packages)

	failed, err := p.encodeAll(ctx, songs.NewSet(previous), current)
	if err != nil {
		return nil, err
	}

	p.prune(previous, current)

	registered := make([]songs.Song, 0, len(current))
	for _, s := range current {
		if _, bad := failed[s]; bad {
			continue
		}
		registered = append(registered, s)
	}

	if err := songs.Save(p.buildDir, registered); err != nil {
		return nil, err
	}
	if err := songs.WriteVersion(p.buildDir, songs.SchemaVersion); err != nil {
		return nil, err
	}
	return registered, nil
}

// loadPrevious performs the version check and, on a schema change, the full
// purge: cached transcodes in the output format, every previously recorded
// build output, then the state and version files. Purge deletion failures are
// logged and do not stop the pass; an orphan is recomputed as unused next run.
func (p *pass) loadPrevious(ctx context.Context) []songs.Song {
	version, ok := songs.ReadVersion(p.buildDir)
	if ok && version == songs.SchemaVersion {
		return songs.Load(p.buildDir, p.logger)
	}

	p.logger.Info("schema version changed, purging build outputs",
		logging.Int("found_version", version),
		logging.Int("current_version", songs.SchemaVersion),
	)

	if err := p.cache.PurgeOutputs(ctx, p.codec.OutputExtension()); err != nil {
		p.logger.Warn("transcode cache purge failed", logging.Error(err))
	}

	stale := songs.Load(p.buildDir, p.logger)
	for _, s := range stale {
		if err := os.Remove(s.BuildPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("failed to delete stale build output",
				logging.String("path", s.BuildPath),
				logging.Error(err),
			)
		}
	}
	if err := songs.RemoveState(p.buildDir); err != nil {
		p.logger.Warn("failed to delete previous state", logging.Error(err))
	}
	return nil
}

// allocate walks every enabled package and assigns consecutive slot IDs in
// discovery order, strictly sequentially: IDs and build paths are pure
// functions of discovery order, never of encode completion order.
func (p *pass) allocate(packages []mods.Package) []songs.Song {
	var current []songs.Song
	for _, pkg := range packages {
		files, err := mods.MusicFiles(pkg.Dir, p.codec.InputExtensions())
		if err != nil {
			p.logger.Warn("skipping package after discovery failure",
				logging.String(logging.FieldPackage, pkg.ID),
				logging.Error(err),
			)
			continue
		}
		for _, file := range files {
			id := p.baseID + int64(len(current))
			current = append(current, songs.Song{
				PackageID:  pkg.ID,
				Name:       mods.SongName(file),
				AssignedID: id,
				SourcePath: file,
				BuildPath:  p.game.BuildPath(p.cfg.Paths.BuildDir, id),
			})
		}
	}
	return current
}

// encodeAll encodes every song that is not already up to date, bounded by the
// configured parallelism. A song is up to date iff its exact tuple appeared
// in the previous state and its build output exists. Encode failures are
// collected, not fatal: the failed songs stay out of the persisted state so
// the next pass retries them. Only cancellation aborts.
func (p *pass) encodeAll(ctx context.Context, previous songs.Set, current []songs.Song) (map[songs.Song]struct{}, error) {
	var mu sync.Mutex
	failed := make(map[songs.Song]struct{})

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism(p.cfg))

	for _, song := range current {
		if previous.Contains(song) && fileExists(song.BuildPath) {
			continue
		}
		song := song
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			if err := p.codec.Encode(groupCtx, song.SourcePath, song.BuildPath); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				p.logger.Warn("encode failed, song skipped this pass",
					logging.String(logging.FieldPackage, song.PackageID),
					logging.String("song", song.Name),
					logging.Int64("slot", song.AssignedID),
					logging.Error(err),
				)
				mu.Lock()
				failed[song] = struct{}{}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return failed, nil
}

// prune deletes build outputs for songs that were registered before but are
// gone now, unless a current song reuses the same build path.
func (p *pass) prune(previous, current []songs.Song) {
	inUse := make(map[string]struct{}, len(current))
	for _, s := range current {
		inUse[s.BuildPath] = struct{}{}
	}

	for _, s := range songs.Removed(previous, current) {
		if _, used := inUse[s.BuildPath]; used {
			continue
		}
		if err := os.Remove(s.BuildPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("failed to delete orphaned build output",
				logging.String("path", s.BuildPath),
				logging.Error(err),
			)
			continue
		}
		p.logger.Info("pruned orphaned build output",
			logging.String(logging.FieldPackage, s.PackageID),
			logging.String("song", s.Name),
			logging.String("path", s.BuildPath),
		)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

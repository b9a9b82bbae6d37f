package registry

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"maestro/internal/config"
	"maestro/internal/faults"
	"maestro/internal/gamectx"
	"maestro/internal/logging"
	"maestro/internal/songs"
	"maestro/internal/testsupport"
)

// newFixture builds a config with ModA (battle.wav, town.wav) and ModB
// (victory.wav) enabled in that order, matching the slot-assignment scenario:
// within a package files register in lexical walk order.
func newFixture(t *testing.T) (*config.Config, *testsupport.StubCodec, string, string) {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithCacheDisabled())
	modsRoot := t.TempDir()
	modA := testsupport.WriteMod(t, modsRoot, "ModA", "town.wav", "battle.wav")
	modB := testsupport.WriteMod(t, modsRoot, "ModB", "victory.wav")
	cfg.Mods.Enabled = []string{modA, modB}
	return cfg, testsupport.NewStubCodec(), modA, modB
}

func register(t *testing.T, cfg *config.Config, codec *testsupport.StubCodec) *Engine {
	t.Helper()

	engine, err := Register(context.Background(), Deps{
		Config: cfg,
		Codec:  codec,
		Logger: logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return engine
}

func TestRegisterAssignsSequentialSlotsInDiscoveryOrder(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	engine := register(t, cfg, codec)

	got := engine.Songs()
	if len(got) != 3 {
		t.Fatalf("expected 3 songs, got %v", got)
	}
	wantOrder := []struct {
		pkg  string
		name string
		id   int64
	}{
		{"ModA", "battle", 4000},
		{"ModA", "town", 4001},
		{"ModB", "victory", 4002},
	}
	for i, want := range wantOrder {
		s := got[i]
		if s.PackageID != want.pkg || s.Name != want.name || s.AssignedID != want.id {
			t.Fatalf("song %d mismatch: got %+v want %+v", i, s, want)
		}
		wantPath := gamectx.Vanilla.BuildPath(cfg.Paths.BuildDir, want.id)
		if s.BuildPath != wantPath {
			t.Fatalf("song %d build path: got %q want %q", i, s.BuildPath, wantPath)
		}
		if _, err := os.Stat(s.BuildPath); err != nil {
			t.Fatalf("expected build output for %s: %v", s.Name, err)
		}
	}
	if codec.EncodeCount() != 3 {
		t.Fatalf("expected 3 encodes, got %d", codec.EncodeCount())
	}
}

func TestSongsForPackage(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	engine := register(t, cfg, codec)

	modA := engine.SongsForPackage("ModA")
	if len(modA) != 2 {
		t.Fatalf("expected 2 ModA songs, got %v", modA)
	}
	if modA[0].Name != "battle" || modA[1].Name != "town" {
		t.Fatalf("unexpected ModA order: %v", modA)
	}
	if got := engine.SongsForPackage("ModC"); len(got) != 0 {
		t.Fatalf("expected empty sequence for unknown package, got %v", got)
	}
}

func TestRegisterIdempotentSecondPass(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	register(t, cfg, codec)

	buildDir := gamectx.Vanilla.BuildDir(cfg.Paths.BuildDir)
	firstState, err := os.ReadFile(songs.StatePath(buildDir))
	if err != nil {
		t.Fatalf("read first state: %v", err)
	}

	codec.Reset()
	engine := register(t, cfg, codec)

	if codec.EncodeCount() != 0 {
		t.Fatalf("expected zero encodes on unchanged second pass, got %d", codec.EncodeCount())
	}
	secondState, err := os.ReadFile(songs.StatePath(buildDir))
	if err != nil {
		t.Fatalf("read second state: %v", err)
	}
	if string(firstState) != string(secondState) {
		t.Fatal("state must be byte-identical across idempotent passes")
	}
	if len(engine.Songs()) != 3 {
		t.Fatalf("expected 3 songs, got %d", len(engine.Songs()))
	}
}

func TestRegisterAdditionEncodesOnlyNewSong(t *testing.T) {
	cfg, codec, _, modB := newFixture(t)
	register(t, cfg, codec)

	// "zz_finale" sorts after every existing file, so existing slots keep
	// their assignments and exactly one new song appears at the top slot.
	testsupport.WriteMusicFile(t, modB, "zz_finale.wav", "audio:finale")

	existing := gamectx.Vanilla.BuildPath(cfg.Paths.BuildDir, 4000)
	before, err := os.Stat(existing)
	if err != nil {
		t.Fatalf("stat existing output: %v", err)
	}

	codec.Reset()
	engine := register(t, cfg, codec)

	if codec.EncodeCount() != 1 {
		t.Fatalf("expected exactly one encode, got %d (%v)", codec.EncodeCount(), codec.Encoded())
	}
	all := engine.Songs()
	if len(all) != 4 {
		t.Fatalf("expected 4 songs, got %v", all)
	}
	last := all[3]
	if last.Name != "zz_finale" || last.AssignedID != 4003 {
		t.Fatalf("expected new song at highest slot, got %+v", last)
	}

	after, err := os.Stat(existing)
	if err != nil {
		t.Fatalf("stat existing output after pass: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size() {
		t.Fatal("previously built outputs must be untouched by an addition")
	}
}

func TestRegisterRemovalPrunesOutputAndState(t *testing.T) {
	cfg, codec, _, modB := newFixture(t)
	register(t, cfg, codec)

	removedPath := gamectx.Vanilla.BuildPath(cfg.Paths.BuildDir, 4002)
	if _, err := os.Stat(removedPath); err != nil {
		t.Fatalf("expected victory output before removal: %v", err)
	}

	testsupport.RemoveMusicFile(t, modB, "victory.wav")
	codec.Reset()
	engine := register(t, cfg, codec)

	if codec.EncodeCount() != 0 {
		t.Fatalf("removal should not trigger encodes, got %d", codec.EncodeCount())
	}
	if _, err := os.Stat(removedPath); !os.IsNotExist(err) {
		t.Fatal("orphaned build output must be deleted")
	}
	for _, s := range engine.Songs() {
		if s.Name == "victory" {
			t.Fatal("removed song must be absent from the new state")
		}
	}

	buildDir := gamectx.Vanilla.BuildDir(cfg.Paths.BuildDir)
	persisted := songs.Load(buildDir, logging.NewNop())
	if len(persisted) != 2 {
		t.Fatalf("expected 2 persisted songs, got %v", persisted)
	}
}

func TestRegisterVersionBumpForcesFullRebuild(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	register(t, cfg, codec)

	buildDir := gamectx.Vanilla.BuildDir(cfg.Paths.BuildDir)
	// Simulate a schema bump by making the stored marker stale.
	if err := os.WriteFile(songs.VersionPath(buildDir), []byte("999"), 0o644); err != nil {
		t.Fatalf("write stale marker: %v", err)
	}

	codec.Reset()
	engine := register(t, cfg, codec)

	if codec.EncodeCount() != 3 {
		t.Fatalf("version bump must re-encode everything, got %d encodes", codec.EncodeCount())
	}
	if len(engine.Songs()) != 3 {
		t.Fatalf("expected 3 songs after rebuild, got %d", len(engine.Songs()))
	}
	version, ok := songs.ReadVersion(buildDir)
	if !ok || version != songs.SchemaVersion {
		t.Fatalf("expected fresh version marker %d, got %d ok=%v", songs.SchemaVersion, version, ok)
	}
}

func TestRegisterEncodeFailureSkipsSongAndRetriesNextPass(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	codec.FailSources["battle.wav"] = true

	engine := register(t, cfg, codec)

	all := engine.Songs()
	if len(all) != 2 {
		t.Fatalf("expected failed song excluded, got %v", all)
	}
	for _, s := range all {
		if s.Name == "battle" {
			t.Fatal("failed song must not be recorded as built")
		}
	}
	// The failed song still occupied its slot: survivors keep their IDs.
	if all[0].AssignedID != 4001 || all[1].AssignedID != 4002 {
		t.Fatalf("surviving slots shifted: %v", all)
	}

	// Next pass retries the failed song only.
	codec.FailSources = map[string]bool{}
	codec.Reset()
	engine = register(t, cfg, codec)

	if codec.EncodeCount() != 1 {
		t.Fatalf("expected exactly one retry encode, got %d (%v)", codec.EncodeCount(), codec.Encoded())
	}
	if len(engine.Songs()) != 3 {
		t.Fatalf("expected all songs registered after retry, got %v", engine.Songs())
	}
}

func TestRegisterCorruptStateForcesReencode(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	register(t, cfg, codec)

	buildDir := gamectx.Vanilla.BuildDir(cfg.Paths.BuildDir)
	if err := os.WriteFile(songs.StatePath(buildDir), []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("corrupt state: %v", err)
	}

	codec.Reset()
	engine := register(t, cfg, codec)
	if codec.EncodeCount() != 3 {
		t.Fatalf("corrupt state must degrade to first run, got %d encodes", codec.EncodeCount())
	}
	if len(engine.Songs()) != 3 {
		t.Fatalf("expected 3 songs, got %d", len(engine.Songs()))
	}
}

func TestRegisterUnknownContextIsFatal(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	cfg.Game.Target = "remastered"

	_, err := Register(context.Background(), Deps{Config: cfg, Codec: codec, Logger: logging.NewNop()})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
	var unknown *gamectx.UnknownContextError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected typed unknown-context error, got %T", err)
	}
}

func TestRegisterMissingBaseIDIsFatal(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	delete(cfg.Game.BaseIDs, "vanilla_base_id")

	_, err := Register(context.Background(), Deps{Config: cfg, Codec: codec, Logger: logging.NewNop()})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestRegisterNotifiesListeners(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)

	var gotGame gamectx.Context
	var gotDir string
	_, err := Register(context.Background(), Deps{
		Config: cfg,
		Codec:  codec,
		Logger: logging.NewNop(),
		Listeners: []Listener{func(game gamectx.Context, buildDir string) {
			gotGame, gotDir = game, buildDir
		}},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if gotGame != gamectx.Vanilla {
		t.Fatalf("expected vanilla context, got %q", gotGame)
	}
	if gotDir != gamectx.Vanilla.BuildDir(cfg.Paths.BuildDir) {
		t.Fatalf("unexpected build dir %q", gotDir)
	}
}

func TestRegisterSkipsPackagesWithoutMusic(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	silent := testsupport.WriteMod(t, t.TempDir(), "Silent")
	cfg.Mods.Enabled = append([]string{silent}, cfg.Mods.Enabled...)

	engine := register(t, cfg, codec)
	if len(engine.Songs()) != 3 {
		t.Fatalf("silent package must contribute nothing, got %v", engine.Songs())
	}
	// Slot numbering is unaffected by the empty package.
	if engine.Songs()[0].AssignedID != 4000 {
		t.Fatalf("unexpected first slot %d", engine.Songs()[0].AssignedID)
	}
}

func TestRegisterPersistedStateRoundTrip(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	engine := register(t, cfg, codec)

	buildDir := gamectx.Vanilla.BuildDir(cfg.Paths.BuildDir)
	persisted := songs.Load(buildDir, logging.NewNop())
	if !reflect.DeepEqual(persisted, engine.Songs()) {
		t.Fatalf("persisted state mismatch:\n got %+v\nwant %+v", persisted, engine.Songs())
	}
}

func TestRegisterCancelledContextAbortsAndKeepsPreviousState(t *testing.T) {
	cfg, codec, _, _ := newFixture(t)
	register(t, cfg, codec)

	buildDir := gamectx.Vanilla.BuildDir(cfg.Paths.BuildDir)
	before, err := os.ReadFile(songs.StatePath(buildDir))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}

	// Force work on the next pass so cancellation has something to abort.
	testsupport.WriteMusicFile(t, cfg.Mods.Enabled[0], "zz_new.wav", "x")
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Register(cancelled, Deps{Config: cfg, Codec: codec, Logger: logging.NewNop()}); err == nil {
		t.Fatal("expected cancellation error")
	}

	after, err := os.ReadFile(songs.StatePath(buildDir))
	if err != nil {
		t.Fatalf("read state after abort: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("an aborted pass must leave the previous state intact")
	}
}

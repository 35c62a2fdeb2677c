package main

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/objects-time/neural-mmo/internal/persistence/indexdb"
	persistlog "github.com/objects-time/neural-mmo/internal/persistence/log"
	"github.com/objects-time/neural-mmo/internal/sim/entity"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
	"github.com/objects-time/neural-mmo/internal/sim/replay"
	"github.com/objects-time/neural-mmo/internal/sim/tuning"
)

func testTuning() tuning.Tuning {
	t := tuning.Defaults()
	t.NEnt, t.NPop = 8, 2
	t.TickRateHz = 200
	t.Map.Rows, t.Map.Cols, t.Map.Border = 20, 20, 2
	return t
}

// runOnce runs a realm journaling into realmDir until at least minTicks have
// elapsed, then shuts it down the way main does.
func runOnce(t *testing.T, realmDir string, minTicks uint64) error {
	t.Helper()
	tickLog := persistlog.NewTickLogger(realmDir, 4)
	idx, err := indexdb.OpenSQLite(filepath.Join(realmDir, "index", "realm.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	defer tickLog.Close()

	logger := log.New(io.Discard, "", 0)
	r, _, err := testTuning().NewRealm(
		realm.WithLogger(logger),
		realm.WithTickLogger(multiTickLogger{a: tickLog, b: idx}),
	)
	if err != nil {
		t.Fatalf("NewRealm: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startRealm(ctx, cancel, r, logger)

	deadline := time.Now().Add(5 * time.Second)
	for r.Metrics().Tick < minTicks {
		if time.Now().After(deadline) {
			t.Fatalf("realm stuck at tick %d", r.Metrics().Tick)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("realm goroutine did not return")
	}
	return tickLog.Close()
}

func verifyJournal(t *testing.T, realmDir string) []uint64 {
	t.Helper()
	segs, err := persistlog.Segments(persistlog.JournalDir(realmDir))
	if err != nil || len(segs) == 0 {
		t.Fatalf("segments=%v err=%v", segs, err)
	}
	r, _, err := testTuning().NewRealm()
	if err != nil {
		t.Fatalf("NewRealm: %v", err)
	}
	v := replay.NewVerifier(r, entity.Kind)
	var ticks []uint64
	for _, p := range segs {
		entries, err := persistlog.ReadTicks(p)
		if err != nil {
			t.Fatalf("ReadTicks(%s): %v", p, err)
		}
		for _, e := range entries {
			ticks = append(ticks, e.Tick)
			if err := v.Apply(e); err != nil {
				t.Fatalf("replay at tick %d: %v", e.Tick, err)
			}
		}
	}
	return ticks
}

func TestStartRealm_JournalCompleteAfterShutdown(t *testing.T) {
	dir := t.TempDir()
	if err := runOnce(t, dir, 10); err != nil {
		t.Fatalf("close journal: %v", err)
	}
	ticks := verifyJournal(t, dir)
	for i, tick := range ticks {
		if tick != uint64(i+1) {
			t.Fatalf("ticks not contiguous: %v", ticks)
		}
	}
}

func TestEnsureFreshRealm_SecondRunKeepsJournalReplayable(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	if err := ensureFreshRealm(ctx, dir, nil); err != nil {
		t.Fatalf("fresh dir: %v", err)
	}
	if err := runOnce(t, dir, 6); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := verifyJournal(t, dir)

	if err := ensureFreshRealm(ctx, dir, nil); !errors.Is(err, persistlog.ErrJournalExists) {
		t.Fatalf("ensureFreshRealm: got %v want ErrJournalExists", err)
	}

	// A second run that skips the check still cannot touch the journal.
	if err := runOnce(t, dir, 12); err != nil {
		t.Fatalf("second run close: %v", err)
	}
	second := verifyJournal(t, dir)
	if len(second) != len(first) {
		t.Fatalf("journal changed: first=%v second=%v", first, second)
	}
}

func TestEnsureFreshRealm_IndexedTicks(t *testing.T) {
	dir := t.TempDir()
	idx, err := indexdb.OpenSQLite(filepath.Join(dir, "index", "realm.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteTick(realm.TickLogEntry{Tick: 1, Alive: 1})
	_ = idx.Close()

	idx, err = indexdb.OpenSQLite(filepath.Join(dir, "index", "realm.sqlite"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	if err := ensureFreshRealm(context.Background(), dir, idx); !errors.Is(err, persistlog.ErrJournalExists) {
		t.Fatalf("got %v want ErrJournalExists", err)
	}
}

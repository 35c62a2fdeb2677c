package log

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

func TestTickLogger_RotatesBySegment(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir, 4)
	for tick := uint64(1); tick <= 9; tick++ {
		e := realm.TickLogEntry{Tick: tick, Alive: int(tick)}
		if tick == 2 {
			e.Dones = []realm.DoneRecord{{Serial: realm.Serial{Pop: 1, ID: 3}, Pos: realm.Pos{R: 4, C: 5}}}
		}
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("WriteTick(%d): %v", tick, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	segs, err := Segments(filepath.Join(dir, "ticks"))
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments: %v", len(segs), segs)
	}
	if filepath.Base(segs[0]) != "ticks-0000000000.jsonl.zst" || filepath.Base(segs[2]) != "ticks-0000000008.jsonl.zst" {
		t.Fatalf("unexpected names: %v", segs)
	}

	var all []realm.TickLogEntry
	for _, p := range segs {
		es, err := ReadTicks(p)
		if err != nil {
			t.Fatalf("ReadTicks(%s): %v", p, err)
		}
		all = append(all, es...)
	}
	if len(all) != 9 {
		t.Fatalf("got %d entries", len(all))
	}
	for i, e := range all {
		if e.Tick != uint64(i+1) || e.Alive != i+1 {
			t.Fatalf("entry %d: %+v", i, e)
		}
	}
	if len(all[1].Dones) != 1 || all[1].Dones[0].Serial.ID != 3 {
		t.Fatalf("dones lost: %+v", all[1])
	}
}

func TestJSONLZstdWriter_RefusesExistingSegment(t *testing.T) {
	dir := t.TempDir()
	first := NewJSONLZstdWriter(dir, "ticks", 100)
	if err := first.Write(1, realm.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := NewJSONLZstdWriter(dir, "ticks", 100)
	defer second.Close()
	if err := second.Write(1, realm.TickLogEntry{Tick: 1, Alive: 9}); !errors.Is(err, ErrJournalExists) {
		t.Fatalf("second writer: got %v want ErrJournalExists", err)
	}
	if err := second.Write(500, realm.TickLogEntry{Tick: 500}); !errors.Is(err, ErrJournalExists) {
		t.Fatalf("later segment: got %v want ErrJournalExists", err)
	}

	segs, _ := Segments(dir)
	if len(segs) != 1 {
		t.Fatalf("segments: %v", segs)
	}
	es, err := ReadTicks(segs[0])
	if err != nil {
		t.Fatalf("ReadTicks: %v", err)
	}
	if len(es) != 1 || es[0].Alive != 0 {
		t.Fatalf("entries: %+v", es)
	}
}

func TestJSONLZstdWriter_WriteAfterClose(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "ticks", 100)
	if err := w.Write(1, realm.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Write(2, realm.TickLogEntry{Tick: 2}); !errors.Is(err, ErrWriterClosed) {
		t.Fatalf("Write after Close: got %v want ErrWriterClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	segs, _ := Segments(dir)
	es, err := ReadTicks(segs[0])
	if err != nil {
		t.Fatalf("ReadTicks: %v", err)
	}
	if len(es) != 1 || es[0].Tick != 1 {
		t.Fatalf("entries: %+v", es)
	}
}

func TestEnsureFresh(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureFresh(dir); err != nil {
		t.Fatalf("empty dir: %v", err)
	}
	l := NewTickLogger(dir, 10)
	if err := l.WriteTick(realm.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	_ = l.Close()
	if err := EnsureFresh(dir); !errors.Is(err, ErrJournalExists) {
		t.Fatalf("got %v want ErrJournalExists", err)
	}
}

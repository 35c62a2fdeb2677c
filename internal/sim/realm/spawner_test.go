package realm

import (
	"errors"
	"testing"
)

func TestSpawner_SinglePopulationCap(t *testing.T) {
	s := NewSpawner(2, 1)
	if s.SlotSize() != 2 {
		t.Fatalf("slot size=%d want 2", s.SlotSize())
	}
	if !s.Admit(0) || !s.Admit(0) {
		t.Fatalf("first two admissions should succeed")
	}
	if s.Admit(0) {
		t.Fatalf("third admission should be refused")
	}
	if s.Count(0) != 2 || s.Total() != 2 {
		t.Fatalf("counts after refusal: pop=%d total=%d want (2,2)", s.Count(0), s.Total())
	}
}

func TestSpawner_PerPopulationSlot(t *testing.T) {
	s := NewSpawner(5, 2) // slot size 2
	if !s.Admit(0) || !s.Admit(0) {
		t.Fatalf("pop 0 should take two slots")
	}
	if s.Admit(0) {
		t.Fatalf("pop 0 over its slot size")
	}
	if !s.Admit(1) || !s.Admit(1) {
		t.Fatalf("pop 1 should take two slots")
	}
	if s.Total() != 4 {
		t.Fatalf("total=%d want 4", s.Total())
	}
	if s.Admit(1) {
		t.Fatalf("pop 1 over its slot size")
	}
}

func TestSpawner_TotalCapBeforeSlot(t *testing.T) {
	s := NewSpawner(3, 3) // slot size 1
	for pop := 0; pop < 3; pop++ {
		if !s.Admit(pop) {
			t.Fatalf("pop %d refused", pop)
		}
	}
	before := s.Populations()
	if s.Admit(3) {
		t.Fatalf("admission past total cap")
	}
	after := s.Populations()
	if len(before) != len(after) || s.Total() != 3 {
		t.Fatalf("refusal mutated ledger: before=%v after=%v total=%d", before, after, s.Total())
	}
}

func TestSpawner_ReleaseDropsEmptyEntries(t *testing.T) {
	s := NewSpawner(4, 2)
	s.Admit(1)
	if err := s.Release(1); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, ok := s.Populations()[1]; ok {
		t.Fatalf("population entry should be removed at zero")
	}
	if s.Total() != 0 {
		t.Fatalf("total=%d want 0", s.Total())
	}
}

func TestSpawner_ReleaseUnderflow(t *testing.T) {
	s := NewSpawner(4, 2)
	if err := s.Release(0); !errors.Is(err, ErrLedgerUnderflow) {
		t.Fatalf("Release on empty ledger: got %v want ErrLedgerUnderflow", err)
	}
	s.Admit(0)
	if err := s.Release(1); !errors.Is(err, ErrLedgerUnderflow) {
		t.Fatalf("Release of empty population: got %v want ErrLedgerUnderflow", err)
	}
	if s.Count(0) != 1 || s.Total() != 1 {
		t.Fatalf("failed release mutated ledger: pop0=%d total=%d", s.Count(0), s.Total())
	}
}

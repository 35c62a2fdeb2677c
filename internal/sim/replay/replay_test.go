package replay

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/objects-time/neural-mmo/internal/sim/entity"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
	"github.com/objects-time/neural-mmo/internal/sim/tuning"
)

type memLog struct{ entries []realm.TickLogEntry }

func (m *memLog) WriteTick(e realm.TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func smallTuning() tuning.Tuning {
	t := tuning.Defaults()
	t.NEnt, t.NPop = 8, 2
	t.Map.Rows, t.Map.Cols, t.Map.Border = 20, 20, 2
	return t
}

// record runs a realm under a random policy and returns its journal.
func record(t *testing.T, ticks int) []realm.TickLogEntry {
	t.Helper()
	log := &memLog{}
	r, _, err := smallTuning().NewRealm(realm.WithTickLogger(log))
	if err != nil {
		t.Fatalf("NewRealm: %v", err)
	}
	if _, err := r.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	rng := rand.New(rand.NewSource(99))
	for i := 1; i < ticks; i++ {
		d := realm.Decisions{}
		ids := r.LiveIDs()
		for _, id := range ids {
			switch rng.Intn(4) {
			case 0:
				d[id] = realm.Decision{}
			case 1:
				target := ids[rng.Intn(len(ids))]
				d[id] = realm.Decision{entity.AttackChoice(entity.Melee, target), entity.MoveChoice(entity.Dir(rng.Intn(5)))}
			default:
				d[id] = realm.Decision{entity.MoveChoice(entity.Dir(rng.Intn(5))), entity.MoveChoice(entity.North)}
			}
		}
		if _, err := r.Step(d); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	return log.entries
}

func TestVerifier_ReplaysOwnJournal(t *testing.T) {
	entries := record(t, 60)
	r, _, err := smallTuning().NewRealm()
	if err != nil {
		t.Fatalf("NewRealm: %v", err)
	}
	v := NewVerifier(r, entity.Kind)
	for _, e := range entries {
		if err := v.Apply(e); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	if v.Checked() != 60 {
		t.Fatalf("checked=%d", v.Checked())
	}
}

func TestVerifier_DetectsTamperedJournal(t *testing.T) {
	entries := record(t, 10)
	entries[5].Alive += 3

	r, _, _ := smallTuning().NewRealm()
	v := NewVerifier(r, entity.Kind)
	var err error
	for _, e := range entries {
		if err = v.Apply(e); err != nil {
			break
		}
	}
	var mm *MismatchError
	if !errors.As(err, &mm) || mm.Field != "alive" || mm.Tick != 6 {
		t.Fatalf("expected alive mismatch at tick 6, got %v", err)
	}
}

func TestVerifier_TickGap(t *testing.T) {
	r, _, _ := smallTuning().NewRealm()
	v := NewVerifier(r, entity.Kind)
	if err := v.Apply(realm.TickLogEntry{Tick: 2}); !errors.Is(err, ErrTickGap) {
		t.Fatalf("got %v", err)
	}
}

func TestDecisions_RebuildsDecidedAndActions(t *testing.T) {
	e := realm.TickLogEntry{
		Tick:    4,
		Decided: []realm.EntityID{1, 2},
		Actions: []realm.RecordedAction{
			{ID: 1, Action: entity.Melee.Name, Priority: 0, Args: realm.Args{2}},
			{ID: 1, Action: entity.Move.Name, Priority: 1, Args: realm.Args{int(entity.East)}},
		},
	}
	d, err := Decisions(e, entity.Kind)
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	if len(d) != 2 || len(d[1]) != 2 || len(d[2]) != 0 || d[1][1].Kind != entity.Move {
		t.Fatalf("unexpected: %+v", d)
	}

	e.Actions[0].Priority = 5
	if _, err := Decisions(e, entity.Kind); err == nil {
		t.Fatalf("expected priority mismatch error")
	}
}

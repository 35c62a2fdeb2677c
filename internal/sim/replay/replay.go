// Package replay re-runs a tick journal against a freshly built realm and
// checks that it evolves the same way.
package replay

import (
	"errors"
	"fmt"

	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

var ErrTickGap = errors.New("replay: tick gap")

// KindResolver maps a journaled action name back to its kind.
type KindResolver func(name string) (realm.ActionKind, bool)

// MismatchError reports the first divergence between the journal and the
// replayed realm.
type MismatchError struct {
	Tick  uint64
	Field string
	Want  string
	Got   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("replay: %s mismatch at tick %d: want=%s got=%s", e.Field, e.Tick, e.Want, e.Got)
}

// Decisions rebuilds the decisions a tick was stepped with. Journaled
// actions are already deduplicated, so re-prioritizing them yields the same
// application order.
func Decisions(e realm.TickLogEntry, kind KindResolver) (realm.Decisions, error) {
	out := make(realm.Decisions, len(e.Decided))
	for _, id := range e.Decided {
		out[id] = realm.Decision{}
	}
	for _, a := range e.Actions {
		k, ok := kind(a.Action)
		if !ok {
			return nil, fmt.Errorf("replay: tick %d: unknown action %q", e.Tick, a.Action)
		}
		if k.Priority != a.Priority {
			return nil, fmt.Errorf("replay: tick %d: action %s priority %d, journal says %d", e.Tick, a.Action, k.Priority, a.Priority)
		}
		args := make(realm.Args, len(a.Args))
		copy(args, a.Args)
		out[a.ID] = append(out[a.ID], realm.Choice{Kind: k, Args: args})
	}
	return out, nil
}

// Verifier steps a realm through journal entries one at a time.
type Verifier struct {
	r       *realm.Realm
	kind    KindResolver
	checked uint64
}

func NewVerifier(r *realm.Realm, kind KindResolver) *Verifier {
	return &Verifier{r: r, kind: kind}
}

func (v *Verifier) Checked() uint64 { return v.checked }

// Apply replays one entry. Entries must arrive in tick order starting at 1.
func (v *Verifier) Apply(e realm.TickLogEntry) error {
	want := v.r.CurrentTick() + 1
	if e.Tick != want {
		return fmt.Errorf("%w: want=%d got=%d", ErrTickGap, want, e.Tick)
	}
	d, err := Decisions(e, v.kind)
	if err != nil {
		return err
	}

	var res realm.StepResult
	if e.Tick == 1 {
		res, err = v.r.Reset()
	} else {
		res, err = v.r.Step(d)
	}
	if err != nil {
		return fmt.Errorf("replay: tick %d: %w", e.Tick, err)
	}
	if err := compare(v.r, e, res); err != nil {
		return err
	}
	v.checked++
	return nil
}

func compare(r *realm.Realm, e realm.TickLogEntry, res realm.StepResult) error {
	if e.Admitted != nil {
		ent, ok := r.Entity(e.Admitted.ID)
		if !ok && !diedThisTick(e, e.Admitted.ID) {
			return &MismatchError{Tick: e.Tick, Field: "admitted", Want: fmt.Sprint(e.Admitted.ID), Got: "missing"}
		}
		if ok && ent.Population() != e.Admitted.Pop {
			return &MismatchError{Tick: e.Tick, Field: "admitted_pop", Want: fmt.Sprint(e.Admitted.Pop), Got: fmt.Sprint(ent.Population())}
		}
	}
	if len(res.Dones) != len(e.Dones) {
		return &MismatchError{Tick: e.Tick, Field: "dones", Want: fmt.Sprint(len(e.Dones)), Got: fmt.Sprint(len(res.Dones))}
	}
	for i, d := range e.Dones {
		if res.Dones[i] != d.Serial {
			return &MismatchError{Tick: e.Tick, Field: "dones", Want: d.Serial.String(), Got: res.Dones[i].String()}
		}
	}
	if r.Len() != e.Alive {
		return &MismatchError{Tick: e.Tick, Field: "alive", Want: fmt.Sprint(e.Alive), Got: fmt.Sprint(r.Len())}
	}
	return nil
}

func diedThisTick(e realm.TickLogEntry, id realm.EntityID) bool {
	for _, d := range e.Dones {
		if d.Serial.ID == id {
			return true
		}
	}
	return false
}

package realm

import (
	"fmt"
	"testing"
)

var killKind = ActionKind{Name: "KILL", Priority: 0}
var noteKind = ActionKind{Name: "NOTE", Priority: 1}
var lateKind = ActionKind{Name: "LATE", Priority: 2}

type fakeWorld struct {
	ents     map[EntityID]*fakeEntity
	occupied map[Pos]map[int]int
	log      []string
	advances int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		ents:     map[EntityID]*fakeEntity{},
		occupied: map[Pos]map[int]int{},
	}
}

func (w *fakeWorld) AddEntity(e Entity) {
	w.ents[e.ID()] = e.(*fakeEntity)
	if w.occupied[e.Pos()] == nil {
		w.occupied[e.Pos()] = map[int]int{}
	}
	w.occupied[e.Pos()][e.Population()]++
}

func (w *fakeWorld) RemoveEntity(e Entity) {
	delete(w.ents, e.ID())
	c := w.occupied[e.Pos()]
	c[e.Population()]--
	if c[e.Population()] == 0 {
		delete(c, e.Population())
	}
	if len(c) == 0 {
		delete(w.occupied, e.Pos())
	}
}

func (w *fakeWorld) Stim(pos Pos, radius int) any {
	return fmt.Sprintf("stim@%d,%d/r%d", pos.R, pos.C, radius)
}

func (w *fakeWorld) Advance(tick uint64) {
	w.advances++
	w.log = append(w.log, fmt.Sprintf("advance:%d", tick))
}

type fakeEntity struct {
	id    EntityID
	pop   int
	pos   Pos
	alive bool
	steps int
	w     *fakeWorld
}

func (e *fakeEntity) ID() EntityID    { return e.id }
func (e *fakeEntity) Serial() Serial  { return Serial{Pop: e.pop, ID: e.id} }
func (e *fakeEntity) Population() int { return e.pop }
func (e *fakeEntity) Pos() Pos        { return e.pos }
func (e *fakeEntity) Alive() bool     { return e.alive }

func (e *fakeEntity) Step(w World, d Decision) {
	e.steps++
	e.w.log = append(e.w.log, fmt.Sprintf("step:%d", e.id))
}

// Act logs the application; KILL flips the target's liveness.
func (e *fakeEntity) Act(w World, c Choice) {
	e.w.log = append(e.w.log, fmt.Sprintf("act:%d:%s", e.id, c.Kind.Name))
	if c.Kind.Name == killKind.Name && len(c.Args) > 0 {
		if t := e.w.ents[EntityID(c.Args[0])]; t != nil {
			t.alive = false
		}
	}
}

func (e *fakeEntity) Packet() any { return map[string]any{"id": e.id} }

func fakeFactory(w World, id Identity) Entity {
	fw := w.(*fakeWorld)
	return &fakeEntity{
		id:    id.ID,
		pop:   id.Pop,
		pos:   Pos{R: int(id.ID) % 4, C: int(id.ID) % 3},
		alive: true,
		w:     fw,
	}
}

func newTestRealm(t *testing.T, cfg Config, opts ...Option) (*Realm, *fakeWorld) {
	t.Helper()
	w := newFakeWorld()
	r, err := New(cfg, w, fakeFactory, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, w
}

func kill(target EntityID) Choice {
	return Choice{Kind: killKind, Args: Args{int(target)}}
}

// stepN runs n ticks with no decisions and fails the test on error.
func stepN(t *testing.T, r *Realm, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := r.Step(nil); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
}

func obsIDs(res StepResult) []EntityID {
	ids := make([]EntityID, 0, len(res.Obs))
	for _, o := range res.Obs {
		ids = append(ids, o.ID)
	}
	return ids
}

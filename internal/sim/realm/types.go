package realm

import "fmt"

// EntityID is issued once per admission and never reused.
type EntityID uint64

type Pos struct {
	R int `json:"r"`
	C int `json:"c"`
}

func (p Pos) Add(dr, dc int) Pos { return Pos{R: p.R + dr, C: p.C + dc} }

// Chebyshev returns the king-move distance between two cells.
func Chebyshev(a, b Pos) int {
	dr := a.R - b.R
	if dr < 0 {
		dr = -dr
	}
	dc := a.C - b.C
	if dc < 0 {
		dc = -dc
	}
	if dr > dc {
		return dr
	}
	return dc
}

// Serial tags an entity session. Dones are reported by serial so the
// identifier namespace is never handed back to callers as a "done" key.
type Serial struct {
	Pop int      `json:"pop"`
	ID  EntityID `json:"id"`
}

func (s Serial) String() string { return fmt.Sprintf("%d:%d", s.Pop, s.ID) }

func (s Serial) Less(o Serial) bool {
	if s.ID != o.ID {
		return s.ID < o.ID
	}
	return s.Pop < o.Pop
}

// Identity is what admission hands to the entity factory.
type Identity struct {
	ID    EntityID
	Pop   int
	Name  string
	Color string
}

// World is the spatial collaborator. Adding then removing an entity at the
// same cell must restore the previous occupancy state.
type World interface {
	AddEntity(e Entity)
	RemoveEntity(e Entity)
	Stim(pos Pos, radius int) any
	Advance(tick uint64)
}

// Entity is the per-agent collaborator owned by the realm.
type Entity interface {
	ID() EntityID
	Serial() Serial
	Population() int
	Pos() Pos
	Alive() bool

	// Step evolves entity-internal state before action resolution.
	Step(w World, d Decision)
	// Act applies one prioritized choice.
	Act(w World, c Choice)

	Packet() any
}

// EntityFactory builds a new entity for an admitted identity. The entity's
// initial position must be set before it is returned.
type EntityFactory func(w World, id Identity) Entity

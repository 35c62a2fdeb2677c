package entity

import "github.com/objects-time/neural-mmo/internal/sim/realm"

// Attacks resolve before movement so both sides of a melee exchange land
// their blows in the same tick.
var (
	Melee = realm.ActionKind{Name: "MELEE", Priority: 0}
	Range = realm.ActionKind{Name: "RANGE", Priority: 0}
	Move  = realm.ActionKind{Name: "MOVE", Priority: 1}
)

var kinds = map[string]realm.ActionKind{
	Melee.Name: Melee,
	Range.Name: Range,
	Move.Name:  Move,
}

// Kind resolves an action name from the wire.
func Kind(name string) (realm.ActionKind, bool) {
	k, ok := kinds[name]
	return k, ok
}

func KindNames() []string {
	return []string{Melee.Name, Range.Name, Move.Name}
}

type Dir int

const (
	North Dir = iota
	South
	East
	West
	Stay
)

func (d Dir) Delta() (dr, dc int) {
	switch d {
	case North:
		return -1, 0
	case South:
		return 1, 0
	case East:
		return 0, 1
	case West:
		return 0, -1
	}
	return 0, 0
}

// MoveChoice and AttackChoice build well-formed choices for callers.
func MoveChoice(d Dir) realm.Choice {
	return realm.Choice{Kind: Move, Args: realm.Args{int(d)}}
}

func AttackChoice(kind realm.ActionKind, target realm.EntityID) realm.Choice {
	return realm.Choice{Kind: kind, Args: realm.Args{int(target)}}
}

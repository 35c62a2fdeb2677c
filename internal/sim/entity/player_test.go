package entity

import (
	"math/rand"
	"testing"

	"github.com/objects-time/neural-mmo/internal/sim/grid"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

func flatMap(t *testing.T) *grid.Map {
	t.Helper()
	m := grid.Generate(grid.Config{Rows: 24, Cols: 24, Border: 2, Seed: 3, RegrowTicks: 10})
	for r := 2; r < 22; r++ {
		for c := 2; c < 22; c++ {
			m.SetMaterial(realm.Pos{R: r, C: c}, grid.Grass)
		}
	}
	return m
}

func place(m *grid.Map, id realm.EntityID, pop int, pos realm.Pos) *Player {
	p := NewPlayer(DefaultConfig(), realm.Identity{ID: id, Pop: pop, Name: "p", Color: "#fff"}, pos)
	m.AddEntity(p)
	return p
}

func TestPlayer_ImplementsRealmEntity(t *testing.T) {
	var _ realm.Entity = &Player{}
	var _ Env = &grid.Map{}
}

func TestPlayer_MoveUpdatesOccupancy(t *testing.T) {
	m := flatMap(t)
	p := place(m, 1, 0, realm.Pos{R: 10, C: 10})

	p.Act(m, MoveChoice(North))
	if p.Pos() != (realm.Pos{R: 9, C: 10}) {
		t.Fatalf("pos=%v", p.Pos())
	}
	if m.Tile(realm.Pos{R: 10, C: 10}).Occupied() {
		t.Fatalf("old tile still occupied")
	}
	if got := m.Tile(p.Pos()).Counts(); got[0] != 1 {
		t.Fatalf("new tile counts=%v", got)
	}

	m.SetMaterial(realm.Pos{R: 9, C: 11}, grid.Stone)
	p.Act(m, MoveChoice(East))
	if p.Pos() != (realm.Pos{R: 9, C: 10}) {
		t.Fatalf("moved into stone: %v", p.Pos())
	}
	p.Act(m, realm.Choice{Kind: Move})
	if p.Pos() != (realm.Pos{R: 9, C: 10}) {
		t.Fatalf("choice without args moved the player")
	}
}

func TestPlayer_WalkingIntoLavaKills(t *testing.T) {
	m := flatMap(t)
	p := place(m, 1, 0, realm.Pos{R: 2, C: 10})
	p.Act(m, MoveChoice(North))
	if p.Alive() || p.Health != 0 {
		t.Fatalf("player survived lava: alive=%v hp=%d", p.Alive(), p.Health)
	}
	if !m.Tile(p.Pos()).Occupied() {
		t.Fatalf("dead player must stay on the grid until culled")
	}
}

func TestPlayer_MeleeAndRange(t *testing.T) {
	m := flatMap(t)
	a := place(m, 1, 0, realm.Pos{R: 10, C: 10})
	b := place(m, 2, 1, realm.Pos{R: 10, C: 11})
	c := place(m, 3, 1, realm.Pos{R: 12, C: 12})
	cfg := DefaultConfig()

	a.Act(m, AttackChoice(Melee, 2))
	if b.Health != cfg.MaxHealth-cfg.MeleeDamage || b.LastAttacker != 1 {
		t.Fatalf("melee: hp=%d attacker=%d", b.Health, b.LastAttacker)
	}
	a.Act(m, AttackChoice(Melee, 3))
	if c.Health != cfg.MaxHealth {
		t.Fatalf("melee reached distance 2")
	}
	a.Act(m, AttackChoice(Range, 3))
	if c.Health != cfg.MaxHealth-cfg.RangeDamage {
		t.Fatalf("range: hp=%d", c.Health)
	}
	a.Act(m, AttackChoice(Melee, 1))
	if a.Health != cfg.MaxHealth {
		t.Fatalf("self attack landed")
	}
	for b.Alive() {
		a.Act(m, AttackChoice(Melee, 2))
	}
	if b.Health != 0 {
		t.Fatalf("hp=%d after death", b.Health)
	}
	hp := b.Health
	b.TakeDamage(1, 5)
	if b.Health != hp {
		t.Fatalf("dead player took damage")
	}
}

func TestPlayer_StepVitals(t *testing.T) {
	m := flatMap(t)
	cfg := DefaultConfig()
	p := place(m, 1, 0, realm.Pos{R: 10, C: 10})

	p.Step(m, nil)
	if p.Food != cfg.MaxFood-1 || p.Water != cfg.MaxWater-1 || p.TimeAlive != 1 {
		t.Fatalf("after step: food=%d water=%d alive=%d", p.Food, p.Water, p.TimeAlive)
	}

	m.SetMaterial(realm.Pos{R: 10, C: 10}, grid.Forest)
	m.SetMaterial(realm.Pos{R: 11, C: 10}, grid.Water)
	p.Food, p.Water = 3, 3
	p.Step(m, nil)
	if p.Food != cfg.MaxFood-1 || p.Water != cfg.MaxWater-1 {
		t.Fatalf("resources not gathered: food=%d water=%d", p.Food, p.Water)
	}
	if m.Material(realm.Pos{R: 10, C: 10}) != grid.Scrub {
		t.Fatalf("forest not harvested")
	}
}

func TestPlayer_StarvationKills(t *testing.T) {
	m := flatMap(t)
	p := place(m, 1, 0, realm.Pos{R: 10, C: 10})
	p.Food = 0
	for i := 0; i < 100 && p.Alive(); i++ {
		p.Step(m, nil)
	}
	if p.Alive() {
		t.Fatalf("starving player never died")
	}
	if p.TimeAlive != DefaultConfig().MaxHealth {
		t.Fatalf("time alive=%d want %d", p.TimeAlive, DefaultConfig().MaxHealth)
	}
}

func TestFactory_SpawnsOnRing(t *testing.T) {
	m := flatMap(t)
	spawn := Factory(DefaultConfig(), m, rand.New(rand.NewSource(4)))
	e := spawn(m, realm.Identity{ID: 7, Pop: 1, Name: "Neural_7", Color: "#abc"})
	p := e.(*Player)
	if p.ID() != 7 || p.Population() != 1 || p.Serial() != (realm.Serial{Pop: 1, ID: 7}) {
		t.Fatalf("player=%+v", p)
	}
	pos := p.Pos()
	if pos.R != 2 && pos.R != 21 && pos.C != 2 && pos.C != 21 {
		t.Fatalf("spawned off ring: %v", pos)
	}
	pkt := p.Packet().(Packet)
	if pkt.Name != "Neural_7" || pkt.Color != "#abc" || !pkt.Alive {
		t.Fatalf("packet=%+v", pkt)
	}
}

func TestKind_Lookup(t *testing.T) {
	for _, name := range KindNames() {
		k, ok := Kind(name)
		if !ok || k.Name != name {
			t.Fatalf("kind %q not registered", name)
		}
	}
	if _, ok := Kind("DANCE"); ok {
		t.Fatalf("unknown kind resolved")
	}
	if Melee.Priority >= Move.Priority {
		t.Fatalf("attacks must resolve before movement")
	}
}

// Package entity implements the player agent that lives in a realm.
package entity

import (
	"math/rand"

	"github.com/objects-time/neural-mmo/internal/sim/grid"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

type Config struct {
	MaxHealth int
	MaxFood   int
	MaxWater  int

	MeleeDamage int
	MeleeRange  int
	RangeDamage int
	RangeRange  int
}

func DefaultConfig() Config {
	return Config{
		MaxHealth:   10,
		MaxFood:     32,
		MaxWater:    32,
		MeleeDamage: 3,
		MeleeRange:  1,
		RangeDamage: 2,
		RangeRange:  2,
	}
}

// Env is what a player needs from the world beyond realm.World.
type Env interface {
	realm.World
	Walkable(p realm.Pos) bool
	Material(p realm.Pos) grid.Material
	Harvest(p realm.Pos) bool
	EntitiesAt(p realm.Pos) []realm.Entity
}

type Player struct {
	cfg Config

	id    realm.EntityID
	pop   int
	name  string
	color string
	pos   realm.Pos
	alive bool

	Health int
	Food   int
	Water  int

	TimeAlive int
	// Damage taken this tick, reset by Step.
	Damage int
	// LastAttacker is the most recent entity to damage this player.
	LastAttacker realm.EntityID
}

func NewPlayer(cfg Config, id realm.Identity, pos realm.Pos) *Player {
	return &Player{
		cfg:    cfg,
		id:     id.ID,
		pop:    id.Pop,
		name:   id.Name,
		color:  id.Color,
		pos:    pos,
		alive:  true,
		Health: cfg.MaxHealth,
		Food:   cfg.MaxFood,
		Water:  cfg.MaxWater,
	}
}

// Factory returns a realm.EntityFactory spawning players on the map's spawn
// ring. rng must only be used from the realm goroutine.
func Factory(cfg Config, m *grid.Map, rng *rand.Rand) realm.EntityFactory {
	return func(_ realm.World, id realm.Identity) realm.Entity {
		return NewPlayer(cfg, id, m.SpawnPos(rng))
	}
}

func (p *Player) ID() realm.EntityID { return p.id }
func (p *Player) Population() int    { return p.pop }
func (p *Player) Pos() realm.Pos     { return p.pos }
func (p *Player) Alive() bool        { return p.alive }
func (p *Player) Name() string       { return p.name }
func (p *Player) Color() string      { return p.color }

func (p *Player) Serial() realm.Serial { return realm.Serial{Pop: p.pop, ID: p.id} }

// Step updates vitals: resources are gathered from the current and adjacent
// tiles, then hunger and thirst are paid. Starving or dehydrated players
// lose health, well-fed ones regenerate.
func (p *Player) Step(w realm.World, _ realm.Decision) {
	if !p.alive {
		return
	}
	p.TimeAlive++
	p.Damage = 0
	env, _ := w.(Env)
	if env != nil {
		if env.Harvest(p.pos) {
			p.Food = p.cfg.MaxFood
		}
		if p.nextToWater(env) {
			p.Water = p.cfg.MaxWater
		}
	}

	p.Food = max(p.Food-1, 0)
	p.Water = max(p.Water-1, 0)

	switch {
	case p.Food == 0 || p.Water == 0:
		p.Health--
	case p.Food > p.cfg.MaxFood/2 && p.Water > p.cfg.MaxWater/2:
		p.Health = min(p.Health+1, p.cfg.MaxHealth)
	}
	p.checkAlive()
}

func (p *Player) nextToWater(env Env) bool {
	for _, d := range []Dir{North, South, East, West} {
		dr, dc := d.Delta()
		if env.Material(p.pos.Add(dr, dc)) == grid.Water {
			return true
		}
	}
	return false
}

// Act applies one choice. Dead players and malformed choices do nothing.
func (p *Player) Act(w realm.World, c realm.Choice) {
	if !p.alive {
		return
	}
	env, ok := w.(Env)
	if !ok || len(c.Args) == 0 {
		return
	}
	switch c.Kind.Name {
	case Move.Name:
		p.move(env, Dir(c.Args[0]))
	case Melee.Name:
		p.attack(env, realm.EntityID(c.Args[0]), p.cfg.MeleeRange, p.cfg.MeleeDamage)
	case Range.Name:
		p.attack(env, realm.EntityID(c.Args[0]), p.cfg.RangeRange, p.cfg.RangeDamage)
	}
}

func (p *Player) move(env Env, d Dir) {
	dr, dc := d.Delta()
	if dr == 0 && dc == 0 {
		return
	}
	to := p.pos.Add(dr, dc)
	if !env.Walkable(to) {
		return
	}
	env.RemoveEntity(p)
	p.pos = to
	env.AddEntity(p)
	if env.Material(to) == grid.Lava {
		p.Health = 0
		p.checkAlive()
	}
}

// attack damages target if it stands within rng tiles. The target is found
// through the grid so only entities on the map can be hit.
func (p *Player) attack(env Env, target realm.EntityID, rng, dmg int) {
	if target == p.id {
		return
	}
	for r := p.pos.R - rng; r <= p.pos.R+rng; r++ {
		for c := p.pos.C - rng; c <= p.pos.C+rng; c++ {
			for _, e := range env.EntitiesAt(realm.Pos{R: r, C: c}) {
				if e.ID() != target {
					continue
				}
				if t, ok := e.(*Player); ok {
					t.TakeDamage(p.id, dmg)
				}
				return
			}
		}
	}
}

// TakeDamage applies dmg from attacker; liveness flips once health is gone.
// Dead players stay on the grid until the realm culls them.
func (p *Player) TakeDamage(attacker realm.EntityID, dmg int) {
	if !p.alive || dmg <= 0 {
		return
	}
	p.Health -= dmg
	p.Damage += dmg
	p.LastAttacker = attacker
	p.checkAlive()
}

func (p *Player) checkAlive() {
	if p.Health <= 0 {
		p.Health = 0
		p.alive = false
	}
}

type Packet struct {
	ID        realm.EntityID `json:"id"`
	Name      string         `json:"name"`
	Pop       int            `json:"pop"`
	Color     string         `json:"color"`
	Pos       realm.Pos      `json:"pos"`
	Health    int            `json:"health"`
	Food      int            `json:"food"`
	Water     int            `json:"water"`
	Damage    int            `json:"damage,omitempty"`
	TimeAlive int            `json:"time_alive"`
	Alive     bool           `json:"alive"`
}

func (p *Player) Packet() any {
	return Packet{
		ID:        p.id,
		Name:      p.name,
		Pop:       p.pop,
		Color:     p.color,
		Pos:       p.pos,
		Health:    p.Health,
		Food:      p.Food,
		Water:     p.Water,
		Damage:    p.Damage,
		TimeAlive: p.TimeAlive,
		Alive:     p.alive,
	}
}

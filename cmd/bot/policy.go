package main

import (
	"encoding/json"
	"math/rand"

	"github.com/objects-time/neural-mmo/internal/protocol"
	"github.com/objects-time/neural-mmo/internal/sim/entity"
	"github.com/objects-time/neural-mmo/internal/sim/grid"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

// stim mirrors the grid window wire form.
type stim struct {
	Center   realm.Pos      `json:"center"`
	Radius   int            `json:"radius"`
	Tiles    string         `json:"tiles"`
	Entities []grid.Visible `json:"entities"`
}

// policy attacks the closest visible enemy and otherwise wanders over
// safe tiles.
type policy struct {
	rng *rand.Rand
	cfg entity.Config
}

func newPolicy(rng *rand.Rand) *policy {
	return &policy{rng: rng, cfg: entity.DefaultConfig()}
}

func (p *policy) act(obs protocol.ObsMsg) protocol.ActMsg {
	out := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            obs.Tick,
		Decisions:       make([]protocol.AgentDecision, 0, len(obs.Agents)),
	}
	for _, a := range obs.Agents {
		raw, err := json.Marshal(a.Stim)
		if err != nil {
			continue
		}
		var s stim
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		out.Decisions = append(out.Decisions, protocol.AgentDecision{
			ID:      a.ID,
			Choices: p.decide(a.ID, a.Serial.Pop, s),
		})
	}
	return out
}

func (p *policy) decide(self realm.EntityID, pop int, s stim) []protocol.ChoiceMsg {
	choices := []protocol.ChoiceMsg{}
	if target, dist, ok := nearestEnemy(self, pop, s); ok {
		switch {
		case dist <= p.cfg.MeleeRange:
			choices = append(choices, protocol.ChoiceMsg{Action: entity.Melee.Name, Args: []int{int(target)}})
		case dist <= p.cfg.RangeRange:
			choices = append(choices, protocol.ChoiceMsg{Action: entity.Range.Name, Args: []int{int(target)}})
		}
	}
	if d, ok := p.wander(s); ok {
		choices = append(choices, protocol.ChoiceMsg{Action: entity.Move.Name, Args: []int{int(d)}})
	}
	return choices
}

func nearestEnemy(self realm.EntityID, pop int, s stim) (realm.EntityID, int, bool) {
	var (
		best  realm.EntityID
		bestD = -1
	)
	for _, v := range s.Entities {
		if v.ID == self || v.Pop == pop {
			continue
		}
		d := realm.Chebyshev(s.Center, v.Pos)
		if bestD < 0 || d < bestD || (d == bestD && v.ID < best) {
			best, bestD = v.ID, d
		}
	}
	return best, bestD, bestD >= 0
}

// wander picks a random neighbor that is walkable and not lava.
func (p *policy) wander(s stim) (entity.Dir, bool) {
	mats, err := grid.DecodeRLE(s.Tiles)
	side := 2*s.Radius + 1
	if err != nil || len(mats) != side*side {
		return entity.Stay, false
	}
	var safe []entity.Dir
	for _, d := range []entity.Dir{entity.North, entity.South, entity.East, entity.West} {
		dr, dc := d.Delta()
		m := mats[(s.Radius+dr)*side+(s.Radius+dc)]
		if m.Walkable() && m != grid.Lava {
			safe = append(safe, d)
		}
	}
	if len(safe) == 0 {
		return entity.Stay, false
	}
	return safe[p.rng.Intn(len(safe))], true
}

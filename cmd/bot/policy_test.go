package main

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/objects-time/neural-mmo/internal/protocol"
	"github.com/objects-time/neural-mmo/internal/sim/entity"
	"github.com/objects-time/neural-mmo/internal/sim/grid"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

// window builds a radius-1 view centered on (5,5) whose only safe exit is
// east.
func window(ents ...grid.Visible) any {
	w := grid.Window{
		Center: realm.Pos{R: 5, C: 5},
		Radius: 1,
		Mats: []grid.Material{
			grid.Stone, grid.Water, grid.Stone,
			grid.Lava, grid.Grass, grid.Grass,
			grid.Stone, grid.Stone, grid.Stone,
		},
		Ents: ents,
	}
	b, _ := json.Marshal(w)
	var v any
	_ = json.Unmarshal(b, &v)
	return v
}

func TestPolicy_WandersOnlyToSafeTiles(t *testing.T) {
	p := newPolicy(rand.New(rand.NewSource(1)))
	obs := protocol.ObsMsg{Tick: 3, Agents: []protocol.AgentObs{{
		ID: 1, Serial: realm.Serial{Pop: 0, ID: 1}, Stim: window(grid.Visible{ID: 1, Pop: 0, Pos: realm.Pos{R: 5, C: 5}}),
	}}}
	for i := 0; i < 20; i++ {
		act := p.act(obs)
		if len(act.Decisions) != 1 || act.Tick != 3 {
			t.Fatalf("unexpected act: %+v", act)
		}
		cs := act.Decisions[0].Choices
		if len(cs) != 1 || cs[0].Action != entity.Move.Name || cs[0].Args[0] != int(entity.East) {
			t.Fatalf("expected a move east, got %+v", cs)
		}
	}
}

func TestPolicy_AttacksNearestEnemy(t *testing.T) {
	p := newPolicy(rand.New(rand.NewSource(1)))
	stim := window(
		grid.Visible{ID: 1, Pop: 0, Pos: realm.Pos{R: 5, C: 5}},
		grid.Visible{ID: 2, Pop: 0, Pos: realm.Pos{R: 5, C: 6}},
		grid.Visible{ID: 7, Pop: 1, Pos: realm.Pos{R: 7, C: 5}},
		grid.Visible{ID: 9, Pop: 1, Pos: realm.Pos{R: 4, C: 4}},
	)
	act := p.act(protocol.ObsMsg{Agents: []protocol.AgentObs{{ID: 1, Serial: realm.Serial{Pop: 0, ID: 1}, Stim: stim}}})
	cs := act.Decisions[0].Choices
	if len(cs) != 2 || cs[0].Action != entity.Melee.Name || cs[0].Args[0] != 9 {
		t.Fatalf("expected melee on 9 first, got %+v", cs)
	}

	stim = window(grid.Visible{ID: 7, Pop: 1, Pos: realm.Pos{R: 7, C: 5}})
	act = p.act(protocol.ObsMsg{Agents: []protocol.AgentObs{{ID: 1, Serial: realm.Serial{Pop: 0, ID: 1}, Stim: stim}}})
	if cs := act.Decisions[0].Choices; cs[0].Action != entity.Range.Name || cs[0].Args[0] != 7 {
		t.Fatalf("expected range on 7, got %+v", cs)
	}
}

func TestPolicy_ActValidatesAgainstSchema(t *testing.T) {
	p := newPolicy(rand.New(rand.NewSource(2)))
	act := p.act(protocol.ObsMsg{Tick: 1, Agents: []protocol.AgentObs{{ID: 1, Stim: window()}}})
	b, err := json.Marshal(act)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := protocol.DecodeAct(b); err != nil {
		t.Fatalf("schema: %v\n%s", err, b)
	}
}

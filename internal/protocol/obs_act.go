package protocol

import (
	"fmt"

	"github.com/objects-time/neural-mmo/internal/sim/entity"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

// OBS (server -> controller): one message per tick covering every live
// agent.
type ObsMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	RealmID         string         `json:"realm_id"`
	Tick            uint64         `json:"tick"`
	Agents          []AgentObs     `json:"agents"`
	Dones           []realm.Serial `json:"dones"`
}

type AgentObs struct {
	ID     realm.EntityID `json:"id"`
	Serial realm.Serial   `json:"serial"`
	Reward float64        `json:"reward"`
	Stim   any            `json:"stim"`
}

func NewObs(realmID string, tick uint64, res realm.StepResult) ObsMsg {
	agents := make([]AgentObs, len(res.Obs))
	for i, o := range res.Obs {
		agents[i] = AgentObs{ID: o.ID, Serial: o.Serial, Stim: o.Stim}
		if i < len(res.Rewards) {
			agents[i].Reward = res.Rewards[i]
		}
	}
	dones := res.Dones
	if dones == nil {
		dones = []realm.Serial{}
	}
	return ObsMsg{
		Type:            TypeObs,
		ProtocolVersion: Version,
		RealmID:         realmID,
		Tick:            tick,
		Agents:          agents,
		Dones:           dones,
	}
}

// ACT (controller -> server)
type ActMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Tick            uint64          `json:"tick"`
	Decisions       []AgentDecision `json:"decisions"`
}

// AgentDecision lists one agent's choices in the order they were made.
type AgentDecision struct {
	ID      realm.EntityID `json:"id"`
	Choices []ChoiceMsg    `json:"choices"`
}

type ChoiceMsg struct {
	Action string `json:"action"`
	Args   []int  `json:"args"`
}

// ToDecisions resolves action names. Repeated entries for one agent are
// concatenated in message order.
func (m ActMsg) ToDecisions() (realm.Decisions, error) {
	out := make(realm.Decisions, len(m.Decisions))
	for _, d := range m.Decisions {
		for _, c := range d.Choices {
			kind, ok := entity.Kind(c.Action)
			if !ok {
				return nil, fmt.Errorf("agent %d: unknown action %q", d.ID, c.Action)
			}
			args := make(realm.Args, len(c.Args))
			copy(args, c.Args)
			out[d.ID] = append(out[d.ID], realm.Choice{Kind: kind, Args: args})
		}
		if _, ok := out[d.ID]; !ok {
			out[d.ID] = realm.Decision{}
		}
	}
	return out, nil
}

// CLIENT (server -> observer): renderer view after each tick.
type ClientMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	RealmID         string             `json:"realm_id"`
	Tick            uint64             `json:"tick"`
	Data            realm.ClientPacket `json:"data"`
}

func NewClient(realmID string, tick uint64, data realm.ClientPacket) ClientMsg {
	return ClientMsg{
		Type:            TypeClient,
		ProtocolVersion: Version,
		RealmID:         realmID,
		Tick:            tick,
		Data:            data,
	}
}

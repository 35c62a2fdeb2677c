package realm

// ClientPacket is the renderer/debug view of the realm.
type ClientPacket struct {
	Environment World            `json:"environment"`
	Entities    map[EntityID]any `json:"entities"`
	Values      []any            `json:"values"`
}

// ClientData exports a read-only view between ticks. The environment is the
// live world object, so callers must finish with it before the next tick.
func (r *Realm) ClientData() ClientPacket {
	ents := make(map[EntityID]any, len(r.ents))
	for id, e := range r.ents {
		ents[id] = e.Packet()
	}
	return ClientPacket{
		Environment: r.world,
		Entities:    ents,
		Values:      []any{},
	}
}

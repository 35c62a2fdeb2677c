package realm

// postmortem scans entities that acted this tick without mutating anything.
// Dead ones are returned for removal; their serials become the tick's dones.
func (r *Realm) postmortem(ids []EntityID) (dead []EntityID, dones []DoneRecord) {
	for _, id := range ids {
		ent := r.ents[id]
		if ent.Alive() {
			continue
		}
		dead = append(dead, id)
		dones = append(dones, DoneRecord{Serial: ent.Serial(), Pos: ent.Pos()})
	}
	return dead, dones
}

// cullDead removes entities marked by postmortem from the grid, the ledger,
// and the entity map, in that order.
func (r *Realm) cullDead(dead []EntityID) error {
	for _, id := range dead {
		ent := r.ents[id]
		r.world.RemoveEntity(ent)
		if err := r.spawner.Release(ent.Population()); err != nil {
			return err
		}
		delete(r.ents, id)
		r.counters.deaths++
	}
	return nil
}

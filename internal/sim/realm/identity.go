package realm

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// PopulationFor maps an identifier to a population with a seeded hash, so the
// assignment is reproducible across runs and platforms.
func PopulationFor(seed int64, id EntityID, nPop int) int {
	if nPop <= 1 {
		return 0
	}
	key := strconv.FormatInt(seed, 10) + ":" + strconv.FormatUint(uint64(id), 10)
	return int(xxhash.Sum64String(key) % uint64(nPop))
}

// generateIdentity issues the next identifier. Identifiers are consumed even
// when admission is later refused, so none is ever handed out twice.
func (r *Realm) generateIdentity() (Identity, bool) {
	id := r.nextID
	if id == 0 {
		// Counter wrapped; there is no fresh identifier left.
		return Identity{}, false
	}
	r.nextID++
	pop := PopulationFor(r.cfg.Seed, id, r.cfg.NPop)
	return Identity{
		ID:    id,
		Pop:   pop,
		Name:  fmt.Sprintf("%s%d", r.cfg.NamePrefix, id),
		Color: r.palette.Color(pop),
	}, true
}

// admit makes the tick's single admission attempt. A refusal by the ledger
// is not an error and leaves every structure untouched.
func (r *Realm) admit() (*Admission, error) {
	ident, ok := r.generateIdentity()
	if !ok {
		return nil, ErrNoIdentity
	}
	if _, exists := r.ents[ident.ID]; exists {
		return nil, fmt.Errorf("%w: id=%d", ErrDuplicateEntity, ident.ID)
	}
	if !r.spawner.Admit(ident.Pop) {
		r.counters.refused++
		return nil, nil
	}
	ent := r.spawn(r.world, ident)
	if ent == nil || ent.ID() != ident.ID || ent.Population() != ident.Pop {
		if err := r.spawner.Release(ident.Pop); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: id=%d pop=%d", ErrBadEntity, ident.ID, ident.Pop)
	}
	r.ents[ident.ID] = ent
	r.world.AddEntity(ent)
	r.counters.admitted++
	return &Admission{ID: ident.ID, Pop: ident.Pop, Name: ident.Name, Color: ident.Color}, nil
}

package tuning

import (
	"math/rand"

	"github.com/objects-time/neural-mmo/internal/sim/entity"
	"github.com/objects-time/neural-mmo/internal/sim/grid"
	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

// NewRealm builds the map, the player factory and the realm from t. Two
// realms built from equal tunings and fed equal decisions evolve
// identically, which the journal replay relies on.
func (t Tuning) NewRealm(opts ...realm.Option) (*realm.Realm, *grid.Map, error) {
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}
	m := grid.Generate(t.GridConfig())
	// Only the realm goroutine draws from the spawn rng.
	spawnRNG := rand.New(rand.NewSource(t.Seed))
	r, err := realm.New(t.RealmConfig(), m, entity.Factory(t.PlayerConfig(), m, spawnRNG), opts...)
	if err != nil {
		return nil, nil, err
	}
	return r, m, nil
}

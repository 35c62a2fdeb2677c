// Package realm is the tick-driven core of a persistent multi-agent world.
//
// A Realm owns the live entity set and runs the per-tick pipeline:
// admit, self-step, prioritize, apply, advance world, cull, collect.
package realm

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/objects-time/neural-mmo/internal/sim/palette"
)

type Realm struct {
	cfg     Config
	world   World
	spawn   EntityFactory
	spawner *Spawner
	palette palette.Palette
	reward  RewardFunc

	ents   map[EntityID]Entity
	nextID EntityID
	tick   uint64

	// err is set by the first failed tick; the realm refuses to step after.
	err error

	log       *log.Logger
	tickLog   TickLogger
	observers []TickObserver

	inbox    chan Decisions
	stop     chan struct{}
	stopOnce sync.Once

	counters counters
	metrics  atomic.Value // Metrics
}

type counters struct {
	admitted uint64
	refused  uint64
	deaths   uint64
}

type Option func(*Realm)

func WithLogger(l *log.Logger) Option { return func(r *Realm) { r.log = l } }

func WithTickLogger(t TickLogger) Option { return func(r *Realm) { r.tickLog = t } }

// WithReward replaces the default zero reward.
func WithReward(fn RewardFunc) Option {
	return func(r *Realm) {
		if fn != nil {
			r.reward = fn
		}
	}
}

func WithObserver(o TickObserver) Option {
	return func(r *Realm) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

func New(cfg Config, w World, spawn EntityFactory, opts ...Option) (*Realm, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("realm config: %w", err)
	}
	if w == nil {
		return nil, fmt.Errorf("realm: nil world")
	}
	if spawn == nil {
		return nil, fmt.Errorf("realm: nil entity factory")
	}
	r := &Realm{
		cfg:     cfg,
		world:   w,
		spawn:   spawn,
		spawner: NewSpawner(cfg.NEnt, cfg.NPop),
		palette: palette.New(cfg.NPop),
		reward:  zeroReward,
		ents:    map[EntityID]Entity{},
		nextID:  1,
		inbox:   make(chan Decisions, 256),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.publishMetrics(0)
	return r, nil
}

func (r *Realm) Config() Config      { return r.cfg }
func (r *Realm) World() World        { return r.world }
func (r *Realm) Spawner() *Spawner   { return r.spawner }
func (r *Realm) CurrentTick() uint64 { return r.tick }

// Err reports the error that halted the realm, if any.
func (r *Realm) Err() error { return r.err }

// Entity looks up a live entity.
func (r *Realm) Entity(id EntityID) (Entity, bool) {
	e, ok := r.ents[id]
	return e, ok
}

func (r *Realm) Len() int { return len(r.ents) }

// LiveIDs returns the live entity ids in ascending order.
func (r *Realm) LiveIDs() []EntityID {
	ids := make([]EntityID, 0, len(r.ents))
	for id := range r.ents {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func (r *Realm) logf(format string, args ...any) {
	if r.log != nil {
		r.log.Printf(format, args...)
	}
}

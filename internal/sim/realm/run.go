package realm

import (
	"context"
	"time"
)

// Inbox accepts decisions from transports. Submissions arriving within one
// tick interval are merged per entity in arrival order.
func (r *Realm) Inbox() chan<- Decisions { return r.inbox }

// Run owns the realm until ctx is done, Stop is called, or a tick fails.
// The first tick is a Reset when the realm is fresh.
func (r *Realm) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(r.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if r.tick == 0 {
		res, err := r.Reset()
		if err != nil {
			return err
		}
		r.notify(res)
	}

	pending := Decisions{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case d := <-r.inbox:
			mergeDecisions(pending, d)
		case <-ticker.C:
			res, err := r.Step(r.admissible(pending))
			if err != nil {
				return err
			}
			r.notify(res)
			pending = Decisions{}
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (r *Realm) Stop() { r.stopOnce.Do(func() { close(r.stop) }) }

func (r *Realm) notify(res StepResult) {
	for _, o := range r.observers {
		o.ObserveTick(r, r.tick, res)
	}
}

// admissible drops decisions for entities that are no longer live.
func (r *Realm) admissible(pending Decisions) Decisions {
	out := make(Decisions, len(pending))
	dropped := 0
	for id, d := range pending {
		if _, ok := r.ents[id]; !ok {
			dropped++
			continue
		}
		out[id] = d
	}
	if dropped > 0 {
		r.logf("realm=%s tick=%d dropped %d stale decisions", r.cfg.ID, r.tick+1, dropped)
	}
	return out
}

func mergeDecisions(dst, src Decisions) {
	for id, d := range src {
		dst[id] = append(dst[id], d...)
	}
}

package realm

import (
	"fmt"
	"time"
)

// Step advances the realm one tick using decisions made against the previous
// observation. Every key of decisions must be a live entity.
//
// Any returned error is fatal: the realm is left halted and later calls
// return ErrRealmHalted.
func (r *Realm) Step(decisions Decisions) (StepResult, error) {
	if r.err != nil {
		return StepResult{}, fmt.Errorf("%w: %w", ErrRealmHalted, r.err)
	}
	res, err := r.step(decisions)
	if err != nil {
		r.err = err
		r.publishMetrics(0)
		r.logf("realm=%s tick=%d halted: %v", r.cfg.ID, r.tick, err)
		return StepResult{}, err
	}
	return res, nil
}

// Reset produces the first observation. The realm is persistent, so this is
// only allowed before any tick has run.
func (r *Realm) Reset() (StepResult, error) {
	if r.err != nil {
		return StepResult{}, fmt.Errorf("%w: %w", ErrRealmHalted, r.err)
	}
	if r.tick != 0 {
		r.err = fmt.Errorf("%w: tick=%d", ErrPersistentRealm, r.tick)
		r.publishMetrics(0)
		return StepResult{}, r.err
	}
	return r.Step(nil)
}

func (r *Realm) step(decisions Decisions) (StepResult, error) {
	start := time.Now()
	r.tick++
	tick := r.tick
	entry := TickLogEntry{Tick: tick}

	adm, err := r.admit()
	if err != nil {
		return StepResult{}, err
	}
	entry.Admitted = adm
	entry.Refused = adm == nil

	ids := sortedIDs(decisions)
	entry.Decided = ids
	for _, id := range ids {
		ent, ok := r.ents[id]
		if !ok {
			return StepResult{}, fmt.Errorf("%w: id=%d", ErrUnknownEntity, id)
		}
		ent.Step(r.world, decisions[id])
	}

	entry.Actions = r.act(prioritize(ids, decisions))

	r.world.Advance(tick)

	dead, dones := r.postmortem(ids)
	if err := r.cullDead(dead); err != nil {
		return StepResult{}, err
	}
	entry.Dones = dones

	res := r.collect()
	for _, d := range dones {
		res.Dones = append(res.Dones, d.Serial)
	}

	stepMS := float64(time.Since(start).Microseconds()) / 1000.0
	entry.Alive = len(r.ents)
	entry.StepMS = stepMS
	r.publishMetrics(stepMS)

	if r.tickLog != nil {
		if err := r.tickLog.WriteTick(entry); err != nil {
			r.logf("realm=%s tick=%d tick log: %v", r.cfg.ID, tick, err)
		}
	}
	if r.cfg.LogEveryTicks > 0 && tick%uint64(r.cfg.LogEveryTicks) == 0 {
		r.logf("realm=%s tick=%d alive=%d dones=%d step_ms=%.3f", r.cfg.ID, tick, len(r.ents), len(dones), stepMS)
	}
	return res, nil
}

// act applies tiers in ascending priority so one tier's effects are fully in
// place before the next tier begins.
func (r *Realm) act(tiers []tier) []RecordedAction {
	var recorded []RecordedAction
	for _, t := range tiers {
		for _, pa := range t.acts {
			ent := r.ents[pa.id]
			ent.Act(r.world, pa.choice)
			recorded = append(recorded, RecordedAction{
				ID:       pa.id,
				Action:   pa.choice.Kind.Name,
				Priority: t.priority,
				Args:     pa.choice.Args,
			})
		}
	}
	return recorded
}

// collect builds observations for every live entity, including ones that
// had no decision this tick.
func (r *Realm) collect() StepResult {
	ids := r.LiveIDs()
	res := StepResult{
		Obs:     make([]Observation, 0, len(ids)),
		Rewards: make([]float64, 0, len(ids)),
		Dones:   []Serial{},
	}
	for _, id := range ids {
		ent := r.ents[id]
		pkt := Packet{
			Stim:   r.world.Stim(ent.Pos(), r.cfg.Stim),
			Reward: r.reward(ent),
		}
		res.Obs = append(res.Obs, Observation{ID: id, Serial: ent.Serial(), Stim: pkt.Stim})
		res.Rewards = append(res.Rewards, pkt.Reward)
	}
	return res
}

package realm

// Packet is the per-entity bundle produced for one decision round. Only live
// entities get one; a death is reported through StepResult.Dones instead.
type Packet struct {
	Stim   any
	Reward float64
}

// Observation pairs an entity with its stimulus.
type Observation struct {
	ID     EntityID `json:"id"`
	Serial Serial   `json:"serial"`
	Stim   any      `json:"stim"`
}

// StepResult follows the synchronous step convention: Obs and Rewards are
// aligned and ordered by entity id, Dones lists entities that died this tick.
// Info is reserved and always nil.
type StepResult struct {
	Obs     []Observation
	Rewards []float64
	Dones   []Serial
	Info    any
}

// RewardFunc scores one entity after a tick. The realm's default returns zero
// for everyone.
type RewardFunc func(e Entity) float64

func zeroReward(Entity) float64 { return 0 }

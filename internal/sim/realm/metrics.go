package realm

// Metrics is a read-only view of realm runtime signals. It is stored by the
// realm goroutine and safe to read from any other goroutine.
type Metrics struct {
	RealmID string `json:"realm_id"`
	Tick    uint64 `json:"tick"`

	Entities    int         `json:"entities"`
	Populations map[int]int `json:"populations"`
	EntityCap   int         `json:"entity_cap"`
	SlotSize    int         `json:"slot_size"`

	Admitted uint64 `json:"admitted_total"`
	Refused  uint64 `json:"refused_total"`
	Deaths   uint64 `json:"deaths_total"`

	InboxDepth int     `json:"inbox_depth"`
	StepMS     float64 `json:"step_ms"`
	Halted     bool    `json:"halted"`
}

func (r *Realm) Metrics() Metrics {
	if r == nil {
		return Metrics{}
	}
	v := r.metrics.Load()
	if v == nil {
		return Metrics{}
	}
	m, ok := v.(Metrics)
	if !ok {
		return Metrics{}
	}
	return m
}

func (r *Realm) publishMetrics(stepMS float64) {
	r.metrics.Store(Metrics{
		RealmID:     r.cfg.ID,
		Tick:        r.tick,
		Entities:    len(r.ents),
		Populations: r.spawner.Populations(),
		EntityCap:   r.spawner.Cap(),
		SlotSize:    r.spawner.SlotSize(),
		Admitted:    r.counters.admitted,
		Refused:     r.counters.refused,
		Deaths:      r.counters.deaths,
		InboxDepth:  len(r.inbox),
		StepMS:      stepMS,
		Halted:      r.err != nil,
	})
}

package realm

// TickLogEntry is the journal record emitted at the end of every tick.
type TickLogEntry struct {
	Tick     uint64     `json:"tick"`
	Admitted *Admission `json:"admitted,omitempty"`
	Refused  bool       `json:"refused,omitempty"`
	// Decided lists every entity that submitted a decision, in ascending id
	// order, including ones whose choices were all dropped.
	Decided []EntityID       `json:"decided,omitempty"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Dones   []DoneRecord     `json:"dones,omitempty"`
	Alive   int              `json:"alive"`
	StepMS  float64          `json:"step_ms"`
}

type Admission struct {
	ID    EntityID `json:"id"`
	Pop   int      `json:"pop"`
	Name  string   `json:"name"`
	Color string   `json:"color"`
}

// RecordedAction is an applied choice, in application order.
type RecordedAction struct {
	ID       EntityID `json:"id"`
	Action   string   `json:"action"`
	Priority int      `json:"priority"`
	Args     Args     `json:"args,omitempty"`
}

type DoneRecord struct {
	Serial Serial `json:"serial"`
	Pos    Pos    `json:"pos"`
}

type TickLogger interface {
	WriteTick(e TickLogEntry) error
}

// TickObserver is called on the realm goroutine after each tick. It must not
// retain res or the realm past the call.
type TickObserver interface {
	ObserveTick(r *Realm, tick uint64, res StepResult)
}

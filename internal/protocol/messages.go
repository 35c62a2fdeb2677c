package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
	Role            string `json:"role"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	Role            string      `json:"role"`
	RealmID         string      `json:"realm_id"`
	WorldParams     WorldParams `json:"world_params"`
	Actions         []ActionRef `json:"actions"`
	Palette         []string    `json:"palette"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	Rows       int   `json:"rows"`
	Cols       int   `json:"cols"`
	Stim       int   `json:"stim"`
	NEnt       int   `json:"nent"`
	NPop       int   `json:"npop"`
	Seed       int64 `json:"seed"`
}

// ActionRef advertises an action kind and the tier it resolves in.
type ActionRef struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

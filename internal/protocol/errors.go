package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Realm routing/state.
	ErrRealmBusy   = "E_REALM_BUSY"
	ErrRealmHalted = "E_REALM_HALTED"

	// Action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownAction = "E_UNKNOWN_ACTION"
	ErrNoPermission  = "E_NO_PERMISSION"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrRealmBusy:       {},
	ErrRealmHalted:     {},
	ErrBadRequest:      {},
	ErrUnknownAction:   {},
	ErrNoPermission:    {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// ErrorMsg (server -> client) reports a rejected message. The connection
// stays open unless the code is a protocol error.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
	Tick            uint64 `json:"tick,omitempty"`
}

func NewError(code, msg string, tick uint64) ErrorMsg {
	return ErrorMsg{
		Type:            TypeError,
		ProtocolVersion: Version,
		Code:            code,
		Message:         msg,
		Tick:            tick,
	}
}

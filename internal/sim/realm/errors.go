package realm

import "errors"

// Invariant violations. Any of these aborts the current step and halts the
// realm; see Realm.Err.
var (
	ErrDuplicateEntity = errors.New("realm: duplicate entity id at admission")
	ErrLedgerUnderflow = errors.New("realm: population ledger underflow")
	ErrPersistentRealm = errors.New("realm: persistent realm may only be reset once upon initialization")
	ErrNoIdentity      = errors.New("realm: identity generation yielded no candidate")
	ErrUnknownEntity   = errors.New("realm: decision references an entity that is not alive")
	ErrBadEntity       = errors.New("realm: entity factory returned no entity or one with another identity")

	ErrRealmHalted = errors.New("realm: halted after a failed tick")
)

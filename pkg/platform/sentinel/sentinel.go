package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into protocol errors at the flow
// controller boundary.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity already exists
// - ErrFinalized: grant is in a terminal state, no further transitions
// - ErrAlreadyDecided: interaction already left Pending
// - ErrInvalidState: entity in wrong state for requested operation
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrFinalized      = errors.New("grant finalized")
	ErrAlreadyDecided = errors.New("interaction already decided")
	ErrInvalidState   = errors.New("invalid state")
)

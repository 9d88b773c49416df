package grant

import (
	"fmt"
	"time"

	"grantor/pkg/domain"
	"grantor/pkg/platform/sentinel"
)

// GrantState is the grant lifecycle state.
type GrantState string

const (
	GrantStatePending   GrantState = "pending"
	GrantStateApproved  GrantState = "approved"
	GrantStateFinalized GrantState = "finalized"
)

// GrantFinalization records why a grant reached its terminal state. Present
// only when state is finalized.
type GrantFinalization string

const (
	FinalizationIssued   GrantFinalization = "issued"
	FinalizationRejected GrantFinalization = "rejected"
	FinalizationRevoked  GrantFinalization = "revoked"
)

// Grant records a client's request for delegated access and its lifecycle
// outcome. FinishURI and ClientNonce are supplied by the client at
// grant-request time and immutable afterwards; an empty FinishURI means the
// flow has no finish redirect step.
type Grant struct {
	ID                 domain.GrantID
	State              GrantState
	FinalizationReason GrantFinalization
	FinishURI          string
	ClientNonce        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsFinalized reports whether the grant is in its terminal state.
func (g *Grant) IsFinalized() bool {
	return g.State == GrantStateFinalized
}

// Approve moves the grant to Approved. Legal from Pending and from Approved
// (a repeated finish of the same approved interaction observes no change);
// illegal once finalized so callers can detect replays and races.
func (g *Grant) Approve(now time.Time) error {
	if g.IsFinalized() {
		return fmt.Errorf("approve grant %s: %w", g.ID, sentinel.ErrFinalized)
	}
	g.State = GrantStateApproved
	g.UpdatedAt = now
	return nil
}

// Finalize moves the grant to its terminal state with the given reason.
// Legal from Pending and Approved. Finalizing an already-finalized grant is
// a hard failure even with the same reason, so the first finalization is
// distinguishable from a replay.
func (g *Grant) Finalize(reason GrantFinalization, now time.Time) error {
	if g.IsFinalized() {
		return fmt.Errorf("finalize grant %s: %w", g.ID, sentinel.ErrFinalized)
	}
	g.State = GrantStateFinalized
	g.FinalizationReason = reason
	g.UpdatedAt = now
	return nil
}

package interaction

import (
	"fmt"
	"time"

	"grantor/pkg/domain"
	"grantor/pkg/platform/nonce"
	"grantor/pkg/platform/sentinel"
)

// InteractionState is the consent round-trip state. Pending is the only
// non-terminal state.
type InteractionState string

const (
	StatePending  InteractionState = "pending"
	StateApproved InteractionState = "approved"
	StateDenied   InteractionState = "denied"
)

// Interaction is a single consent round-trip tied to one grant. The (ID,
// Nonce) pair forms the capability every endpoint must present; the id alone
// authorizes nothing. Ref is minted on approval and redeemed by the client
// when it continues the grant.
type Interaction struct {
	ID        domain.InteractionID
	GrantID   domain.GrantID
	Nonce     string
	Ref       string
	State     InteractionState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New mints a pending interaction for the given grant with a fresh
// unguessable id and nonce.
func New(grantID domain.GrantID, now time.Time) *Interaction {
	return &Interaction{
		ID:        domain.NewInteractionID(),
		GrantID:   grantID,
		Nonce:     nonce.New(),
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Approve transitions Pending to Approved and mints the reference the client
// will redeem. Fails once the interaction has been decided.
func (i *Interaction) Approve(now time.Time) error {
	if i.State != StatePending {
		return fmt.Errorf("approve interaction %s: %w", i.ID, sentinel.ErrAlreadyDecided)
	}
	i.State = StateApproved
	i.Ref = nonce.New()
	i.UpdatedAt = now
	return nil
}

// Deny transitions Pending to Denied. No ref is minted for a denial.
func (i *Interaction) Deny(now time.Time) error {
	if i.State != StatePending {
		return fmt.Errorf("deny interaction %s: %w", i.ID, sentinel.ErrAlreadyDecided)
	}
	i.State = StateDenied
	i.UpdatedAt = now
	return nil
}

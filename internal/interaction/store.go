package interaction

import (
	"context"

	"grantor/pkg/domain"
)

// Error contract shared by all implementations:
// - Lookups return ErrNotFound when no interaction matches. FindByIDAndNonce
//   treats a nonce mismatch identically to a missing row so callers cannot
//   distinguish the two.
// - Approve and Deny apply the Pending -> terminal transition as a single
//   atomic conditional update. Of two concurrent deciders exactly one wins;
//   the other gets ErrAlreadyDecided and the stored record is untouched.
type Store interface {
	Create(ctx context.Context, i *Interaction) error
	FindByID(ctx context.Context, id domain.InteractionID) (*Interaction, error)
	FindByIDAndNonce(ctx context.Context, id domain.InteractionID, nonceVal string) (*Interaction, error)

	// Approve decides the interaction, minting its ref, and returns the
	// updated record.
	Approve(ctx context.Context, id domain.InteractionID) (*Interaction, error)

	// Deny decides the interaction and returns the updated record.
	Deny(ctx context.Context, id domain.InteractionID) (*Interaction, error)
}

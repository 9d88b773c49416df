package grant

import (
	"context"

	"grantor/pkg/domain"
)

// Error contract shared by all implementations:
// - FindByID returns ErrNotFound when the grant does not exist.
// - Approve and Finalize apply their transition as a single atomic
//   conditional update; a loser of a concurrent race observes the
//   post-transition state and gets ErrFinalized, never a silent
//   double-apply.
// - Infrastructure failures come back wrapped with context.
type Store interface {
	Create(ctx context.Context, g *Grant) error
	FindByID(ctx context.Context, id domain.GrantID) (*Grant, error)

	// Approve transitions the grant to Approved and returns the updated
	// record. Fails with ErrFinalized when the grant is terminal.
	Approve(ctx context.Context, id domain.GrantID) (*Grant, error)

	// Finalize transitions the grant to Finalized with the given reason
	// and returns the updated record. Fails with ErrFinalized when the
	// grant is already terminal.
	Finalize(ctx context.Context, id domain.GrantID, reason GrantFinalization) (*Grant, error)
}

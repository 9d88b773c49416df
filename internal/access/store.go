package access

import (
	"context"

	"grantor/pkg/domain"
)

// Store persists access records. Records are write-once; there is no update.
type Store interface {
	Create(ctx context.Context, a *Access) error
	ListByGrant(ctx context.Context, grantID domain.GrantID) ([]*Access, error)
}

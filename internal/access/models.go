package access

import (
	"time"

	"grantor/pkg/domain"
)

// AccessType identifies the kind of resource a scope covers.
type AccessType string

const (
	TypeIncomingPayment AccessType = "incoming-payment"
	TypeOutgoingPayment AccessType = "outgoing-payment"
	TypeQuote           AccessType = "quote"
)

// AccessAction is one permitted operation within a scope. The -all variants
// grant visibility across resources created by other clients.
type AccessAction string

const (
	ActionCreate   AccessAction = "create"
	ActionRead     AccessAction = "read"
	ActionReadAll  AccessAction = "read-all"
	ActionList     AccessAction = "list"
	ActionListAll  AccessAction = "list-all"
	ActionComplete AccessAction = "complete"
)

// Access represents one requested delegation scope. Immutable once created;
// a grant may hold several, their union being the requested authority.
type Access struct {
	ID         domain.AccessID
	GrantID    domain.GrantID
	Type       AccessType
	Actions    []AccessAction
	Identifier string
	CreatedAt  time.Time
}

// Item is the external representation handed to the consent provider:
// scope content only, no internal ids.
type Item struct {
	Type       AccessType     `json:"type"`
	Actions    []AccessAction `json:"actions"`
	Identifier string         `json:"identifier,omitempty"`
}

// ToItem strips internal identifiers for the consent UI.
func (a *Access) ToItem() Item {
	return Item{
		Type:       a.Type,
		Actions:    a.Actions,
		Identifier: a.Identifier,
	}
}

// Package domain holds the typed identifiers shared across the grant,
// interaction, and access packages.
//
// IDs are UUIDs wrapped in distinct types so a grant id cannot be passed
// where an interaction id is expected. Construct them via the Parse
// functions at trust boundaries; direct casting bypasses validation.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type GrantID uuid.UUID

type InteractionID uuid.UUID

type AccessID uuid.UUID

// NewGrantID returns a fresh random grant id.
func NewGrantID() GrantID { return GrantID(uuid.New()) }

// NewInteractionID returns a fresh random interaction id. Generated
// independently of the grant id so one is never derivable from the other.
func NewInteractionID() InteractionID { return InteractionID(uuid.New()) }

// NewAccessID returns a fresh random access record id.
func NewAccessID() AccessID { return AccessID(uuid.New()) }

func (id GrantID) String() string       { return uuid.UUID(id).String() }
func (id InteractionID) String() string { return uuid.UUID(id).String() }
func (id AccessID) String() string      { return uuid.UUID(id).String() }

func (id GrantID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id InteractionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AccessID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// ParseGrantID parses external input into a GrantID.
func ParseGrantID(s string) (GrantID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return GrantID{}, err
	}
	return GrantID(u), nil
}

// ParseInteractionID parses external input into an InteractionID.
func ParseInteractionID(s string) (InteractionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return InteractionID{}, err
	}
	return InteractionID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed id: %w", err)
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("id cannot be the nil uuid")
	}
	return u, nil
}

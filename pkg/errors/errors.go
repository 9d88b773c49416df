// Package errors defines the protocol-level error type surfaced by the
// authorization server. Services return these; transport writes the status
// and the wire code without inspecting anything else.
package errors

import "errors"

// Code is the wire-visible error code, matching the GNAP error registry
// values the reference protocol uses.
type Code string

const (
	// CodeUnknownRequest covers missing entities and id+nonce mismatches.
	// Deliberately indistinguishable from nonexistence so interaction ids
	// cannot be enumerated.
	CodeUnknownRequest Code = "unknown_request"
	// CodeInvalidRequest signals a session-binding failure on finish.
	CodeInvalidRequest Code = "invalid_request"
	// CodeInvalidInteraction signals a failed IDP secret check on decision.
	CodeInvalidInteraction Code = "invalid_interaction"
	// CodeNotFound is the generic 404 for malformed choices and missing
	// resources on the trusted IDP channel.
	CodeNotFound Code = "not_found"
	// CodeInternal covers store and infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error carries the HTTP status alongside the code because the same code maps
// to different statuses depending on the operation (unknown_request is 401 on
// start but 404 on finish).
type Error struct {
	Status  int
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New constructs a protocol error with an explicit status.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Is reports whether err is a protocol error with the given code.
func Is(err error, code Code) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// StatusOf returns the HTTP status for err, defaulting to 500 for anything
// that is not a protocol error.
func StatusOf(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Status
	}
	return 500
}

// CodeOf returns the wire code for err, defaulting to internal_error.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}

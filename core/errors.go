package core

import "fmt"

var (
	// ErrSessionNotFound is returned when a session id was never created in
	// the backing store. Callers should treat it as a programming error, not
	// a transient condition.
	ErrSessionNotFound = fmt.Errorf("session not found")

	// ErrMissingIdentity is returned by session creation when the customer
	// context lacks the required identity fields.
	ErrMissingIdentity = fmt.Errorf("customer context missing required identity fields")
)

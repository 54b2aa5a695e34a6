// Package session provides the in-memory SessionStore used by the runtime.
// Lookups of unknown ids are hard failures: the runtime's contract is that a
// message for a session that was never started is a caller error.
package session

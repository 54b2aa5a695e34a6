// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug in
// any structured logger. A contextual DeskLogger adds component and session
// scoping for the runtime and the simulation harness.
package logging

// Package trace implements the per-session append-only event log consumed by
// the simulation engine when it reconstructs what happened during a scenario
// replay.
package trace

// Package simulation implements the scenario replay engine: scripted
// conversations are driven through an injected executor, recorded as
// timelines, scored for quality and judged against their expected outcome.
// The judge package aggregates the per-scenario verdicts produced here into
// a release decision.
package simulation

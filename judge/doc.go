// Package judge aggregates per-scenario verdicts into a release decision. A
// Team holds a fixed weighted roster of judges, runs structural integration
// checks, judges every executed scenario through the simulation engine and
// reaches a SHIP/IMPROVE/BLOCK consensus with training signals derived from
// failures.
package judge

// Package memory implements process-wide key/value session memory. The store
// is volatile by design: durable storage is out of scope, and ClearAll gives
// the simulation harness a clean slate between runs.
package memory

// Package collector implements the append/replay sink for per-iteration
// chain snapshots (spec.md §4.E). The core depends only on the Collector
// interface; Memory and File are the two concrete realizations it ships
// with.
package collector

import "github.com/JoaoHenriqueOliveira/gobayesmix/schema"

// Collector is an append-only sink / replayable source over
// schema.MarginalState snapshots. Ordering is preserved and no record is
// silently dropped; a write failure must abort the run (spec.md §4.E).
type Collector interface {
	// Start opens any underlying resource (e.g. a file handle) and must be
	// called exactly once before the first Append.
	Start() error
	// Append writes one iteration's snapshot. An error here is fatal to the
	// run per spec.md §7.
	Append(state *schema.MarginalState) error
	// Finish releases any underlying resource. It must run on every exit
	// path, including after a fatal error, so that partial chains up to the
	// last completed snapshot are retained (spec.md §5).
	Finish() error
	// BeginReading resets the collector to the start of the recorded
	// sequence for a fresh replay pass.
	BeginReading() error
	// Next returns the next snapshot in order, or ok=false once the
	// sequence is exhausted.
	Next() (state *schema.MarginalState, ok bool, err error)
}

// Package mixing implements the partition-prior contract (spec.md §4.D) and
// two concrete families: the Dirichlet process and the Pitman-Yor process,
// grounded on original_source/src/mixings/dirichlet_mixing.h and
// pityor_mixing.h.
package mixing

import (
	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// Mixing is the capability set a partition prior must satisfy to plug into
// a sampler: the log-mass of joining an existing cluster vs. spawning a new
// one, plus a per-iteration hyperparameter update.
type Mixing interface {
	// MassExistingCluster is the mass of joining a cluster of the given
	// cardinality, given a partition of size n-1 before this observation.
	MassExistingCluster(cardinality, n int, log, propto bool) float64
	// MassNewCluster is the mass of spawning a new cluster, given
	// numClusters existing clusters and n-1 prior observations.
	MassNewCluster(numClusters, n int, log, propto bool) float64
	// UpdateState resamples the mixing's own hyperparameters given the
	// current cluster cardinalities and the total observation count,
	// drawing from src — never a package-level default — so a seeded run
	// replays bit-for-bit. May be a no-op.
	UpdateState(clusterCards []int, n int, src *rng.Source)
	// IsDependent reports whether this mixing consumes covariates. Neither
	// concrete family in this package is dependent.
	IsDependent() bool
	// WriteState serializes the mixing's hyperparameters to the external
	// schema.
	WriteState() schema.MixingState
	// SetState restores hyperparameters from the external schema.
	SetState(schema.MixingState)
}

var (
	_ Mixing = (*DirichletProcess)(nil)
	_ Mixing = (*PitmanYor)(nil)
)

// Package hierarchy implements the per-cluster observation/parameter model
// contract (spec.md §4.C) and two conjugate families: NNW
// (Normal–Normal–Wishart, multivariate) and NNIG (Normal–Normal-Inverse-Gamma,
// univariate). Both are grounded on
// original_source/src/hierarchies/nnw_hierarchy.cc.
package hierarchy

import (
	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// Hierarchy is the capability set every per-cluster model must implement to
// plug into a sampler (spec.md §4.C). x carries optional covariates for a
// dependent hierarchy; both concrete families in this package are
// non-dependent and ignore it.
type Hierarchy interface {
	// Initialize builds the initial state from the shared hyperparameters
	// and clears sufficient statistics. Must be called once before use.
	Initialize()
	// Draw resamples state from the prior centering distribution. It
	// returns an error rather than panicking when a numerical draw (e.g. a
	// Cholesky factorization) fails mid-run, so a caller can surface it as
	// a fatal, traceable failure instead of crashing the process.
	Draw(src *rng.Source) error
	// SampleGivenData resamples state from the posterior given the
	// currently accumulated sufficient statistics. Same error contract as
	// Draw.
	SampleGivenData(src *rng.Source) error
	// AddDatum increments cardinality, records i as assigned, and updates
	// sufficient statistics.
	AddDatum(i int, y, x []float64)
	// RemoveDatum is AddDatum's exact inverse.
	RemoveDatum(i int, y, x []float64)
	// LikeLogProb is the log-likelihood of y under the current state.
	LikeLogProb(y, x []float64) float64
	// LikeLogProbGrid is the vectorized form of LikeLogProb.
	LikeLogProbGrid(Y, X [][]float64) []float64
	// MargLogProb is the prior-predictive log-density of y, integrating
	// state out under the current hyperparameters. Required only by
	// marginal (collapsed) algorithms over conjugate hierarchies.
	MargLogProb(y, x []float64) float64
	// Clone deep-copies state and resets sufficient statistics; the shared
	// hyperparameter bundle is referenced, not copied.
	Clone() Hierarchy
	// UpdateHypers resamples the shared hyperparameters given every
	// cluster's current state, drawing from src (never a package-level
	// default) so a seeded run stays reproducible end to end. May be a
	// no-op; returns an error on numerical failure rather than panicking.
	UpdateHypers(states []schema.ClusterState, src *rng.Source) error
	// WriteState serializes the current state to the external schema.
	WriteState() schema.ClusterState
	// SetState restores state from the external schema.
	SetState(schema.ClusterState)
	// IsDependent reports whether this hierarchy consumes covariates.
	IsDependent() bool
	// Cardinality is the number of observations currently assigned.
	Cardinality() int
	// AssignedIndices returns the observation indices currently assigned,
	// in unspecified order.
	AssignedIndices() []int
}

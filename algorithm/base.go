// Package algorithm implements the outer MCMC state machine (spec.md §4.F):
// the Algorithm owns the data matrix, the allocation vector, the collection
// of unique-value hierarchies, and a Mixing, and drives them through the
// iteration loop described there. Base holds everything shared by the two
// concrete marginal samplers, Neal2 and Neal8, which differ only in how
// they resample allocations — grounded file-for-file on
// original_source/src/algorithms/neal8_algorithm.cc for the auxiliary-block
// bookkeeping and on spec.md §4.F steps (a)-(d) for Neal2.
package algorithm

import (
	"context"

	"github.com/JoaoHenriqueOliveira/gobayesmix/collector"
	"github.com/JoaoHenriqueOliveira/gobayesmix/hierarchy"
	"github.com/JoaoHenriqueOliveira/gobayesmix/mixing"
	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// Base is the shared outer-loop state: the data matrix, the allocation
// vector, the live cluster hierarchies, the Mixing, the Collector the chain
// is emitted to, and the run's own RNG substream. It is not used directly;
// Neal2 and Neal8 embed it.
type Base struct {
	data        [][]float64
	covariates  [][]float64
	allocations []int
	clusters    []hierarchy.Hierarchy
	prototype   hierarchy.Hierarchy
	mix         mixing.Mixing
	coll        collector.Collector
	src         *rng.Source
	cfg         Config
	lastEmitted int
}

func newBase(data [][]float64, covariates [][]float64, prototype hierarchy.Hierarchy, mix mixing.Mixing, coll collector.Collector, opts []Option, forNeal8 bool) (*Base, error) {
	if len(data) == 0 {
		return nil, configErrorf("data", "must contain at least one observation")
	}
	cfg := newConfig(opts)
	if err := cfg.validate(forNeal8); err != nil {
		return nil, err
	}

	b := &Base{
		data:        data,
		covariates:  covariates,
		prototype:   prototype,
		mix:         mix,
		coll:        coll,
		src:         rng.New(cfg.Seed),
		cfg:         cfg,
		lastEmitted: -1,
	}

	initial := prototype.Clone()
	initial.Initialize()
	for i, y := range data {
		initial.AddDatum(i, y, b.covariateAt(i))
	}
	b.clusters = []hierarchy.Hierarchy{initial}
	b.allocations = make([]int, len(data))

	if err := coll.Start(); err != nil {
		return nil, &FatalError{Iteration: -1, Err: err}
	}
	return b, nil
}

func (b *Base) n() int { return len(b.data) }

func (b *Base) numClusters() int { return len(b.clusters) }

func (b *Base) covariateAt(i int) []float64 {
	if b.covariates == nil {
		return nil
	}
	return b.covariates[i]
}

// removeDatum removes observation i from its current cluster, reporting
// whether that cluster is now empty and which cluster index it was. It
// does not compact — the caller decides whether/when to call
// compactCluster, since Neal2 and Neal8 compact at slightly different
// points in the step.
func (b *Base) removeDatum(i int) (nowEmpty bool, clusterIdx int) {
	clusterIdx = b.allocations[i]
	cluster := b.clusters[clusterIdx]
	cluster.RemoveDatum(i, b.data[i], b.covariateAt(i))
	return cluster.Cardinality() == 0, clusterIdx
}

// compactCluster deletes the now-empty cluster at deadIdx and relabels
// every higher allocation down by one, per spec.md §4.F's "renumber higher
// indices down by one".
func (b *Base) compactCluster(deadIdx int) {
	b.clusters = append(b.clusters[:deadIdx], b.clusters[deadIdx+1:]...)
	for i, c := range b.allocations {
		if c > deadIdx {
			b.allocations[i] = c - 1
		}
	}
}

// appendCluster appends a newly materialized cluster and returns its index.
func (b *Base) appendCluster(h hierarchy.Hierarchy) int {
	b.clusters = append(b.clusters, h)
	return len(b.clusters) - 1
}

func (b *Base) assign(i, clusterIdx int) {
	b.allocations[i] = clusterIdx
	b.clusters[clusterIdx].AddDatum(i, b.data[i], b.covariateAt(i))
}

func (b *Base) clusterCardinalities() []int {
	out := make([]int, len(b.clusters))
	for i, c := range b.clusters {
		out[i] = c.Cardinality()
	}
	return out
}

func (b *Base) clusterStates() []schema.ClusterState {
	out := make([]schema.ClusterState, len(b.clusters))
	for i, c := range b.clusters {
		out[i] = c.WriteState()
	}
	return out
}

// emit writes the current full state to the Collector as one iteration's
// snapshot.
func (b *Base) emit(iteration int) error {
	state := &schema.MarginalState{
		Iteration:     iteration,
		ClusterStates: b.clusterStates(),
		Allocations:   append([]int(nil), b.allocations...),
		MixingState:   b.mix.WriteState(),
	}
	if err := b.coll.Append(state); err != nil {
		return err
	}
	b.lastEmitted = iteration
	return nil
}

// runLoop drives the shared five-step iteration (spec.md §4.F): the caller
// supplies step 1 (allocation resampling); steps 2-5 are identical across
// both samplers. It flushes the Collector on every exit path, including a
// fatal error, so partial chains survive (spec.md §5/§7).
func (b *Base) runLoop(ctx context.Context, sampleAllocations func(context.Context) error) (err error) {
	defer func() {
		if ferr := b.coll.Finish(); ferr != nil && err == nil {
			err = &FatalError{Iteration: b.lastEmitted, Err: ferr}
		}
	}()

	total := b.cfg.Burnin + b.cfg.Iterations
	for iter := 0; iter < total; iter++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Step 1: sample_allocations().
		if sErr := sampleAllocations(ctx); sErr != nil {
			return &FatalError{Iteration: b.lastEmitted, Err: sErr}
		}
		// Step 2: sample_unique_values() — each cluster's posterior draw.
		for _, c := range b.clusters {
			if sgErr := c.SampleGivenData(b.src); sgErr != nil {
				return &FatalError{Iteration: b.lastEmitted, Err: sgErr}
			}
		}
		// Step 3: mixing.update_state(clusters, n).
		b.mix.UpdateState(b.clusterCardinalities(), b.n(), b.src)
		// Step 4: update_hypers(all_cluster_states) — the hyperparameter
		// bundle is shared across every cluster of the family (spec.md §9
		// "Hyperparameters ... shared across all clusters"), so a single
		// call through any one cluster mutates it for all.
		if len(b.clusters) > 0 {
			if uhErr := b.clusters[0].UpdateHypers(b.clusterStates(), b.src); uhErr != nil {
				return &FatalError{Iteration: b.lastEmitted, Err: uhErr}
			}
		}
		// Step 5: emit snapshot, post-burn-in only.
		if iter >= b.cfg.Burnin {
			if eErr := b.emit(iter); eErr != nil {
				return &FatalError{Iteration: b.lastEmitted, Err: eErr}
			}
		}
	}
	return nil
}

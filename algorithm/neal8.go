package algorithm

import (
	"context"
	"math"

	"github.com/JoaoHenriqueOliveira/gobayesmix/collector"
	"github.com/JoaoHenriqueOliveira/gobayesmix/dist"
	"github.com/JoaoHenriqueOliveira/gobayesmix/hierarchy"
	"github.com/JoaoHenriqueOliveira/gobayesmix/mixing"
)

// Neal8 is the non-collapsed marginal sampler with m auxiliary blocks kept
// across iterations and reused as scratch (spec.md §9 "Auxiliary blocks
// ... a fixed-length pool pre-allocated at initialization ... do not
// reallocate"). Grounded file-for-file on
// original_source/src/algorithms/neal8_algorithm.cc's sample_allocations.
type Neal8 struct {
	*Base
	aux []hierarchy.Hierarchy
}

// NewNeal8 constructs a Neal8 sampler with cfg.NAux (default 3) auxiliary
// blocks, all cloned from prototype.
func NewNeal8(data [][]float64, prototype hierarchy.Hierarchy, mix mixing.Mixing, coll collector.Collector, opts ...Option) (*Neal8, error) {
	base, err := newBase(data, nil, prototype, mix, coll, opts, true)
	if err != nil {
		return nil, err
	}
	aux := make([]hierarchy.Hierarchy, base.cfg.NAux)
	for i := range aux {
		h := prototype.Clone()
		h.Initialize()
		aux[i] = h
	}
	return &Neal8{Base: base, aux: aux}, nil
}

// Run executes Burnin+Iterations iterations, emitting one snapshot per
// post-burn-in iteration.
func (a *Neal8) Run(ctx context.Context) error {
	return a.runLoop(ctx, a.sampleAllocations)
}

func (a *Neal8) sampleAllocations(ctx context.Context) error {
	m := len(a.aux)
	logM := math.Log(float64(m))

	for i := range a.data {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		kCur := a.numClusters()
		oldIdx := a.allocations[i]
		singleton := a.clusters[oldIdx].Cardinality() <= 1
		if singleton {
			// Preserve the dying cluster's state in auxiliary slot 0 so it
			// remains a candidate — this is what preserves detailed balance
			// (spec.md §9).
			a.aux[0].SetState(a.clusters[oldIdx].WriteState())
		}
		a.clusters[oldIdx].RemoveDatum(i, a.data[i], nil)

		start := 0
		if singleton {
			start = 1
		}
		for j := start; j < m; j++ {
			if err := a.aux[j].Draw(a.src); err != nil {
				return err
			}
		}

		n := a.n()
		logWeights := make([]float64, kCur+m)
		for j, c := range a.clusters {
			logWeights[j] = a.mix.MassExistingCluster(c.Cardinality(), n, true, true) + c.LikeLogProb(a.data[i], nil)
		}
		for j, aux := range a.aux {
			logWeights[kCur+j] = a.mix.MassNewCluster(kCur, n, true, true) + aux.LikeLogProb(a.data[i], nil) - logM
		}

		choice := dist.CategoricalFromLogWeights(a.src, logWeights)
		if choice >= kCur {
			newCluster := a.aux[choice-kCur].Clone()
			idx := a.appendCluster(newCluster)
			a.assign(i, idx)
		} else {
			a.assign(i, choice)
		}

		if singleton {
			a.compactCluster(oldIdx)
		}
	}
	return nil
}

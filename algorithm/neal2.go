package algorithm

import (
	"context"

	"github.com/JoaoHenriqueOliveira/gobayesmix/collector"
	"github.com/JoaoHenriqueOliveira/gobayesmix/dist"
	"github.com/JoaoHenriqueOliveira/gobayesmix/hierarchy"
	"github.com/JoaoHenriqueOliveira/gobayesmix/mixing"
)

// Neal2 is the collapsed (conjugate-only) marginal sampler: new-cluster
// proposals use the prototype hierarchy's prior-predictive density
// (MargLogProb) rather than materializing an auxiliary draw. Grounded on
// spec.md §4.F's Neal2 step list (a)-(d); the prototype must be a
// conjugate hierarchy (NNIG or NNW) since MargLogProb requires it.
type Neal2 struct {
	*Base
}

// NewNeal2 constructs a Neal2 sampler over data (one row per observation),
// seeded from prototype (already configured with its hyperparameters, not
// yet Initialize()'d — Initialize is called internally), mix, and coll.
func NewNeal2(data [][]float64, prototype hierarchy.Hierarchy, mix mixing.Mixing, coll collector.Collector, opts ...Option) (*Neal2, error) {
	base, err := newBase(data, nil, prototype, mix, coll, opts, false)
	if err != nil {
		return nil, err
	}
	return &Neal2{Base: base}, nil
}

// Run executes Burnin+Iterations iterations, emitting one snapshot per
// post-burn-in iteration.
func (a *Neal2) Run(ctx context.Context) error {
	return a.runLoop(ctx, a.sampleAllocations)
}

func (a *Neal2) sampleAllocations(ctx context.Context) error {
	for i := range a.data {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		nowEmpty, oldIdx := a.removeDatum(i)
		if nowEmpty {
			a.compactCluster(oldIdx)
		}

		k := a.numClusters()
		n := a.n()
		logWeights := make([]float64, k+1)
		for j, c := range a.clusters {
			logWeights[j] = a.mix.MassExistingCluster(c.Cardinality(), n, true, true) + c.LikeLogProb(a.data[i], nil)
		}
		logWeights[k] = a.mix.MassNewCluster(k, n, true, true) + a.prototype.MargLogProb(a.data[i], nil)

		choice := dist.CategoricalFromLogWeights(a.src, logWeights)
		if choice == k {
			// Materialize the new cluster: sample its state from the
			// posterior given only y_i, then clear the scratch sufficient
			// stats so assign's AddDatum below is the sole addition.
			newCluster := a.prototype.Clone()
			newCluster.Initialize()
			newCluster.AddDatum(i, a.data[i], nil)
			if err := newCluster.SampleGivenData(a.src); err != nil {
				return err
			}
			newCluster.RemoveDatum(i, a.data[i], nil)
			idx := a.appendCluster(newCluster)
			a.assign(i, idx)
		} else {
			a.assign(i, choice)
		}
	}
	return nil
}

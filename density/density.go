// Package density implements the posterior-predictive grid evaluator
// (spec.md §4.G): given a completed chain and a grid of points, compute the
// log-predictive density at every grid point for every retained iteration.
// Grounded on original_source/src/algorithms/marginal_algorithm.h's
// eval_lpdf / lpdf_from_state pairing, generalized here from the DP-only
// "total_mass" formula spec.md §4.G describes in prose to a call through
// the Mixing interface so the same evaluator also serves Pitman-Yor chains
// (see DESIGN.md).
package density

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/JoaoHenriqueOliveira/gobayesmix/collector"
	"github.com/JoaoHenriqueOliveira/gobayesmix/hierarchy"
	"github.com/JoaoHenriqueOliveira/gobayesmix/mixing"
	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// Evaluate streams a completed chain from coll and returns a T×G matrix of
// log p(y_grid | chain_t), one row per retained iteration in the order the
// Collector replays them, one column per grid point. hierProto and mixProto
// are prototypes of the same families used during sampling: hierProto is
// cloned once per cluster and supplies MargLogProb, and mixProto is set to
// each iteration's mixing state before its masses are read.
//
// A single producer goroutine calls coll.Next and pushes each iteration's
// state onto the job queue as it's read, so the full chain is never
// buffered in memory (spec.md §4.G "must not load the full chain into
// memory") — only as many iterations as there are outstanding jobs (one per
// worker, plus the channel's own slack) are live at once. Per-iteration
// work is fanned out over a bounded pool of workers goroutines; the chain
// is read-only during evaluation (spec.md §5), and the one shared mutable
// value, mixProto, is set and read under a mutex.
func Evaluate(ctx context.Context, coll collector.Collector, hierProto hierarchy.Hierarchy, mixProto mixing.Mixing, grid [][]float64, workers int) (*mat.Dense, error) {
	if workers < 1 {
		workers = 1
	}
	if err := coll.BeginReading(); err != nil {
		return nil, fmt.Errorf("density: begin reading: %w", err)
	}

	type job struct {
		row   int
		state *schema.MarginalState
	}
	type result struct {
		row  int
		vals []float64
	}
	jobs := make(chan job, workers)
	results := make(chan result)
	errs := make(chan error, 1)
	reportErr := func(err error) {
		select {
		case errs <- err:
		default:
		}
	}

	var mixMu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					reportErr(ctx.Err())
					continue
				default:
				}
				results <- result{row: j.row, vals: evaluateIteration(j.state, hierProto, mixProto, &mixMu, grid)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		row := 0
		for {
			select {
			case <-ctx.Done():
				reportErr(ctx.Err())
				return
			default:
			}
			state, ok, err := coll.Next()
			if err != nil {
				reportErr(fmt.Errorf("density: read iteration: %w", err))
				return
			}
			if !ok {
				return
			}
			jobs <- job{row: row, state: state}
			row++
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []result
	for r := range results {
		collected = append(collected, r)
	}

	select {
	case err := <-errs:
		return nil, err
	default:
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].row < collected[j].row })
	out := mat.NewDense(len(collected), len(grid), nil)
	for i, r := range collected {
		out.SetRow(i, r.vals)
	}
	return out, nil
}

func evaluateIteration(state *schema.MarginalState, hierProto hierarchy.Hierarchy, mixProto mixing.Mixing, mixMu *sync.Mutex, grid [][]float64) []float64 {
	n := len(state.Allocations)
	k := len(state.ClusterStates)

	// mixProto is shared by every worker, so its state is set and the
	// masses (which do not depend on the grid point) are read under mixMu.
	// n_j/(n+M): pass n+1 to reuse mass_existing_cluster's (n-1+M)
	// denominator as (n+M).
	logMass := make([]float64, k+1)
	mixMu.Lock()
	mixProto.SetState(state.MixingState)
	for j, cs := range state.ClusterStates {
		logMass[j] = mixProto.MassExistingCluster(cs.Cardinality, n+1, true, false)
	}
	logMass[k] = mixProto.MassNewCluster(k, n+1, true, false)
	mixMu.Unlock()

	clusters := make([]hierarchy.Hierarchy, k)
	for j, cs := range state.ClusterStates {
		h := hierProto.Clone()
		h.SetState(cs)
		clusters[j] = h
	}

	row := make([]float64, len(grid))
	terms := make([]float64, k+1)
	for g, x := range grid {
		for j := range clusters {
			terms[j] = logMass[j] + clusters[j].LikeLogProb(x, nil)
		}
		terms[k] = logMass[k] + hierProto.MargLogProb(x, nil)
		row[g] = floats.LogSumExp(terms)
	}
	return row
}

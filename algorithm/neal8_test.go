package algorithm

import (
	"context"
	"testing"

	"github.com/JoaoHenriqueOliveira/gobayesmix/collector"
	"github.com/JoaoHenriqueOliveira/gobayesmix/hierarchy"
	"github.com/JoaoHenriqueOliveira/gobayesmix/mixing"
)

// TestNeal8InvariantsHoldEveryIteration checks spec.md §8 invariants 1 and 3
// after every emitted snapshot: allocations cover exactly {0,...,K-1} and
// cardinalities sum to n.
func TestNeal8InvariantsHoldEveryIteration(t *testing.T) {
	data := rowData(1.0, 1.1, 0.9, 5.0, 5.2, 4.8)
	hypers, err := hierarchy.NewNNIGHypers(0, 0.1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	proto := hierarchy.NewNNIG(hypers)
	dp, err := mixing.NewDirichletProcess(1.0)
	if err != nil {
		t.Fatal(err)
	}
	coll := collector.NewMemory()
	alg, err := NewNeal8(data, proto, dp, coll, WithSeed(11), WithBurnin(20), WithIterations(50), WithNAux(3))
	if err != nil {
		t.Fatal(err)
	}
	if err := alg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if err := coll.BeginReading(); err != nil {
		t.Fatal(err)
	}
	for {
		state, ok, err := coll.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		k := len(state.ClusterStates)
		seen := make([]int, k)
		for _, c := range state.Allocations {
			if c < 0 || c >= k {
				t.Fatalf("iteration %d: allocation %d out of range [0,%d)", state.Iteration, c, k)
			}
			seen[c]++
		}
		total := 0
		for j, cs := range state.ClusterStates {
			if seen[j] == 0 {
				t.Fatalf("iteration %d: cluster %d has no assigned observations", state.Iteration, j)
			}
			if seen[j] != cs.Cardinality {
				t.Fatalf("iteration %d: cluster %d cardinality %d != observed %d", state.Iteration, j, cs.Cardinality, seen[j])
			}
			total += cs.Cardinality
		}
		if total != len(data) {
			t.Fatalf("iteration %d: cardinalities sum to %d, want %d", state.Iteration, total, len(data))
		}
	}
}

func TestNeal8RejectsZeroAuxBlocks(t *testing.T) {
	data := rowData(1.0, 2.0)
	hypers, _ := hierarchy.NewNNIGHypers(0, 0.1, 2, 2)
	proto := hierarchy.NewNNIG(hypers)
	dp, _ := mixing.NewDirichletProcess(1.0)
	coll := collector.NewMemory()
	if _, err := NewNeal8(data, proto, dp, coll, WithNAux(0)); err == nil {
		t.Fatal("expected ConfigError for n_aux=0")
	}
}

// TestNeal8Reproducible mirrors TestNeal2Reproducible for the auxiliary
// sampler.
func TestNeal8Reproducible(t *testing.T) {
	run := func() []int {
		data := rowData(1.0, 1.1, 0.9, 5.0, 5.2, 4.8)
		hypers, _ := hierarchy.NewNNIGHypers(0, 0.1, 2, 2)
		proto := hierarchy.NewNNIG(hypers)
		dp, _ := mixing.NewDirichletProcess(1.0)
		coll := collector.NewMemory()
		alg, err := NewNeal8(data, proto, dp, coll, WithSeed(3), WithBurnin(5), WithIterations(15), WithNAux(3))
		if err != nil {
			t.Fatal(err)
		}
		if err := alg.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		coll.BeginReading()
		var ks []int
		for {
			s, ok, err := coll.Next()
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				break
			}
			ks = append(ks, len(s.ClusterStates))
		}
		return ks
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("iteration %d: cluster count %d vs %d, same-seed runs diverged", i, a[i], b[i])
		}
	}
}

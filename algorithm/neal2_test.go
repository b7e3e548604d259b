package algorithm

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/JoaoHenriqueOliveira/gobayesmix/collector"
	"github.com/JoaoHenriqueOliveira/gobayesmix/hierarchy"
	"github.com/JoaoHenriqueOliveira/gobayesmix/mixing"
)

func rowData(vals ...float64) [][]float64 {
	out := make([][]float64, len(vals))
	for i, v := range vals {
		out[i] = []float64{v}
	}
	return out
}

// TestNeal2ConjugateUnivariateTwoClusters is scenario 1 of spec.md §8.
func TestNeal2ConjugateUnivariateTwoClusters(t *testing.T) {
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
	alg, err := NewNeal2(data, proto, dp, coll, WithSeed(42), WithBurnin(500), WithIterations(1000))
	if err != nil {
		t.Fatal(err)
	}
	if err := alg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if err := coll.BeginReading(); err != nil {
		t.Fatal(err)
	}
	counts := make(map[int]int)
	var last *struct {
		k     int
		means []float64
	}
	for {
		state, ok, err := coll.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		counts[len(state.ClusterStates)]++
		means := make([]float64, len(state.ClusterStates))
		for i, cs := range state.ClusterStates {
			means[i] = cs.Uni.Mean
		}
		sort.Float64s(means)
		last = &struct {
			k     int
			means []float64
		}{len(state.ClusterStates), means}
	}
	if last == nil {
		t.Fatal("no iterations emitted")
	}

	mode, modeCount := 0, 0
	for k, c := range counts {
		if c > modeCount {
			mode, modeCount = k, c
		}
	}
	if mode != 2 {
		t.Errorf("posterior mode number of clusters = %d, want 2 (counts=%v)", mode, counts)
	}

	if last.k == 2 {
		if math.Abs(last.means[0]-1.0) > 0.5 || math.Abs(last.means[1]-5.0) > 0.5 {
			t.Errorf("final cluster means %v not near {1.0, 5.0}", last.means)
		}
	}
}

func TestNeal2RejectsEmptyData(t *testing.T) {
	hypers, _ := hierarchy.NewNNIGHypers(0, 0.1, 2, 2)
	proto := hierarchy.NewNNIG(hypers)
	dp, _ := mixing.NewDirichletProcess(1.0)
	coll := collector.NewMemory()
	if _, err := NewNeal2(nil, proto, dp, coll); err == nil {
		t.Fatal("expected ConfigError for empty data")
	}
}

// TestNeal2Reproducible checks scenario 6 of spec.md §8 on the cluster
// count: two runs with identical seed and config must emit the same number
// of clusters at every retained iteration.
func TestNeal2Reproducible(t *testing.T) {
	run := func() []int {
		data := rowData(1.0, 1.1, 0.9, 5.0, 5.2, 4.8)
		hypers, _ := hierarchy.NewNNIGHypers(0, 0.1, 2, 2)
		proto := hierarchy.NewNNIG(hypers)
		dp, _ := mixing.NewDirichletProcess(1.0)
		coll := collector.NewMemory()
		alg, err := NewNeal2(data, proto, dp, coll, WithSeed(7), WithBurnin(10), WithIterations(20))
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

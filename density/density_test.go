package density

import (
	"context"
	"math"
	"testing"

	"github.com/JoaoHenriqueOliveira/gobayesmix/collector"
	"github.com/JoaoHenriqueOliveira/gobayesmix/hierarchy"
	"github.com/JoaoHenriqueOliveira/gobayesmix/mixing"
	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

func buildTwoIterationChain(t *testing.T) *collector.Memory {
	t.Helper()
	coll := collector.NewMemory()
	if err := coll.Start(); err != nil {
		t.Fatal(err)
	}
	states := []*schema.MarginalState{
		{
			Iteration: 0,
			ClusterStates: []schema.ClusterState{
				{Cardinality: 2, Uni: &schema.UniLSState{Mean: 1.0, Var: 0.5}},
				{Cardinality: 2, Uni: &schema.UniLSState{Mean: 5.0, Var: 0.5}},
			},
			Allocations: []int{0, 0, 1, 1},
			MixingState: schema.MixingState{DirichletProcess: &schema.DPState{TotalMass: 1.0}},
		},
		{
			Iteration: 1,
			ClusterStates: []schema.ClusterState{
				{Cardinality: 4, Uni: &schema.UniLSState{Mean: 3.0, Var: 2.0}},
			},
			Allocations: []int{0, 0, 0, 0},
			MixingState: schema.MixingState{DirichletProcess: &schema.DPState{TotalMass: 1.0}},
		},
	}
	for _, s := range states {
		if err := coll.Append(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := coll.Finish(); err != nil {
		t.Fatal(err)
	}
	return coll
}

func TestEvaluateShapeAndFiniteness(t *testing.T) {
	coll := buildTwoIterationChain(t)
	hypers, err := hierarchy.NewNNIGHypers(0, 0.1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	hierProto := hierarchy.NewNNIG(hypers)
	mixProto, err := mixing.NewDirichletProcess(1.0)
	if err != nil {
		t.Fatal(err)
	}
	grid := [][]float64{{1.0}, {3.0}, {5.0}}

	out, err := Evaluate(context.Background(), coll, hierProto, mixProto, grid, 2)
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := out.Dims()
	if rows != 2 || cols != 3 {
		t.Fatalf("Dims() = (%d, %d), want (2, 3)", rows, cols)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := out.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("out[%d][%d] = %v, want finite", r, c, v)
			}
		}
	}
}

func TestEvaluateSingleWorkerMatchesMultipleWorkers(t *testing.T) {
	hypers, _ := hierarchy.NewNNIGHypers(0, 0.1, 2, 2)
	grid := [][]float64{{1.0}, {3.0}, {5.0}}

	run := func(workers int) *float64 {
		coll := buildTwoIterationChain(t)
		hierProto := hierarchy.NewNNIG(hypers)
		mixProto, _ := mixing.NewDirichletProcess(1.0)
		out, err := Evaluate(context.Background(), coll, hierProto, mixProto, grid, workers)
		if err != nil {
			t.Fatal(err)
		}
		v := out.At(0, 1)
		return &v
	}

	a, b := run(1), run(4)
	if math.Abs(*a-*b) > 1e-12 {
		t.Errorf("result depends on worker count: %v (1 worker) vs %v (4 workers)", *a, *b)
	}
}

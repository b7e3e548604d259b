package algorithm

import (
	"testing"

	"github.com/JoaoHenriqueOliveira/gobayesmix/collector"
	"github.com/JoaoHenriqueOliveira/gobayesmix/hierarchy"
	"github.com/JoaoHenriqueOliveira/gobayesmix/mixing"
)

// TestCompactionRelabelsAllocations is scenario 3 of spec.md §8: assign n=4
// observations to 3 clusters, then in a single allocation step move the
// sole occupant of cluster 1 to cluster 2; expect final K=2 with old
// cluster 2 relabeled to 1.
func TestCompactionRelabelsAllocations(t *testing.T) {
	data := rowData(1.0, 1.1, 9.0, 9.1)
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
	alg, err := NewNeal2(data, proto, dp, coll, WithIterations(0))
	if err != nil {
		t.Fatal(err)
	}
	b := alg.Base

	// Rebuild three clusters by hand: 0 -> {0,1}, 1 -> {2} (singleton), 2 -> {3}.
	c0 := proto.Clone()
	c0.Initialize()
	c0.AddDatum(0, data[0], nil)
	c0.AddDatum(1, data[1], nil)
	c1 := proto.Clone()
	c1.Initialize()
	c1.AddDatum(2, data[2], nil)
	c2 := proto.Clone()
	c2.Initialize()
	c2.AddDatum(3, data[3], nil)
	b.clusters = []hierarchy.Hierarchy{c0, c1, c2}
	b.allocations = []int{0, 0, 1, 2}

	// Move observation 2 (the sole occupant of cluster 1) into cluster 2.
	nowEmpty, oldIdx := b.removeDatum(2)
	if !nowEmpty || oldIdx != 1 {
		t.Fatalf("removeDatum(2) = (%v, %d), want (true, 1)", nowEmpty, oldIdx)
	}
	b.assign(2, 2)
	b.compactCluster(oldIdx)

	if got := b.numClusters(); got != 2 {
		t.Fatalf("numClusters() = %d, want 2", got)
	}
	want := []int{0, 0, 1, 1}
	for i, c := range b.allocations {
		if c != want[i] {
			t.Errorf("allocations[%d] = %d, want %d (allocations=%v)", i, c, want[i], b.allocations)
		}
	}
	if card := b.clusters[1].Cardinality(); card != 2 {
		t.Errorf("new cluster 1 cardinality = %d, want 2", card)
	}
}

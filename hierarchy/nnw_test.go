package hierarchy

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
)

func newTestNNWHypers(t *testing.T, dim int) *NNWHypers {
	t.Helper()
	mean := make([]float64, dim)
	scale := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		scale.SetSym(i, i, 1)
	}
	hypers, err := NewNNWHypersFixed(mean, 0.01, scale, float64(dim)+2)
	if err != nil {
		t.Fatal(err)
	}
	return hypers
}

func TestNNWAddRemoveDatumRoundTrips(t *testing.T) {
	hypers := newTestNNWHypers(t, 2)
	h := NewNNW(hypers)
	h.Initialize()

	h.AddDatum(0, []float64{1, 2}, nil)
	h.AddDatum(1, []float64{-1, 0.5}, nil)
	wantSum := append([]float64(nil), h.dataSum...)
	wantCard := h.card
	var wantSumSq mat.SymDense
	wantSumSq.CopySym(h.dataSumSq)

	h.AddDatum(2, []float64{3, 3}, nil)
	h.RemoveDatum(2, []float64{3, 3}, nil)

	for i := range h.dataSum {
		if math.Abs(h.dataSum[i]-wantSum[i]) > 1e-9 {
			t.Fatalf("dataSum[%d] = %v, want %v", i, h.dataSum[i], wantSum[i])
		}
	}
	if h.card != wantCard {
		t.Fatalf("card = %d, want %d", h.card, wantCard)
	}
	for i := 0; i < 2; i++ {
		for j := i; j < 2; j++ {
			if math.Abs(h.dataSumSq.At(i, j)-wantSumSq.At(i, j)) > 1e-9 {
				t.Fatalf("dataSumSq[%d][%d] = %v, want %v", i, j, h.dataSumSq.At(i, j), wantSumSq.At(i, j))
			}
		}
	}
}

// TestNNWPosteriorMeanNearOrigin is scenario 4 of spec.md §8: d=2, n=50 data
// drawn from N((0,0), I); after a posterior draw under (μ₀=0, λ₀=0.01,
// Ψ=I, ν₀=4) the sampled mean should lie close to the origin.
func TestNNWPosteriorMeanNearOrigin(t *testing.T) {
	hypers := newTestNNWHypers(t, 2)
	h := NewNNW(hypers)
	h.Initialize()

	src := rng.New(7)
	for i := 0; i < 50; i++ {
		y := []float64{src.NormFloat64(), src.NormFloat64()}
		h.AddDatum(i, y, nil)
	}
	if err := h.SampleGivenData(src); err != nil {
		t.Fatal(err)
	}
	state := h.WriteState()
	dist := math.Hypot(state.Multi.Mean.Data[0], state.Multi.Mean.Data[1])
	if dist > 0.6 {
		t.Errorf("posterior mean %v too far from origin (||.||=%v)", state.Multi.Mean.Data, dist)
	}
}

func TestNNWCholeskyInvariantAfterDraw(t *testing.T) {
	hypers := newTestNNWHypers(t, 2)
	h := NewNNW(hypers)
	h.Initialize()
	if err := h.Draw(rng.New(3)); err != nil {
		t.Fatal(err)
	}

	u := h.prec.U()
	var recon mat.Dense
	recon.Mul(u.T(), u)
	var logDiag float64
	for i := 0; i < 2; i++ {
		logDiag += 2 * math.Log(u.At(i, i))
	}
	if math.Abs(logDiag-h.prec.LogDet()) > 1e-9 {
		t.Errorf("cached logDet mismatch: %v vs recomputed %v", h.prec.LogDet(), logDiag)
	}
}

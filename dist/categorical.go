package dist

import (
	"math"

	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
)

// CategoricalFromLogWeights draws a category index from an unnormalized
// log-weight vector using a numerically stable softmax (max-subtraction)
// followed by an inverse-CDF draw. Ties between numerically indistinguishable
// weights resolve deterministically toward the lower index, since the
// cumulative sum is scanned in increasing order and the draw stops at the
// first bucket whose cumulative probability meets or exceeds it — the tie
// policy spec.md §4.F requires for reproducible chains.
func CategoricalFromLogWeights(src *rng.Source, logWeights []float64) int {
	if len(logWeights) == 0 {
		panic("dist: categorical: empty weight vector")
	}
	max := logWeights[0]
	for _, w := range logWeights[1:] {
		if w > max {
			max = w
		}
	}
	weights := make([]float64, len(logWeights))
	sum := 0.0
	for i, w := range logWeights {
		e := math.Exp(w - max)
		weights[i] = e
		sum += e
	}
	u := src.Float64() * sum
	cum := 0.0
	for i, w := range weights {
		cum += w
		if u <= cum {
			return i
		}
	}
	// Floating-point rounding may leave a residual; the last index absorbs it.
	return len(weights) - 1
}

// SoftmaxLogWeights normalizes a log-weight vector into a probability vector
// via max-subtracted softmax, exposed separately for callers (e.g. tests)
// that want the normalized weights without drawing a sample.
func SoftmaxLogWeights(logWeights []float64) []float64 {
	max := logWeights[0]
	for _, w := range logWeights[1:] {
		if w > max {
			max = w
		}
	}
	out := make([]float64, len(logWeights))
	sum := 0.0
	for i, w := range logWeights {
		e := math.Exp(w - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

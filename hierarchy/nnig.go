package hierarchy

import (
	"github.com/JoaoHenriqueOliveira/gobayesmix/dist"
	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// NNIGPriorMode mirrors NNWPriorMode for the univariate family.
type NNIGPriorMode int

const (
	NNIGFixed NNIGPriorMode = iota
	NNIGNormalMeanPrior
)

// NNIGHypers is the univariate analogue of NNWHypers: (μ₀, λ₀, α₀, β₀) with
// an inverse-gamma prior on the variance.
type NNIGHypers struct {
	Mean       float64
	VarScaling float64
	Shape      float64
	Rate       float64
	Mode       NNIGPriorMode
}

// NNIGNormalMeanHyperPrior configures NNIGNormalMeanPrior mode.
type NNIGNormalMeanHyperPrior struct {
	Mean0 float64
	Var0  float64
}

// NewNNIGHypers validates and returns a fixed-hyperparameter bundle.
func NewNNIGHypers(mean, varScaling, shape, rate float64) (*NNIGHypers, error) {
	if varScaling <= 0 {
		return nil, errorf("var_scaling", "must be > 0")
	}
	if shape <= 0 {
		return nil, errorf("shape", "must be > 0")
	}
	if rate <= 0 {
		return nil, errorf("rate", "must be > 0")
	}
	return &NNIGHypers{Mean: mean, VarScaling: varScaling, Shape: shape, Rate: rate, Mode: NNIGFixed}, nil
}

// NNIG is the univariate Normal–Normal-Inverse-Gamma hierarchy: per-cluster
// state (μ, σ²). Grounded on the scalar specialization of
// nnw_hierarchy.cc's update equations (spec.md §4.C "NNIG... univariate
// analogue").
type NNIG struct {
	hypers *NNIGHypers
	prior  *NNIGNormalMeanHyperPrior

	mean float64
	prec float64 // 1/var

	dataSum   float64
	dataSumSq float64
	card      int
	assigned  map[int]struct{}
}

// NewNNIG constructs an uninitialized NNIG hierarchy sharing hypers.
func NewNNIG(hypers *NNIGHypers) *NNIG {
	return &NNIG{hypers: hypers, assigned: make(map[int]struct{})}
}

// WithNormalMeanPrior configures the NNIGNormalMeanPrior hyperprior mode.
func (h *NNIG) WithNormalMeanPrior(p *NNIGNormalMeanHyperPrior) *NNIG {
	h.hypers.Mode = NNIGNormalMeanPrior
	h.prior = p
	return h
}

func (h *NNIG) clearSuffStats() {
	h.dataSum, h.dataSumSq, h.card = 0, 0, 0
	h.assigned = make(map[int]struct{})
}

func (h *NNIG) Initialize() {
	h.mean = h.hypers.Mean
	h.prec = h.hypers.VarScaling // arbitrary centering precision, like NNW's λ₀·I
	h.clearSuffStats()
}

func (h *NNIG) Cardinality() int { return h.card }

func (h *NNIG) AssignedIndices() []int {
	out := make([]int, 0, len(h.assigned))
	for i := range h.assigned {
		out = append(out, i)
	}
	return out
}

func (h *NNIG) IsDependent() bool { return false }

func (h *NNIG) AddDatum(i int, y, _ []float64) {
	h.assigned[i] = struct{}{}
	h.card++
	h.dataSum += y[0]
	h.dataSumSq += y[0] * y[0]
}

func (h *NNIG) RemoveDatum(i int, y, _ []float64) {
	delete(h.assigned, i)
	h.card--
	h.dataSum -= y[0]
	h.dataSumSq -= y[0] * y[0]
}

// normalInverseGammaUpdate mirrors NNW's normalWishartUpdate in the scalar
// case: λₙ = λ₀+n, shapeₙ = α₀+n/2, μₙ = (λ₀μ₀+n ȳ)/λₙ,
// rateₙ = β₀ + ½[Σy² − n ȳ² + (nλ₀/λₙ)(ȳ−μ₀)²].
func (h *NNIG) normalInverseGammaUpdate() (meanN, lambdaN, shapeN, rateN float64) {
	n := float64(h.card)
	lambdaN = h.hypers.VarScaling + n
	shapeN = h.hypers.Shape + 0.5*n
	muBar := h.dataSum / n
	meanN = (h.hypers.VarScaling*h.hypers.Mean + n*muBar) / lambdaN
	scatter := h.dataSumSq - n*muBar*muBar
	corr := (n * h.hypers.VarScaling / lambdaN) * (muBar - h.hypers.Mean) * (muBar - h.hypers.Mean)
	rateN = h.hypers.Rate + 0.5*(scatter+corr)
	return
}

func (h *NNIG) Draw(src *rng.Source) error {
	varNew := 1 / sampleGamma(src, h.hypers.Shape, h.hypers.Rate)
	h.prec = 1 / varNew
	h.mean = dist.UnivariateNormalRand(src, h.hypers.Mean, h.hypers.VarScaling*h.prec)
	return nil
}

func (h *NNIG) SampleGivenData(src *rng.Source) error {
	meanN, lambdaN, shapeN, rateN := h.normalInverseGammaUpdate()
	varNew := 1 / sampleGamma(src, shapeN, rateN)
	h.prec = 1 / varNew
	h.mean = dist.UnivariateNormalRand(src, meanN, lambdaN*h.prec)
	return nil
}

func (h *NNIG) LikeLogProb(y, _ []float64) float64 {
	return dist.UnivariateNormalLogProb(y[0], h.mean, h.prec)
}

func (h *NNIG) LikeLogProbGrid(Y, _ [][]float64) []float64 {
	out := make([]float64, len(Y))
	for i, y := range Y {
		out[i] = h.LikeLogProb(y, nil)
	}
	return out
}

// MargLogProb is the prior-predictive log-density: a Student-t with dof
// 2α₀, location μ₀, and scale β₀(λ₀+1)/(α₀λ₀), the scalar reduction of
// NNW's marginal.
func (h *NNIG) MargLogProb(y, _ []float64) float64 {
	nuN := 2 * h.hypers.Shape
	sigma2 := h.hypers.Rate * (h.hypers.VarScaling + 1) / (h.hypers.Shape * h.hypers.VarScaling)
	return dist.UnivariateStudentTLogProb(y[0], h.hypers.Mean, sigma2, nuN)
}

func (h *NNIG) Clone() Hierarchy {
	out := &NNIG{hypers: h.hypers, prior: h.prior, mean: h.mean, prec: h.prec}
	out.clearSuffStats()
	return out
}

func (h *NNIG) UpdateHypers(states []schema.ClusterState, src *rng.Source) error {
	if h.hypers.Mode == NNIGFixed {
		return nil
	}
	p := h.prior
	precPosterior := 1 / p.Var0
	num := p.Mean0 / p.Var0
	for _, st := range states {
		precI := 1 / st.Uni.Var
		precPosterior += h.hypers.VarScaling * precI
		num += h.hypers.VarScaling * precI * st.Uni.Mean
	}
	varPosterior := 1 / precPosterior
	meanPosterior := varPosterior * num
	h.hypers.Mean = dist.UnivariateNormalRand(src, meanPosterior, 1/varPosterior)
	return nil
}

func (h *NNIG) WriteState() schema.ClusterState {
	return schema.ClusterState{
		Cardinality: h.card,
		Uni:         &schema.UniLSState{Mean: h.mean, Var: 1 / h.prec},
	}
}

func (h *NNIG) SetState(s schema.ClusterState) {
	h.mean = s.Uni.Mean
	h.prec = 1 / s.Uni.Var
	h.card = s.Cardinality
}

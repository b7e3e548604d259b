package hierarchy

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/JoaoHenriqueOliveira/gobayesmix/dist"
	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// NNWPriorMode selects which of the three hyperprior update rules
// NNW.UpdateHypers follows, restoring the three modes nnw_hierarchy.cc's
// update_hypers supports (has_fixed_values / has_normal_mean_prior /
// has_ngiw_prior) that spec.md's distilled "may be a no-op" phrasing
// collapsed to one case.
type NNWPriorMode int

const (
	// NNWFixed keeps the hyperparameters constant; UpdateHypers is a no-op.
	NNWFixed NNWPriorMode = iota
	// NNWNormalMeanPrior resamples only the mean hyperparameter μ₀ from a
	// normal hyperprior, holding λ₀, Ψ, ν₀ fixed.
	NNWNormalMeanPrior
	// NNWNGIWPrior resamples μ₀, λ₀ and Ψ from a conjugate
	// normal-gamma-inverse-Wishart hyperprior; ν₀ stays fixed.
	NNWNGIWPrior
)

// NNWHypers is the hyperparameter bundle shared by every cluster of one NNW
// family: (μ₀, λ₀, Ψ, ν₀) plus the cached inverse of Ψ. It is held by a
// pointer shared across clusters (spec.md §9's "reference-counted bundle");
// the sampler mutates it once per iteration (step 4) between uses, so no
// reader ever races a writer in the single-threaded core.
type NNWHypers struct {
	Mean       []float64
	VarScaling float64
	Scale      *mat.SymDense // Ψ
	ScaleInv   *mat.SymDense // cached Ψ⁻¹, write-through with Scale
	DegFree    float64

	Mode NNWPriorMode
}

// NNWNormalMeanHyperPrior configures NNWNormalMeanPrior mode: a normal
// hyperprior N(mu00, sigma00) on μ₀.
type NNWNormalMeanHyperPrior struct {
	Mean0 []float64
	Var0  *mat.SymDense
}

// NNWNGIWHyperPrior configures NNWNGIWPrior mode: independent hyperpriors
// on μ₀ (normal), λ₀ (gamma), and Ψ₀ (inverse-Wishart).
type NNWNGIWHyperPrior struct {
	Mean0            []float64
	Var0             *mat.SymDense
	VarScalingShape0 float64
	VarScalingRate0  float64
	ScaleDegFree0    float64
	Scale0           *mat.SymDense
}

// NewNNWHypersFixed validates and returns a fixed-hyperparameter bundle,
// grounded on nnw_hierarchy.cc's has_fixed_values branch of set_prior.
func NewNNWHypersFixed(mean []float64, varScaling float64, scale *mat.SymDense, degFree float64) (*NNWHypers, error) {
	dim := len(mean)
	if varScaling <= 0 {
		return nil, errorf("var_scaling", "must be > 0")
	}
	if scale.SymmetricDim() != dim {
		return nil, errorf("scale", "dimension %d does not match mean dimension %d", scale.SymmetricDim(), dim)
	}
	if degFree <= float64(dim-1) {
		return nil, errorf("deg_free", "must exceed dim-1 = %d", dim-1)
	}
	var chol mat.Cholesky
	if !chol.Factorize(scale) {
		return nil, errorf("scale", "not positive definite")
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, errorf("scale", "failed to invert: %v", err)
	}
	return &NNWHypers{Mean: append([]float64(nil), mean...), VarScaling: varScaling, Scale: scale, ScaleInv: &inv, DegFree: degFree, Mode: NNWFixed}, nil
}

// nnwHyperPrior is the union of the two hyperprior configurations; nil
// means NNWFixed.
type nnwHyperPrior struct {
	normalMean *NNWNormalMeanHyperPrior
	ngiw       *NNWNGIWHyperPrior
}

// NNW is the multivariate Normal–Normal-Wishart hierarchy: per-cluster state
// (μ, Λ) with μ ∈ ℝᵈ, Λ ∈ 𝕊⁺⁺ᵈ. Grounded line-for-line on
// original_source/src/hierarchies/nnw_hierarchy.cc.
type NNW struct {
	hypers *NNWHypers
	prior  nnwHyperPrior
	dim    int

	mean []float64
	prec *dist.PrecCholesky

	dataSum   []float64
	dataSumSq *mat.SymDense // Σ y yᵀ
	card      int
	assigned  map[int]struct{}
}

// NewNNW constructs an uninitialized NNW hierarchy sharing hypers. Call
// Initialize before use.
func NewNNW(hypers *NNWHypers) *NNW {
	return &NNW{
		hypers:   hypers,
		dim:      len(hypers.Mean),
		assigned: make(map[int]struct{}),
	}
}

// WithNormalMeanPrior configures the NNWNormalMeanPrior hyperprior mode for
// UpdateHypers.
func (h *NNW) WithNormalMeanPrior(p *NNWNormalMeanHyperPrior) *NNW {
	h.hypers.Mode = NNWNormalMeanPrior
	h.prior.normalMean = p
	return h
}

// WithNGIWPrior configures the NNWNGIWPrior hyperprior mode for
// UpdateHypers.
func (h *NNW) WithNGIWPrior(p *NNWNGIWHyperPrior) *NNW {
	h.hypers.Mode = NNWNGIWPrior
	h.prior.ngiw = p
	return h
}

func (h *NNW) clearSuffStats() {
	h.dataSum = make([]float64, h.dim)
	h.dataSumSq = mat.NewSymDense(h.dim, nil)
	h.card = 0
	h.assigned = make(map[int]struct{})
}

// setPrecAndUtilities is the single write path for Λ: every setter that
// changes the base precision also refreshes the cached Cholesky factor and
// log-determinant, grounded on set_prec_and_utilities.
func (h *NNW) setPrecAndUtilities(prec *mat.SymDense) error {
	pc, ok := dist.NewPrecCholesky(prec)
	if !ok {
		return errorf("prec", "precision matrix was not SPD")
	}
	h.prec = pc
	return nil
}

// Initialize builds state = (μ₀, λ₀·I) and clears sufficient statistics.
// The identity matrix scaled by the already-validated λ₀ is always SPD, so
// a failure here means the hypers bundle was built outside
// NewNNWHypersFixed's validation and is a programmer error, not a mid-run
// numerical failure — it panics rather than threading an error through a
// method the interface declares as returning none.
func (h *NNW) Initialize() {
	h.dim = len(h.hypers.Mean)
	h.mean = append([]float64(nil), h.hypers.Mean...)
	identity := mat.NewSymDense(h.dim, nil)
	for i := 0; i < h.dim; i++ {
		identity.SetSym(i, i, h.hypers.VarScaling)
	}
	if err := h.setPrecAndUtilities(identity); err != nil {
		panic(err)
	}
	h.clearSuffStats()
}

func (h *NNW) Cardinality() int { return h.card }

func (h *NNW) AssignedIndices() []int {
	out := make([]int, 0, len(h.assigned))
	for i := range h.assigned {
		out = append(out, i)
	}
	return out
}

func (h *NNW) IsDependent() bool { return false }

func (h *NNW) AddDatum(i int, y, _ []float64) {
	h.assigned[i] = struct{}{}
	h.card++
	for d := 0; d < h.dim; d++ {
		h.dataSum[d] += y[d]
	}
	addOuter(h.dataSumSq, y, 1)
}

func (h *NNW) RemoveDatum(i int, y, _ []float64) {
	delete(h.assigned, i)
	h.card--
	for d := 0; d < h.dim; d++ {
		h.dataSum[d] -= y[d]
	}
	addOuter(h.dataSumSq, y, -1)
}

// addOuter adds sign * y yᵀ into dst in place.
func addOuter(dst *mat.SymDense, y []float64, sign float64) {
	for i := range y {
		for j := i; j < len(y); j++ {
			dst.SetSym(i, j, dst.At(i, j)+sign*y[i]*y[j])
		}
	}
}

// normalWishartUpdate computes the posterior hyperparameters given the
// currently accumulated sufficient statistics, grounded on
// NNWHierarchy::normal_wishart_update.
func (h *NNW) normalWishartUpdate() (meanN []float64, lambdaN, nuN float64, scaleN *mat.SymDense, err error) {
	n := float64(h.card)
	lambdaN = h.hypers.VarScaling + n
	nuN = h.hypers.DegFree + 0.5*n

	muBar := make([]float64, h.dim)
	for d := 0; d < h.dim; d++ {
		muBar[d] = h.dataSum[d] / n
	}
	meanN = make([]float64, h.dim)
	for d := 0; d < h.dim; d++ {
		meanN[d] = (h.hypers.VarScaling*h.hypers.Mean[d] + n*muBar[d]) / lambdaN
	}

	scaleInvN := mat.NewSymDense(h.dim, nil)
	scaleInvN.CopySym(h.hypers.ScaleInv)
	corrFactor := n * h.hypers.VarScaling / (n + h.hypers.VarScaling)
	diff := make([]float64, h.dim)
	for d := 0; d < h.dim; d++ {
		diff[d] = muBar[d] - h.hypers.Mean[d]
	}
	for i := 0; i < h.dim; i++ {
		for j := i; j < h.dim; j++ {
			scatter := h.dataSumSq.At(i, j) - n*muBar[i]*muBar[j]
			corr := corrFactor * diff[i] * diff[j]
			scaleInvN.SetSym(i, j, scaleInvN.At(i, j)+0.5*scatter+0.5*corr)
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(scaleInvN) {
		return nil, 0, 0, nil, errorf("scale", "posterior scale-inverse update was not SPD")
	}
	var scale mat.SymDense
	if ierr := chol.InverseTo(&scale); ierr != nil {
		return nil, 0, 0, nil, errorf("scale", "failed to invert posterior scale: %v", ierr)
	}
	scaleN = &scale
	return meanN, lambdaN, nuN, scaleN, nil
}

// Draw resamples state from the prior centering distribution.
func (h *NNW) Draw(src *rng.Source) error {
	w, ok := dist.NewWishart(h.hypers.DegFree, h.hypers.Scale)
	if !ok {
		return errorf("wishart", "prior scale/deg_free is not a valid Wishart")
	}
	precNew := w.RandSym(src)
	var precCopy mat.SymDense
	precCopy.CopySym(precNew)
	scaledPrec := mat.NewSymDense(h.dim, nil)
	for i := 0; i < h.dim; i++ {
		for j := i; j < h.dim; j++ {
			scaledPrec.SetSym(i, j, precCopy.At(i, j)*h.hypers.VarScaling)
		}
	}
	pc, ok := dist.NewPrecCholesky(scaledPrec)
	if !ok {
		return errorf("prec", "scaled prior precision was not SPD")
	}
	h.mean = dist.MVNormalPrecRand(src, h.hypers.Mean, pc)
	return h.setPrecAndUtilities(precNew)
}

// SampleGivenData resamples state from the posterior given accumulated
// sufficient statistics.
func (h *NNW) SampleGivenData(src *rng.Source) error {
	meanN, lambdaN, nuN, scaleN, err := h.normalWishartUpdate()
	if err != nil {
		return err
	}
	w, ok := dist.NewWishart(nuN, scaleN)
	if !ok {
		return errorf("wishart", "posterior scale/deg_free is not a valid Wishart")
	}
	precNew := w.RandSym(src)
	scaledPrec := mat.NewSymDense(h.dim, nil)
	for i := 0; i < h.dim; i++ {
		for j := i; j < h.dim; j++ {
			scaledPrec.SetSym(i, j, precNew.At(i, j)*lambdaN)
		}
	}
	pc, ok := dist.NewPrecCholesky(scaledPrec)
	if !ok {
		return errorf("prec", "scaled posterior precision was not SPD")
	}
	h.mean = dist.MVNormalPrecRand(src, meanN, pc)
	return h.setPrecAndUtilities(precNew)
}

func (h *NNW) LikeLogProb(y, _ []float64) float64 {
	return dist.MVNormalPrecLogProb(y, h.mean, h.prec)
}

func (h *NNW) LikeLogProbGrid(Y, _ [][]float64) []float64 {
	out := make([]float64, len(Y))
	for i, y := range Y {
		out[i] = h.LikeLogProb(y, nil)
	}
	return out
}

// MargLogProb is the prior-predictive (marginal) log-density, grounded on
// NNWHierarchy::marg_lpdf: a multivariate Student-t with the hyperparameters'
// implied location/scale/dof.
func (h *NNW) MargLogProb(y, _ []float64) float64 {
	nuN := 2*h.hypers.DegFree - float64(h.dim) + 1
	factor := (h.hypers.DegFree - 0.5*float64(h.dim-1)) * h.hypers.VarScaling / (h.hypers.VarScaling + 1)
	sigmaN := mat.NewSymDense(h.dim, nil)
	for i := 0; i < h.dim; i++ {
		for j := i; j < h.dim; j++ {
			sigmaN.SetSym(i, j, h.hypers.ScaleInv.At(i, j)*factor)
		}
	}
	return dist.MultivariateStudentTLogProb(y, h.hypers.Mean, sigmaN, nuN)
}

// Clone deep-copies state and resets sufficient statistics; hypers is
// shared, not copied, per spec.md §4.C.
func (h *NNW) Clone() Hierarchy {
	out := &NNW{hypers: h.hypers, prior: h.prior, dim: h.dim}
	out.mean = append([]float64(nil), h.mean...)
	if h.prec != nil {
		out.prec = h.prec.Clone()
	}
	out.clearSuffStats()
	return out
}

// UpdateHypers resamples the shared hyperparameters given every cluster's
// current state, grounded on NNWHierarchy::update_hypers's three modes. src
// is the run's own seeded stream — never a package-level default — so that
// a seeded run's hyperparameter draws replay bit-for-bit.
func (h *NNW) UpdateHypers(states []schema.ClusterState, src *rng.Source) error {
	switch h.hypers.Mode {
	case NNWFixed:
		return nil
	case NNWNormalMeanPrior:
		return h.updateHypersNormalMean(states, src)
	case NNWNGIWPrior:
		return h.updateHypersNGIW(states, src)
	}
	return nil
}

func (h *NNW) updateHypersNormalMean(states []schema.ClusterState, src *rng.Source) error {
	p := h.prior.normalMean
	var sigma00Inv mat.SymDense
	var chol mat.Cholesky
	if !chol.Factorize(p.Var0) {
		return errorf("normal_mean", "hyperprior variance not SPD")
	}
	if err := chol.InverseTo(&sigma00Inv); err != nil {
		return errorf("normal_mean", "failed to invert hyperprior variance: %v", err)
	}
	prec := mat.NewSymDense(h.dim, nil)
	num := make([]float64, h.dim)
	for _, st := range states {
		ms := st.Multi
		precI := rawPrecFromProto(ms, h.dim)
		for i := 0; i < h.dim; i++ {
			for j := i; j < h.dim; j++ {
				prec.SetSym(i, j, prec.At(i, j)+precI.At(i, j))
			}
			for j := 0; j < h.dim; j++ {
				num[i] += precI.At(i, j) * ms.Mean.Data[j]
			}
		}
	}
	for i := 0; i < h.dim; i++ {
		for j := i; j < h.dim; j++ {
			prec.SetSym(i, j, prec.At(i, j)*h.hypers.VarScaling+sigma00Inv.At(i, j))
		}
	}
	num0 := matVec(&sigma00Inv, p.Mean0)
	for i := range num {
		num[i] = h.hypers.VarScaling*num[i] + num0[i]
	}
	var precChol mat.Cholesky
	if !precChol.Factorize(prec) {
		return errorf("normal_mean", "posterior precision not SPD")
	}
	var sol mat.VecDense
	if err := sol.SolveVec(&precChol, mat.NewVecDense(h.dim, num)); err != nil {
		return errorf("normal_mean", "failed to solve posterior: %v", err)
	}
	muN := make([]float64, h.dim)
	for i := range muN {
		muN[i] = sol.AtVec(i)
	}
	pc, ok := dist.NewPrecCholesky(prec)
	if !ok {
		return errorf("normal_mean", "posterior precision not SPD")
	}
	h.hypers.Mean = dist.MVNormalPrecRand(src, muN, pc)
	return nil
}

func (h *NNW) updateHypersNGIW(states []schema.ClusterState, src *rng.Source) error {
	p := h.prior.ngiw
	var sigma00Inv mat.SymDense
	var chol mat.Cholesky
	if !chol.Factorize(p.Var0) {
		return errorf("ngiw", "mean hyperprior variance not SPD")
	}
	if err := chol.InverseTo(&sigma00Inv); err != nil {
		return errorf("ngiw", "failed to invert mean hyperprior variance: %v", err)
	}
	tauN := mat.NewSymDense(h.dim, nil)
	num := make([]float64, h.dim)
	betaN := p.VarScalingRate0
	for _, st := range states {
		ms := st.Multi
		precI := rawPrecFromProto(ms, h.dim)
		meanI := ms.Mean.Data
		for i := 0; i < h.dim; i++ {
			for j := i; j < h.dim; j++ {
				tauN.SetSym(i, j, tauN.At(i, j)+precI.At(i, j))
			}
			for j := 0; j < h.dim; j++ {
				num[i] += precI.At(i, j) * meanI[j]
			}
		}
		diff := make([]float64, h.dim)
		for d := 0; d < h.dim; d++ {
			diff[d] = h.hypers.Mean[d] - meanI[d]
		}
		betaN += 0.5 * quadForm(precI, diff)
	}
	precN := mat.NewSymDense(h.dim, nil)
	for i := 0; i < h.dim; i++ {
		for j := i; j < h.dim; j++ {
			precN.SetSym(i, j, h.hypers.VarScaling*tauN.At(i, j)+sigma00Inv.At(i, j))
			tauN.SetSym(i, j, tauN.At(i, j)+p.Scale0.At(i, j))
		}
	}
	num0 := matVec(&sigma00Inv, p.Mean0)
	for i := range num {
		num[i] = h.hypers.VarScaling*num[i] + num0[i]
	}
	var precNChol mat.Cholesky
	if !precNChol.Factorize(precN) {
		return errorf("ngiw", "posterior precision not SPD")
	}
	var sigN mat.SymDense
	if err := precNChol.InverseTo(&sigN); err != nil {
		return errorf("ngiw", "failed to invert posterior precision: %v", err)
	}
	muN := matVec(&sigN, num)
	alphaN := p.VarScalingShape0 + 0.5*float64(len(states))
	nuN := p.ScaleDegFree0 + float64(len(states))*h.hypers.DegFree

	h.hypers.Mean = dist.MVNormalCovRand(src, muN, &sigN)
	h.hypers.VarScaling = sampleGamma(src, alphaN, betaN)
	iw, ok := dist.NewInverseWishart(nuN, tauN)
	if !ok {
		return errorf("ngiw", "posterior scale not a valid inverse-Wishart")
	}
	scaleNew := iw.RandSym(src)
	h.hypers.Scale = scaleNew
	var newChol mat.Cholesky
	if !newChol.Factorize(scaleNew) {
		return errorf("ngiw", "resampled scale not SPD")
	}
	var newInv mat.SymDense
	newChol.InverseTo(&newInv)
	h.hypers.ScaleInv = &newInv
	return nil
}

func rawPrecFromProto(ms *schema.MultiLSState, dim int) *mat.SymDense {
	out := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			out.SetSym(i, j, ms.Prec.Data[i*dim+j])
		}
	}
	return out
}

func matVec(m *mat.SymDense, v []float64) []float64 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(len(v), v))
	res := make([]float64, len(v))
	for i := range res {
		res[i] = out.AtVec(i)
	}
	return res
}

func quadForm(m *mat.SymDense, v []float64) float64 {
	mv := matVec(m, v)
	s := 0.0
	for i := range v {
		s += v[i] * mv[i]
	}
	return s
}

// sampleGamma draws from Gamma(shape, rate) using gonum's distuv.Gamma.
func sampleGamma(src *rng.Source, shape, rate float64) float64 {
	g := distuv.Gamma{Alpha: shape, Beta: rate, Src: src.Rand()}
	return g.Rand()
}

// WriteState serializes (μ, Λ, cardinality) to the external schema.
func (h *NNW) WriteState() schema.ClusterState {
	prec := make([]float64, h.dim*h.dim)
	u := h.prec.U()
	var full mat.Dense
	full.Mul(u.T(), u)
	for i := 0; i < h.dim; i++ {
		for j := 0; j < h.dim; j++ {
			prec[i*h.dim+j] = full.At(i, j)
		}
	}
	return schema.ClusterState{
		Cardinality: h.card,
		Multi: &schema.MultiLSState{
			Mean: schema.Vector{Size: h.dim, Data: append([]float64(nil), h.mean...)},
			Prec: schema.Matrix{Rows: h.dim, Cols: h.dim, Data: prec},
		},
	}
}

// SetState restores (μ, Λ, cardinality) from the external schema.
func (h *NNW) SetState(s schema.ClusterState) {
	h.dim = s.Multi.Mean.Size
	h.mean = append([]float64(nil), s.Multi.Mean.Data...)
	prec := mat.NewSymDense(h.dim, nil)
	for i := 0; i < h.dim; i++ {
		for j := i; j < h.dim; j++ {
			prec.SetSym(i, j, s.Multi.Prec.Data[i*h.dim+j])
		}
	}
	if err := h.setPrecAndUtilities(prec); err != nil {
		panic(err)
	}
	h.card = s.Cardinality
}

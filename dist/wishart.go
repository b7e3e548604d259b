package dist

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
)

// Wishart is the Wishart(ν, V) distribution over k×k symmetric
// positive-definite matrices, the conjugate prior for a precision matrix.
// Use NewWishart to construct; the API shape (NewX(...) (*T, bool),
// RandSym, LogProbSym) follows gonum's own (unreleased)
// stat/distmat.Wishart, reconstructed here from its test file since the
// Wishart source itself was not part of the retrieved pack.
type Wishart struct {
	dim    int
	nu     float64
	scale  *mat.SymDense // V
	lChol  mat.Cholesky  // Cholesky of V (lower), used for sampling and log-det
	logDet float64
}

// NewWishart validates nu > dim-1 and then that scale is symmetric
// positive-definite, grounded on inv_wishart_lpdf.hpp's guards; ok is false
// if either check fails.
func NewWishart(nu float64, scale *mat.SymDense) (*Wishart, bool) {
	dim := scale.SymmetricDim()
	if nu <= float64(dim-1) {
		return nil, false
	}
	var chol mat.Cholesky
	if !chol.Factorize(scale) {
		return nil, false
	}
	return &Wishart{
		dim:    dim,
		nu:     nu,
		scale:  scale,
		lChol:  chol,
		logDet: chol.LogDet(),
	}, true
}

// Dim returns the matrix dimension k.
func (w *Wishart) Dim() int { return w.dim }

// RandSym draws a sample via the Bartlett decomposition: A is lower
// triangular with A_ii ~ χ(ν-i+1) and A_ij (i>j) ~ N(0,1); the sample is
// L A Aᵀ Lᵀ where V = L Lᵀ.
func (w *Wishart) RandSym(src *rng.Source) *mat.SymDense {
	k := w.dim
	a := mat.NewTriDense(k, mat.Lower, nil)
	for i := 0; i < k; i++ {
		chi := distuv.Gamma{Alpha: 0.5 * (w.nu - float64(i)), Beta: 0.5, Src: src.Rand()}
		a.SetTri(i, i, math.Sqrt(chi.Rand()))
		for j := 0; j < i; j++ {
			a.SetTri(i, j, src.NormFloat64())
		}
	}
	var l mat.TriDense
	w.lChol.LTo(&l)

	var la mat.Dense
	la.Mul(&l, a)
	var sample mat.Dense
	sample.Mul(&la, la.T())

	out := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			out.SetSym(i, j, sample.At(i, j))
		}
	}
	return out
}

// LogProbSym evaluates the Wishart log-density at x.
func (w *Wishart) LogProbSym(x *mat.SymDense) float64 {
	k := w.dim
	var xChol mat.Cholesky
	if !xChol.Factorize(x) {
		panic("dist: wishart: x is not symmetric positive-definite")
	}
	logDetX := xChol.LogDet()

	var vInvX mat.Dense
	var vInv mat.SymDense
	if err := w.lChol.InverseTo(&vInv); err != nil {
		panic("dist: wishart: failed to invert scale matrix: " + err.Error())
	}
	vInvX.Mul(&vInv, x)
	tr := mat.Trace(&vInvX)

	lp := -0.5*w.nu*float64(k)*math.Ln2 - mvLgamma(k, 0.5*w.nu)
	lp -= 0.5 * w.nu * w.logDet
	lp += 0.5 * (w.nu - float64(k) - 1) * logDetX
	lp -= 0.5 * tr
	return lp
}

// InverseWishart is the Inverse-Wishart(ν, Ψ) distribution, the conjugate
// prior for a covariance matrix (equivalently, NNW's prior on the scale of
// the cluster precision). Log-density formula grounded on Stan Math's
// inv_wishart_lpdf.
type InverseWishart struct {
	dim      int
	nu       float64
	scale    *mat.SymDense // Ψ
	scaleInv *mat.SymDense
	logDet   float64 // log|Ψ|
}

// NewInverseWishart validates nu > dim-1 and that scale is SPD.
func NewInverseWishart(nu float64, scale *mat.SymDense) (*InverseWishart, bool) {
	dim := scale.SymmetricDim()
	if nu <= float64(dim-1) {
		return nil, false
	}
	var chol mat.Cholesky
	if !chol.Factorize(scale) {
		return nil, false
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, false
	}
	return &InverseWishart{
		dim:      dim,
		nu:       nu,
		scale:    scale,
		scaleInv: &inv,
		logDet:   chol.LogDet(),
	}, true
}

// Dim returns the matrix dimension k.
func (iw *InverseWishart) Dim() int { return iw.dim }

// RandSym draws a sample by inverting a Wishart(ν, Ψ⁻¹) draw, the standard
// reduction from inverse-Wishart to Wishart sampling.
func (iw *InverseWishart) RandSym(src *rng.Source) *mat.SymDense {
	w, ok := NewWishart(iw.nu, iw.scaleInv)
	if !ok {
		panic("dist: inverse-wishart: scale inverse is not a valid Wishart scale")
	}
	sample := w.RandSym(src)
	var chol mat.Cholesky
	if !chol.Factorize(sample) {
		panic("dist: inverse-wishart: Wishart draw was not SPD")
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		panic("dist: inverse-wishart: failed to invert Wishart draw: " + err.Error())
	}
	return &inv
}

// LogProbSym evaluates the Inverse-Wishart log-density at w.
func (iw *InverseWishart) LogProbSym(w *mat.SymDense) float64 {
	k := iw.dim
	var wChol mat.Cholesky
	if !wChol.Factorize(w) {
		panic("dist: inverse-wishart: w is not symmetric positive-definite")
	}
	logDetW := wChol.LogDet()

	var wInv mat.SymDense
	if err := wChol.InverseTo(&wInv); err != nil {
		panic("dist: inverse-wishart: failed to invert w: " + err.Error())
	}
	var sWInv mat.Dense
	sWInv.Mul(iw.scale, &wInv)
	tr := mat.Trace(&sWInv)

	lp := -mvLgamma(k, 0.5*iw.nu)
	lp += 0.5 * iw.nu * iw.logDet
	lp -= 0.5 * (iw.nu + float64(k) + 1) * logDetW
	lp -= 0.5 * tr
	lp -= iw.nu * float64(k) * 0.5 * math.Ln2
	return lp
}

// mvLgamma is the log of the multivariate gamma function Γ_k(a) =
// π^{k(k-1)/4} ∏_{i=1}^k Γ(a + (1-i)/2), grounded on Stan Math's lmgamma.
func mvLgamma(k int, a float64) float64 {
	lg := float64(k*(k-1)) / 4 * math.Log(math.Pi)
	for i := 1; i <= k; i++ {
		v, _ := math.Lgamma(a + 0.5*(1-float64(i)))
		lg += v
	}
	return lg
}

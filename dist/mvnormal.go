package dist

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
)

const logTwoPi = 1.8378770664093453 // math.Log(2 * math.Pi)

// PrecCholesky holds the cached derivatives of a precision matrix that every
// hierarchy likelihood evaluation needs: the upper Cholesky factor L such
// that Lᵀ L = Λ, and log|Λ|. Both are recomputed together whenever the base
// precision changes (SetPrec) so that no reader ever observes a stale
// cache — the write-through discipline spec.md §9 calls for.
type PrecCholesky struct {
	dim    int
	chol   mat.Cholesky
	u      mat.TriDense
	logDet float64
}

// NewPrecCholesky factorizes prec and returns its cached derivatives. ok is
// false if prec is not symmetric positive-definite.
func NewPrecCholesky(prec *mat.SymDense) (pc *PrecCholesky, ok bool) {
	pc = &PrecCholesky{dim: prec.SymmetricDim()}
	if !pc.set(prec) {
		return nil, false
	}
	return pc, true
}

// SetPrec recomputes the cached Cholesky factor and log-determinant from a
// new base precision matrix. It is the hierarchy's single write path for Λ;
// every read (LogProb, Rand) goes through the cache this populates.
func (pc *PrecCholesky) SetPrec(prec *mat.SymDense) bool {
	return pc.set(prec)
}

func (pc *PrecCholesky) set(prec *mat.SymDense) bool {
	var chol mat.Cholesky
	if !chol.Factorize(prec) {
		return false
	}
	pc.dim = prec.SymmetricDim()
	pc.chol = chol
	pc.chol.UTo(&pc.u)
	pc.logDet = pc.chol.LogDet()
	return true
}

// Dim returns the dimension of the precision matrix.
func (pc *PrecCholesky) Dim() int { return pc.dim }

// LogDet returns the cached log|Λ|.
func (pc *PrecCholesky) LogDet() float64 { return pc.logDet }

// U returns the cached upper-triangular Cholesky factor of Λ (Λ = Uᵀ U).
func (pc *PrecCholesky) U() *mat.TriDense { return &pc.u }

// Clone deep-copies the cached derivatives.
func (pc *PrecCholesky) Clone() *PrecCholesky {
	out := &PrecCholesky{dim: pc.dim, logDet: pc.logDet}
	out.chol.Clone(&pc.chol)
	out.u.CloneFromTri(&pc.u)
	return out
}

// MVNormalPrecLogProb evaluates the multivariate normal log-density in
// precision form:
//
//	-½[d·log(2π) − log|Λ| + (x−μ)ᵀΛ(x−μ)]
//
// chol must be the cached Cholesky factor of Λ for the same μ's dimension.
func MVNormalPrecLogProb(x, mu []float64, chol *PrecCholesky) float64 {
	d := len(mu)
	if len(x) != d {
		panic("dist: mvnormal: size mismatch between x and mu")
	}
	if chol.Dim() != d {
		panic("dist: mvnormal: size mismatch between mu and cholesky factor")
	}
	diff := make([]float64, d)
	for i := range diff {
		diff[i] = x[i] - mu[i]
	}
	// Λ-quadratic form via the cached upper factor: ||U diff||² = diffᵀΛdiff.
	u := chol.U()
	uDiff := mat.NewVecDense(d, nil)
	uDiff.MulVec(u, mat.NewVecDense(d, diff))
	quad := 0.0
	for i := 0; i < d; i++ {
		v := uDiff.AtVec(i)
		quad += v * v
	}
	return -0.5 * (float64(d)*logTwoPi - chol.LogDet() + quad)
}

// MVNormalPrecRand draws x = μ + Λ^{-1/2} z with z standard normal, solving
// the triangular system U v = z where U is the cached upper Cholesky factor
// of Λ, so that Cov(v) = U⁻¹U⁻ᵀ = Λ⁻¹.
func MVNormalPrecRand(src *rng.Source, mu []float64, chol *PrecCholesky) []float64 {
	d := len(mu)
	if chol.Dim() != d {
		panic("dist: mvnormal: size mismatch between mu and cholesky factor")
	}
	z := make([]float64, d)
	for i := range z {
		z[i] = src.NormFloat64()
	}
	zVec := mat.NewVecDense(d, z)
	var v mat.VecDense
	if err := v.SolveVec(chol.U(), zVec); err != nil {
		panic("dist: mvnormal: triangular solve failed on a supposedly SPD precision matrix: " + err.Error())
	}
	out := make([]float64, d)
	for i := range out {
		out[i] = mu[i] + v.AtVec(i)
	}
	return out
}

// UnivariateNormalLogProb is the scalar specialization used by the NNIG
// hierarchy, expressed in precision (inverse-variance) form to match
// MVNormalPrecLogProb's convention.
func UnivariateNormalLogProb(x, mu, prec float64) float64 {
	return -0.5 * (logTwoPi - math.Log(prec) + prec*(x-mu)*(x-mu))
}

// UnivariateNormalRand draws x = μ + z/√prec with z standard normal.
func UnivariateNormalRand(src *rng.Source, mu, prec float64) float64 {
	return mu + src.NormFloat64()/math.Sqrt(prec)
}

// MVNormalCovRand draws x = μ + L z with z standard normal and L the lower
// Cholesky factor of the covariance matrix cov (cov = L Lᵀ). Used by the
// hyperparameter-update steps of hierarchy.NNW, which resample a mean
// hyperparameter from a normal posterior expressed in covariance rather
// than precision form.
func MVNormalCovRand(src *rng.Source, mu []float64, cov *mat.SymDense) []float64 {
	d := len(mu)
	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		panic("dist: mvnormal: covariance is not positive definite")
	}
	var l mat.TriDense
	chol.LTo(&l)
	z := mat.NewVecDense(d, nil)
	for i := 0; i < d; i++ {
		z.SetVec(i, src.NormFloat64())
	}
	var v mat.VecDense
	v.MulVec(&l, z)
	out := make([]float64, d)
	for i := range out {
		out[i] = mu[i] + v.AtVec(i)
	}
	return out
}

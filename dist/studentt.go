package dist

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MultivariateStudentTLogProb evaluates the log-density of the multivariate
// Student-t distribution with location mu, scale matrix sigma (SPD), and nu
// degrees of freedom. This is the prior-predictive family NNW's marg_lpdf
// reduces to after integrating out the cluster mean and precision, grounded
// on the stan::math::multi_student_t_lpdf call in nnw_hierarchy.cc.
func MultivariateStudentTLogProb(x, mu []float64, sigma *mat.SymDense, nu float64) float64 {
	d := len(mu)
	if len(x) != d {
		panic("dist: studentt: size mismatch between x and mu")
	}
	var chol mat.Cholesky
	if !chol.Factorize(sigma) {
		panic(errorf("scale", "not positive definite").Error())
	}
	diff := make([]float64, d)
	for i := range diff {
		diff[i] = x[i] - mu[i]
	}
	var sol mat.VecDense
	if err := sol.SolveVec(&chol, mat.NewVecDense(d, diff)); err != nil {
		panic("dist: studentt: failed to solve scale system: " + err.Error())
	}
	quad := mat.Dot(mat.NewVecDense(d, diff), &sol)

	lgNuPlusD, _ := math.Lgamma(0.5 * (nu + float64(d)))
	lgNu, _ := math.Lgamma(0.5 * nu)

	lp := lgNuPlusD - lgNu
	lp -= 0.5 * float64(d) * math.Log(nu*math.Pi)
	lp -= 0.5 * chol.LogDet()
	lp -= 0.5 * (nu + float64(d)) * math.Log1p(quad/nu)
	return lp
}

// UnivariateStudentTLogProb is the scalar specialization used by NNIG's
// marg_lpdf.
func UnivariateStudentTLogProb(x, mu, sigma2, nu float64) float64 {
	if sigma2 <= 0 {
		panic(errorf("sigma2", "must be positive").Error())
	}
	z := (x - mu) * (x - mu) / sigma2
	lgNuPlusOne, _ := math.Lgamma(0.5 * (nu + 1))
	lgNu, _ := math.Lgamma(0.5 * nu)
	lp := lgNuPlusOne - lgNu
	lp -= 0.5 * math.Log(nu*math.Pi*sigma2)
	lp -= 0.5 * (nu + 1) * math.Log1p(z/nu)
	return lp
}

package mixing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// DirichletProcess is the Dirichlet process mixing with total mass M:
// existing-cluster mass ∝ cardinality, new-cluster mass ∝ M, denominator
// n-1+M. Grounded on dirichlet_mixing.h.
type DirichletProcess struct {
	totalMass    float64
	logTotalMass float64

	// hyperprior (optional): M ~ Gamma(shape, rate). If hyperprior is nil,
	// UpdateState is a no-op and M stays fixed — dirichlet_mixing.h's
	// behavior when no Gamma prior is configured.
	hyperprior *GammaHyperPrior
}

// GammaHyperPrior configures the optional Gamma(shape, rate) hyperprior on
// the Dirichlet process's total mass, resampled via the Escobar–West (1995)
// auxiliary-variable augmentation named in spec.md §4.D.
type GammaHyperPrior struct {
	Shape, Rate float64
}

// NewDirichletProcess constructs a DP mixing with fixed total mass M. M
// must be strictly positive (spec.md §7: "negative concentration" is a
// domain error).
func NewDirichletProcess(totalMass float64) (*DirichletProcess, error) {
	if totalMass <= 0 {
		return nil, errorf("total_mass", "must be > 0")
	}
	return &DirichletProcess{totalMass: totalMass, logTotalMass: math.Log(totalMass)}, nil
}

// WithGammaHyperPrior enables the Escobar–West total-mass update; the RNG
// stream is supplied at UpdateState time by the caller (the algorithm's own
// seeded source), not stored here.
func (m *DirichletProcess) WithGammaHyperPrior(shape, rate float64) *DirichletProcess {
	m.hyperprior = &GammaHyperPrior{Shape: shape, Rate: rate}
	return m
}

// TotalMass returns the current total-mass parameter M.
func (m *DirichletProcess) TotalMass() float64 { return m.totalMass }

func (m *DirichletProcess) IsDependent() bool { return false }

// MassExistingCluster is ∝ cardinality / (n-1+M).
func (m *DirichletProcess) MassExistingCluster(cardinality, n int, log, propto bool) float64 {
	logMass := math.Log(float64(cardinality))
	if !propto {
		logMass -= math.Log(float64(n-1) + m.totalMass)
	}
	if log {
		return logMass
	}
	return math.Exp(logMass)
}

// MassNewCluster is ∝ M / (n-1+M).
func (m *DirichletProcess) MassNewCluster(numClusters, n int, log, propto bool) float64 {
	logMass := m.logTotalMass
	if !propto {
		logMass -= math.Log(float64(n-1) + m.totalMass)
	}
	if log {
		return logMass
	}
	return math.Exp(logMass)
}

// UpdateState resamples M via the Escobar–West (1995) augmentation when a
// Gamma hyperprior is configured; otherwise it is a no-op, matching
// dirichlet_mixing.h's behavior with a fixed-value prior. src is the run's
// own seeded stream so a seeded run replays bit-for-bit.
func (m *DirichletProcess) UpdateState(clusterCards []int, n int, src *rng.Source) {
	if m.hyperprior == nil {
		return
	}
	k := float64(len(clusterCards))
	a, b := m.hyperprior.Shape, m.hyperprior.Rate

	eta := distuv.Beta{Alpha: m.totalMass + 1, Beta: float64(n), Src: src.Rand()}.Rand()
	logEta := math.Log(eta)

	rateN := b - logEta
	piEta := (a + k - 1) / (a + k - 1 + float64(n)*rateN)

	var shapeN float64
	if src.Float64() < piEta {
		shapeN = a + k
	} else {
		shapeN = a + k - 1
	}
	m.totalMass = distuv.Gamma{Alpha: shapeN, Beta: rateN, Src: src.Rand()}.Rand()
	m.logTotalMass = math.Log(m.totalMass)
}

// WriteState snapshots the current total mass.
func (m *DirichletProcess) WriteState() schema.MixingState {
	return schema.MixingState{DirichletProcess: &schema.DPState{TotalMass: m.totalMass}}
}

// SetState restores the total mass from a snapshot.
func (m *DirichletProcess) SetState(s schema.MixingState) {
	m.totalMass = s.DirichletProcess.TotalMass
	m.logTotalMass = math.Log(m.totalMass)
}

package mixing

import (
	"math"

	"github.com/JoaoHenriqueOliveira/gobayesmix/rng"
	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// PitmanYor is the two-parameter Pitman-Yor process mixing: discount σ and
// strength θ. Existing-cluster mass ∝ cardinality-σ, new-cluster mass ∝
// θ+K·σ, shared denominator n-1+θ. Grounded on pityor_mixing.h, whose
// hyperparameters are fixed — no Gamma-style hyperprior exists for PY in
// the original, so UpdateState is a no-op here too.
type PitmanYor struct {
	strength float64
	discount float64
}

// NewPitmanYor validates and constructs a fixed-hyperparameter PY mixing.
// Constraints per pityor_mixing.h: discount ∈ [0,1), strength > -discount.
func NewPitmanYor(strength, discount float64) (*PitmanYor, error) {
	if discount < 0 || discount >= 1 {
		return nil, errorf("discount", "must be in [0, 1)")
	}
	if strength <= -discount {
		return nil, errorf("strength", "must be > -discount")
	}
	return &PitmanYor{strength: strength, discount: discount}, nil
}

// Strength returns θ.
func (m *PitmanYor) Strength() float64 { return m.strength }

// Discount returns σ.
func (m *PitmanYor) Discount() float64 { return m.discount }

func (m *PitmanYor) IsDependent() bool { return false }

// MassExistingCluster is ∝ (cardinality-σ) / (n-1+θ).
func (m *PitmanYor) MassExistingCluster(cardinality, n int, log, propto bool) float64 {
	mass := float64(cardinality) - m.discount
	if !propto {
		mass /= float64(n-1) + m.strength
	}
	if log {
		return math.Log(mass)
	}
	return mass
}

// MassNewCluster is ∝ (θ+K·σ) / (n-1+θ).
func (m *PitmanYor) MassNewCluster(numClusters, n int, log, propto bool) float64 {
	mass := m.strength + float64(numClusters)*m.discount
	if !propto {
		mass /= float64(n-1) + m.strength
	}
	if log {
		return math.Log(mass)
	}
	return mass
}

// UpdateState is a no-op: pityor_mixing.h carries no hyperprior on (θ, σ).
func (m *PitmanYor) UpdateState(clusterCards []int, n int, src *rng.Source) {}

// WriteState snapshots (θ, σ).
func (m *PitmanYor) WriteState() schema.MixingState {
	return schema.MixingState{PitmanYor: &schema.PYState{Strength: m.strength, Discount: m.discount}}
}

// SetState restores (θ, σ) from a snapshot.
func (m *PitmanYor) SetState(s schema.MixingState) {
	m.strength = s.PitmanYor.Strength
	m.discount = s.PitmanYor.Discount
}

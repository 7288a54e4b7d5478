package ocp

import (
	"math"

	"github.com/pkg/errors"
)

// RelaxedBarrierPenalty scores an inequality residual h >= 0 with a relaxed
// log barrier: -mu*ln(h) in the interior, switching below the relaxation
// threshold delta to a quadratic extension so that residuals at or past the
// boundary cost a large but finite penalty. This is how soft-mode balance
// residuals are consumed by the solver.
type RelaxedBarrierPenalty struct {
	mu    float64
	delta float64
}

// NewRelaxedBarrierPenalty builds the penalty with barrier weight mu and
// relaxation threshold delta, both of which must be positive.
func NewRelaxedBarrierPenalty(mu, delta float64) (*RelaxedBarrierPenalty, error) {
	if mu <= 0 {
		return nil, errors.Errorf("barrier weight mu must be positive, got %f", mu)
	}
	if delta <= 0 {
		return nil, errors.Errorf("relaxation delta must be positive, got %f", delta)
	}
	return &RelaxedBarrierPenalty{mu: mu, delta: delta}, nil
}

// Value returns the penalty at residual h.
func (p *RelaxedBarrierPenalty) Value(h float64) float64 {
	if h > p.delta {
		return -p.mu * math.Log(h)
	}
	z := (h - 2*p.delta) / p.delta
	return p.mu*(z*z-1)/2 - p.mu*math.Log(p.delta)
}

// Derivative returns d(Value)/dh.
func (p *RelaxedBarrierPenalty) Derivative(h float64) float64 {
	if h > p.delta {
		return -p.mu / h
	}
	return p.mu * (h - 2*p.delta) / (p.delta * p.delta)
}

// SecondDerivative returns the penalty's curvature at residual h.
func (p *RelaxedBarrierPenalty) SecondDerivative(h float64) float64 {
	if h > p.delta {
		return p.mu / (h * h)
	}
	return p.mu / (p.delta * p.delta)
}

// Sum returns the total penalty over a residual vector.
func (p *RelaxedBarrierPenalty) Sum(residuals []float64) float64 {
	total := 0.0
	for _, h := range residuals {
		total += p.Value(h)
	}
	return total
}

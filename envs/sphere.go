package envs

import (
	"github.com/LondonNode/anvil/types"
)

// Sphere is a one-step function-maximization environment: the reward
// of an action x is -sum(x^2), maximized at the origin. Every step
// completes an episode, which suits population-based agents where each
// candidate is evaluated independently.
type Sphere struct {
	dim   float64
	space *types.Box
}

var _ types.Environment = &Sphere{}

func NewSphere(dim int, low, high float64) *Sphere {
	return &Sphere{
		dim:   float64(dim),
		space: types.UniformBox(low, high, dim),
	}
}

func (s *Sphere) ObservationSpace() types.Space {
	return s.space
}

func (s *Sphere) ActionSpace() types.Space {
	return s.space
}

func (s *Sphere) Reset() []float64 {
	return make([]float64, s.space.Dim())
}

func (s *Sphere) Step(action []float64) ([]float64, float64, bool) {
	reward := 0.0
	for _, x := range action {
		reward -= x * x
	}
	return make([]float64, s.space.Dim()), reward, true
}

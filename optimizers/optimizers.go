// Package optimizers implements gradient-based parameter updaters over
// flat parameter vectors.
package optimizers

import (
	"math"

	"github.com/LondonNode/anvil/models"
)

// Optimizer applies accumulated gradients to a parameter set
type Optimizer interface {
	Step(params []*models.Parameter)
}

// Factory builds a fresh optimizer for a given learning rate. Updaters
// construct one per call, so optimizer state never leaks between
// updates.
type Factory func(lr float64) Optimizer

// SGD is plain stochastic gradient descent
type SGD struct {
	LR float64
}

var _ Optimizer = &SGD{}

func NewSGD(lr float64) Optimizer {
	return &SGD{LR: lr}
}

func (s *SGD) Step(params []*models.Parameter) {
	for _, p := range params {
		for i := 0; i < p.Size(); i++ {
			p.Value.SetVec(i, p.Value.AtVec(i)-s.LR*p.Grad.AtVec(i))
		}
	}
}

// Adam with the usual defaults
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	t int
	m map[*models.Parameter][]float64
	v map[*models.Parameter][]float64
}

var _ Optimizer = &Adam{}

func NewAdam(lr float64) Optimizer {
	return &Adam{
		LR:    lr,
		Beta1: 0.9,
		Beta2: 0.999,
		Eps:   1e-8,
		m:     make(map[*models.Parameter][]float64),
		v:     make(map[*models.Parameter][]float64),
	}
}

func (a *Adam) Step(params []*models.Parameter) {
	a.t++
	for _, p := range params {
		if _, ok := a.m[p]; !ok {
			a.m[p] = make([]float64, p.Size())
			a.v[p] = make([]float64, p.Size())
		}
		m, v := a.m[p], a.v[p]
		for i := 0; i < p.Size(); i++ {
			g := p.Grad.AtVec(i)
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
			mHat := m[i] / (1 - math.Pow(a.Beta1, float64(a.t)))
			vHat := v[i] / (1 - math.Pow(a.Beta2, float64(a.t)))
			p.Value.SetVec(i, p.Value.AtVec(i)-a.LR*mHat/(math.Sqrt(vHat)+a.Eps))
		}
	}
}

// ClipGradNorm rescales the gradients of params so their global L2 norm
// does not exceed maxNorm. Returns the pre-clip norm.
func ClipGradNorm(params []*models.Parameter, maxNorm float64) float64 {
	total := 0.0
	for _, p := range params {
		for i := 0; i < p.Size(); i++ {
			g := p.Grad.AtVec(i)
			total += g * g
		}
	}
	norm := math.Sqrt(total)
	if norm > maxNorm && norm > 0 {
		scale := maxNorm / norm
		for _, p := range params {
			for i := 0; i < p.Size(); i++ {
				p.Grad.SetVec(i, p.Grad.AtVec(i)*scale)
			}
		}
	}
	return norm
}

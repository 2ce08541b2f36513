package models

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianDistribution is a factorized normal distribution over action
// batches: one mean row per observation, a shared std per dimension
type GaussianDistribution struct {
	Means *mat.Dense
	Stds  []float64
	src   rand.Source
}

func NewGaussianDistribution(means *mat.Dense, stds []float64, src rand.Source) *GaussianDistribution {
	return &GaussianDistribution{Means: means, Stds: stds, src: src}
}

// Rsample draws reparameterized samples a = mean + std*eps and returns
// both the actions and the unit noise used, so gradients can flow
// through the sampling path
func (d *GaussianDistribution) Rsample() (*mat.Dense, *mat.Dense) {
	n, dim := d.Means.Dims()
	unit := distuv.Normal{Mu: 0, Sigma: 1, Src: d.src}
	actions := mat.NewDense(n, dim, nil)
	eps := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			e := unit.Rand()
			eps.Set(i, j, e)
			actions.Set(i, j, d.Means.At(i, j)+d.Stds[j]*e)
		}
	}
	return actions, eps
}

// Sample draws actions without exposing the noise
func (d *GaussianDistribution) Sample() *mat.Dense {
	actions, _ := d.Rsample()
	return actions
}

// LogProb returns the per-row log density of an action batch, summed
// across action dimensions
func (d *GaussianDistribution) LogProb(actions *mat.Dense) []float64 {
	n, dim := d.Means.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lp := 0.0
		for j := 0; j < dim; j++ {
			norm := distuv.Normal{Mu: d.Means.At(i, j), Sigma: d.Stds[j]}
			lp += norm.LogProb(actions.At(i, j))
		}
		out[i] = lp
	}
	return out
}

// Entropy of a single row of the distribution
func (d *GaussianDistribution) Entropy() float64 {
	h := 0.0
	for _, s := range d.Stds {
		h += 0.5*(1+math.Log(2*math.Pi)) + math.Log(s)
	}
	return h
}

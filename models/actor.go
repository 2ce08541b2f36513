package models

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Actor is a linear-Gaussian policy: the action mean is a linear map of
// the observation and the log standard deviation is a free,
// state-independent parameter per action dimension
type Actor struct {
	obsDim    int
	actionDim int
	// Weights holds the actionDim x obsDim mean map in row-major order
	Weights *Parameter
	Bias    *Parameter
	LogStd  *Parameter
	src     rand.Source
}

func NewActor(obsDim, actionDim int, src rand.Source) *Actor {
	return &Actor{
		obsDim:    obsDim,
		actionDim: actionDim,
		Weights:   NewParameter("actor.weights", actionDim*obsDim),
		Bias:      NewParameter("actor.bias", actionDim),
		LogStd:    NewParameter("actor.logstd", actionDim),
		src:       src,
	}
}

func (a *Actor) ObsDim() int {
	return a.obsDim
}

func (a *Actor) ActionDim() int {
	return a.actionDim
}

// Forward computes the action means for an observation batch
func (a *Actor) Forward(observations *mat.Dense) *mat.Dense {
	n, _ := observations.Dims()
	means := mat.NewDense(n, a.actionDim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < a.actionDim; j++ {
			m := a.Bias.Value.AtVec(j)
			for k := 0; k < a.obsDim; k++ {
				m += a.Weights.Value.AtVec(j*a.obsDim+k) * observations.At(i, k)
			}
			means.Set(i, j, m)
		}
	}
	return means
}

// Stds exponentiates the log-std parameter
func (a *Actor) Stds() []float64 {
	out := make([]float64, a.actionDim)
	for j := 0; j < a.actionDim; j++ {
		out[j] = math.Exp(a.LogStd.Value.AtVec(j))
	}
	return out
}

// ActionDistribution builds the current policy distribution for an
// observation batch
func (a *Actor) ActionDistribution(observations *mat.Dense) *GaussianDistribution {
	return NewGaussianDistribution(a.Forward(observations), a.Stds(), a.src)
}

// BackwardMean accumulates gradients of the mean map given dL/dmean for
// every batch row
func (a *Actor) BackwardMean(observations, gradMean *mat.Dense) {
	n, _ := observations.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < a.actionDim; j++ {
			g := gradMean.At(i, j)
			for k := 0; k < a.obsDim; k++ {
				idx := j*a.obsDim + k
				a.Weights.Grad.SetVec(idx, a.Weights.Grad.AtVec(idx)+g*observations.At(i, k))
			}
			a.Bias.Grad.SetVec(j, a.Bias.Grad.AtVec(j)+g)
		}
	}
}

func (a *Actor) Parameters() []*Parameter {
	return []*Parameter{a.Weights, a.Bias, a.LogStd}
}

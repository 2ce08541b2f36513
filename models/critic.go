package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrActionsRequired is returned when an action-conditioned critic is
// evaluated without an action batch
var ErrActionsRequired = errors.New("critic is action-conditioned but no actions were supplied")

// Critic is a linear value or action-value estimator. With actionDim 0
// it estimates V(s); otherwise it estimates Q(s, a) over the
// concatenated (observation, action) input.
type Critic struct {
	obsDim    int
	actionDim int
	Weights   *Parameter
	Bias      *Parameter
}

func NewCritic(obsDim, actionDim int) *Critic {
	return &Critic{
		obsDim:    obsDim,
		actionDim: actionDim,
		Weights:   NewParameter("critic.weights", obsDim+actionDim),
		Bias:      NewParameter("critic.bias", 1),
	}
}

// ActionConditioned reports whether the critic requires an action batch
func (c *Critic) ActionConditioned() bool {
	return c.actionDim > 0
}

func (c *Critic) ObsDim() int {
	return c.obsDim
}

func (c *Critic) ActionDim() int {
	return c.actionDim
}

// Forward evaluates the critic over an observation batch. The actions
// argument may be nil only when the critic is not action-conditioned.
func (c *Critic) Forward(observations, actions *mat.Dense) (*mat.VecDense, error) {
	if c.ActionConditioned() && actions == nil {
		return nil, ErrActionsRequired
	}
	n, d := observations.Dims()
	if d != c.obsDim {
		return nil, fmt.Errorf("observation width %d does not match critic input %d", d, c.obsDim)
	}
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v := c.Bias.Value.AtVec(0)
		for j := 0; j < c.obsDim; j++ {
			v += c.Weights.Value.AtVec(j) * observations.At(i, j)
		}
		for j := 0; j < c.actionDim; j++ {
			v += c.Weights.Value.AtVec(c.obsDim+j) * actions.At(i, j)
		}
		out.SetVec(i, v)
	}
	return out, nil
}

// Backward accumulates parameter gradients given the loss gradient with
// respect to each predicted value
func (c *Critic) Backward(observations, actions *mat.Dense, grad *mat.VecDense) {
	n, _ := observations.Dims()
	for i := 0; i < n; i++ {
		g := grad.AtVec(i)
		for j := 0; j < c.obsDim; j++ {
			c.Weights.Grad.SetVec(j, c.Weights.Grad.AtVec(j)+g*observations.At(i, j))
		}
		for j := 0; j < c.actionDim; j++ {
			k := c.obsDim + j
			c.Weights.Grad.SetVec(k, c.Weights.Grad.AtVec(k)+g*actions.At(i, j))
		}
		c.Bias.Grad.SetVec(0, c.Bias.Grad.AtVec(0)+g)
	}
}

func (c *Critic) Parameters() []*Parameter {
	return []*Parameter{c.Weights, c.Bias}
}

// ActionWeights is the slice of weights applied to the action input,
// i.e. dQ/da for the linear critic
func (c *Critic) ActionWeights() []float64 {
	out := make([]float64, c.actionDim)
	for j := 0; j < c.actionDim; j++ {
		out[j] = c.Weights.Value.AtVec(c.obsDim + j)
	}
	return out
}

// Copy returns a critic with the same weights and zeroed gradients,
// used to spawn target networks
func (c *Critic) Copy() *Critic {
	cp := NewCritic(c.obsDim, c.actionDim)
	cp.Weights.CopyFrom(c.Weights)
	cp.Bias.CopyFrom(c.Bias)
	return cp
}

// PolyakFrom moves the critic weights toward src by factor tau
func (c *Critic) PolyakFrom(src *Critic, tau float64) {
	c.Weights.PolyakFrom(src.Weights, tau)
	c.Bias.PolyakFrom(src.Bias, tau)
}

// ForwardCritic makes a bare critic usable wherever a composite
// actor-critic is accepted
func (c *Critic) ForwardCritic(observations, actions *mat.Dense) (*mat.VecDense, error) {
	return c.Forward(observations, actions)
}

func (c *Critic) BackwardCritic(observations, actions *mat.Dense, grad *mat.VecDense) {
	c.Backward(observations, actions, grad)
}

func (c *Critic) CriticParameters() ([]*Parameter, error) {
	return c.Parameters(), nil
}

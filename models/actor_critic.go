package models

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrNoCritic is returned when critic parameters or predictions are
// requested from a model without a critic
var ErrNoCritic = errors.New("model has no critic")

// CriticTopology is the closed set of critic arrangements an
// actor-critic can carry. Target computation and parameter collection
// dispatch on this rather than probing fields ad hoc.
type CriticTopology int

const (
	SingleCritic CriticTopology = iota
	TwinCritic
	SingleCriticWithTarget
	TwinCriticWithTarget
)

func (t CriticTopology) String() string {
	switch t {
	case SingleCritic:
		return "single"
	case TwinCritic:
		return "twin"
	case SingleCriticWithTarget:
		return "single+target"
	case TwinCriticWithTarget:
		return "twin+target"
	}
	return "unknown"
}

// ActorCriticConfig selects the critic topology at construction
type ActorCriticConfig struct {
	Actor  *Actor
	Critic *Critic
	// TwinCritic adds a second, independently initialized critic for
	// double-Q minimum clipping
	TwinCritic bool
	// TargetCritics spawns a slow-moving copy of each critic
	TargetCritics bool
}

// ActorCritic composes a policy with one or two critics and their
// optional target networks
type ActorCritic struct {
	Actor         *Actor
	Critic        *Critic
	Critic2       *Critic
	TargetCritic  *Critic
	TargetCritic2 *Critic

	training bool
}

func NewActorCritic(cfg ActorCriticConfig) *ActorCritic {
	m := &ActorCritic{
		Actor:  cfg.Actor,
		Critic: cfg.Critic,
	}
	if cfg.TwinCritic && cfg.Critic != nil {
		m.Critic2 = NewCritic(cfg.Critic.ObsDim(), cfg.Critic.ActionDim())
	}
	if cfg.TargetCritics && cfg.Critic != nil {
		m.TargetCritic = cfg.Critic.Copy()
		if m.Critic2 != nil {
			m.TargetCritic2 = m.Critic2.Copy()
		}
	}
	return m
}

// Topology classifies the critic arrangement
func (m *ActorCritic) Topology() CriticTopology {
	switch {
	case m.Critic2 != nil && m.TargetCritic != nil:
		return TwinCriticWithTarget
	case m.Critic2 != nil:
		return TwinCritic
	case m.TargetCritic != nil:
		return SingleCriticWithTarget
	}
	return SingleCritic
}

func (m *ActorCritic) Train() {
	m.training = true
}

func (m *ActorCritic) Eval() {
	m.training = false
}

// Predict returns the mean action for each observation row
func (m *ActorCritic) Predict(observations *mat.Dense) *mat.Dense {
	return m.Actor.Forward(observations)
}

// GetActionDistribution exposes the current policy distribution
func (m *ActorCritic) GetActionDistribution(observations *mat.Dense) *GaussianDistribution {
	return m.Actor.ActionDistribution(observations)
}

// ForwardCritic evaluates the primary critic
func (m *ActorCritic) ForwardCritic(observations, actions *mat.Dense) (*mat.VecDense, error) {
	if m.Critic == nil {
		return nil, ErrNoCritic
	}
	return m.Critic.Forward(observations, actions)
}

// BackwardCritic accumulates gradients on the primary critic
func (m *ActorCritic) BackwardCritic(observations, actions *mat.Dense, grad *mat.VecDense) {
	m.Critic.Backward(observations, actions, grad)
}

// CriticParameters collects the primary critic's parameters plus the
// twin's when present. The actor's parameters are never included.
func (m *ActorCritic) CriticParameters() ([]*Parameter, error) {
	if m.Critic == nil {
		return nil, ErrNoCritic
	}
	params := m.Critic.Parameters()
	if m.Critic2 != nil {
		params = append(params, m.Critic2.Parameters()...)
	}
	return params, nil
}

// PolyakUpdate moves the target critics toward the live critics by
// factor tau. No-op when the model carries no targets.
func (m *ActorCritic) PolyakUpdate(tau float64) {
	if m.TargetCritic != nil {
		m.TargetCritic.PolyakFrom(m.Critic, tau)
	}
	if m.TargetCritic2 != nil {
		m.TargetCritic2.PolyakFrom(m.Critic2, tau)
	}
}

// Weights flattens every parameter for checkpointing
func (m *ActorCritic) Weights() map[string][]float64 {
	out := make(map[string][]float64)
	add := func(prefix string, params []*Parameter) {
		for _, p := range params {
			vals := make([]float64, p.Size())
			for i := range vals {
				vals[i] = p.Value.AtVec(i)
			}
			out[prefix+p.Name] = vals
		}
	}
	if m.Actor != nil {
		add("", m.Actor.Parameters())
	}
	if m.Critic != nil {
		add("", m.Critic.Parameters())
	}
	if m.Critic2 != nil {
		add("twin.", m.Critic2.Parameters())
	}
	return out
}

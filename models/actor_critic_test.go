package models

import (
	"errors"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestActorCriticTopology(t *testing.T) {
	actor := NewActor(2, 1, rand.NewSource(1))
	cases := []struct {
		twin     bool
		targets  bool
		expected CriticTopology
	}{
		{false, false, SingleCritic},
		{true, false, TwinCritic},
		{false, true, SingleCriticWithTarget},
		{true, true, TwinCriticWithTarget},
	}
	for _, c := range cases {
		m := NewActorCritic(ActorCriticConfig{
			Actor:         actor,
			Critic:        NewCritic(2, 1),
			TwinCritic:    c.twin,
			TargetCritics: c.targets,
		})
		if m.Topology() != c.expected {
			t.Errorf("twin=%v targets=%v: expected %s, got %s", c.twin, c.targets, c.expected, m.Topology())
		}
	}
}

func TestCriticParametersExcludeActor(t *testing.T) {
	m := NewActorCritic(ActorCriticConfig{
		Actor:      NewActor(2, 1, rand.NewSource(1)),
		Critic:     NewCritic(2, 1),
		TwinCritic: true,
	})
	params, err := m.CriticParameters()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// two critics, weights and bias each
	if len(params) != 4 {
		t.Fatalf("expected 4 parameters, got %d", len(params))
	}
	for _, p := range params {
		for _, actorParam := range m.Actor.Parameters() {
			if p == actorParam {
				t.Errorf("critic parameters must not include actor parameter %s", p.Name)
			}
		}
	}
}

func TestCriticParametersWithoutCritic(t *testing.T) {
	m := NewActorCritic(ActorCriticConfig{Actor: NewActor(2, 1, rand.NewSource(1))})
	if _, err := m.CriticParameters(); !errors.Is(err, ErrNoCritic) {
		t.Errorf("expected ErrNoCritic, got %v", err)
	}
	if _, err := m.ForwardCritic(mat.NewDense(1, 2, nil), nil); !errors.Is(err, ErrNoCritic) {
		t.Errorf("expected ErrNoCritic, got %v", err)
	}
}

func TestCriticForwardRequiresActions(t *testing.T) {
	c := NewCritic(2, 1)
	if _, err := c.Forward(mat.NewDense(1, 2, nil), nil); !errors.Is(err, ErrActionsRequired) {
		t.Errorf("expected ErrActionsRequired, got %v", err)
	}
	v := NewCritic(2, 0)
	if _, err := v.Forward(mat.NewDense(1, 2, nil), nil); err != nil {
		t.Errorf("value critic should accept nil actions, got %v", err)
	}
}

func TestCriticForwardLinear(t *testing.T) {
	c := NewCritic(2, 1)
	c.Weights.Value.SetVec(0, 1)
	c.Weights.Value.SetVec(1, 2)
	c.Weights.Value.SetVec(2, 3)
	c.Bias.Value.SetVec(0, 0.5)

	obs := mat.NewDense(1, 2, []float64{1, 1})
	actions := mat.NewDense(1, 1, []float64{2})
	out, err := c.Forward(obs, actions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1*1 + 2*1 + 3*2 + 0.5
	if got := out.AtVec(0); got != 9.5 {
		t.Errorf("expected 9.5, got %v", got)
	}
}

func TestPolyakUpdate(t *testing.T) {
	m := NewActorCritic(ActorCriticConfig{
		Actor:         NewActor(1, 1, rand.NewSource(1)),
		Critic:        NewCritic(1, 1),
		TargetCritics: true,
	})
	m.Critic.Weights.Value.SetVec(0, 10)
	m.Critic.Weights.Value.SetVec(1, 10)

	before := m.TargetCritic.Weights.Value.AtVec(0)
	m.PolyakUpdate(0)
	if m.TargetCritic.Weights.Value.AtVec(0) != before {
		t.Errorf("tau=0 should leave the target unchanged")
	}
	m.PolyakUpdate(1)
	if m.TargetCritic.Weights.Value.AtVec(0) != 10 {
		t.Errorf("tau=1 should copy the live critic, got %v", m.TargetCritic.Weights.Value.AtVec(0))
	}
}

func TestCriticCopyIsIndependent(t *testing.T) {
	c := NewCritic(1, 1)
	c.Weights.Value.SetVec(0, 3)
	cp := c.Copy()
	if cp.Weights.Value.AtVec(0) != 3 {
		t.Fatalf("copy should carry the source weights")
	}
	c.Weights.Value.SetVec(0, 7)
	if cp.Weights.Value.AtVec(0) != 3 {
		t.Errorf("copy must not alias the source weights")
	}
}

func TestParameterPolyakFrom(t *testing.T) {
	p := NewParameter("p", 1)
	src := NewParameter("src", 1)
	src.Value.SetVec(0, 10)
	p.PolyakFrom(src, 0.1)
	if got := p.Value.AtVec(0); got != 1 {
		t.Errorf("expected 0.1*10, got %v", got)
	}
}

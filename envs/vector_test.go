package envs

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/LondonNode/anvil/types"
)

func TestNewSyncVectorEnv(t *testing.T) {
	env, err := NewSyncVectorEnv(func() types.Environment {
		return NewSphere(2, -1, 1)
	}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.NumEnvs() != 3 {
		t.Errorf("expected 3 environments, got %d", env.NumEnvs())
	}
	if env.SingleActionSpace().Dim() != 2 {
		t.Errorf("expected a 2-dimensional action space, got %d", env.SingleActionSpace().Dim())
	}

	if _, err := NewSyncVectorEnv(func() types.Environment { return NewSphere(2, -1, 1) }, 0); err == nil {
		t.Errorf("expected an error for zero environments")
	}
}

func TestSyncVectorEnvStep(t *testing.T) {
	env, err := NewSyncVectorEnv(func() types.Environment {
		return NewSphere(2, -1, 1)
	}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env.Reset()

	obs, rewards, dones := env.Step([][]float64{{0, 0}, {1, 1}})
	if len(obs) != 2 || len(rewards) != 2 || len(dones) != 2 {
		t.Fatalf("expected batched outputs for 2 envs")
	}
	if rewards[0] != 0 || rewards[1] != -2 {
		t.Errorf("expected rewards [0 -2], got %v", rewards)
	}
	for i, d := range dones {
		if !d {
			t.Errorf("env %d: a sphere step always ends the episode", i)
		}
	}
}

func TestVectorize(t *testing.T) {
	env := Vectorize(NewSphere(1, -1, 1))
	if env.NumEnvs() != 1 {
		t.Errorf("expected a single wrapped environment, got %d", env.NumEnvs())
	}
}

func TestCartPoleEpisode(t *testing.T) {
	env := NewCartPole(rand.NewSource(1))
	obs := env.Reset()
	if len(obs) != 4 {
		t.Fatalf("expected a 4-dimensional observation, got %d", len(obs))
	}

	// a constant maximal force topples the pole well within the step cap
	done := false
	steps := 0
	for !done && steps < 1000 {
		_, _, done = env.Step([]float64{10})
		steps++
	}
	if !done {
		t.Errorf("the episode should end under a constant maximal force")
	}
	if steps > 500 {
		t.Errorf("episodes are capped at 500 steps, got %d", steps)
	}
}

func TestCartPoleRewardOnFall(t *testing.T) {
	env := NewCartPole(rand.NewSource(1))
	env.Reset()
	var reward float64
	done := false
	for !done {
		_, reward, done = env.Step([]float64{10})
	}
	if reward != 0 {
		t.Errorf("a fall should yield zero reward, got %v", reward)
	}
}

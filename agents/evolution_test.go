package agents

import (
	"errors"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/LondonNode/anvil/buffers"
	"github.com/LondonNode/anvil/envs"
	"github.com/LondonNode/anvil/types"
	"github.com/LondonNode/anvil/updaters"
)

func newSphereSetup(t *testing.T, numEnvs int) (*envs.SyncVectorEnv, types.Buffer, *updaters.GeneticUpdater) {
	t.Helper()
	env, err := envs.NewSyncVectorEnv(func() types.Environment {
		return envs.NewSphere(2, -1, 1)
	}, numEnvs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buffer, err := buffers.NewRolloutBuffer(buffers.RolloutBufferConfig{NumEnvs: numEnvs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updater := updaters.NewGeneticUpdater(env.SingleActionSpace(), numEnvs, rand.NewSource(1))
	return env, buffer, updater
}

func TestGAFit(t *testing.T) {
	env, buffer, updater := newSphereSetup(t, 4)
	agent, err := NewGA(&EvolutionAgentConfig{
		Env:     env,
		Updater: updater,
		PopulationSettings: updaters.PopulationInitializerSettings{
			Strategy: updaters.PopulationInitUniform,
		},
		Buffer: buffer,
	}, updaters.GeneticUpdaterConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := agent.Fit(&EvolutionFitConfig{NumSteps: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.Step() != 3 {
		t.Errorf("expected 3 steps, got %d", agent.Step())
	}
	// every sphere step finishes an episode in all environments
	if agent.Episode() != 3 {
		t.Errorf("expected 3 episodes, got %d", agent.Episode())
	}
	rows, cols := agent.Population().Dims()
	if rows != 4 || cols != 2 {
		t.Errorf("expected a 4x2 population, got %dx%d", rows, cols)
	}
	// every evolution trigger flushes an evaluation log and clears the
	// buffer
	if len(agent.Logger().RewardHistory()) != 3 {
		t.Errorf("expected 3 evaluation logs, got %d", len(agent.Logger().RewardHistory()))
	}
	if agent.Buffer().Size() != 0 {
		t.Errorf("expected an empty buffer after the last trigger, got %d", agent.Buffer().Size())
	}
	for _, r := range agent.Logger().RewardHistory() {
		if r > 0 {
			t.Errorf("sphere rewards can never be positive, got %v", r)
		}
	}
}

func TestGAPopulationReplacedAfterTrigger(t *testing.T) {
	env, buffer, updater := newSphereSetup(t, 4)
	agent, err := NewGA(&EvolutionAgentConfig{
		Env:     env,
		Updater: updater,
		PopulationSettings: updaters.PopulationInitializerSettings{
			Strategy: updaters.PopulationInitUniform,
		},
		Buffer: buffer,
	}, updaters.GeneticUpdaterConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := agent.Fit(&EvolutionFitConfig{NumSteps: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.Population() != updater.Population() {
		t.Errorf("the acting population should be the updater's evolved population")
	}
}

type stubEvolutionUpdater struct{}

func (stubEvolutionUpdater) InitializePopulation(updaters.PopulationInitializerSettings) *mat.Dense {
	return mat.NewDense(1, 1, nil)
}

func (stubEvolutionUpdater) Population() *mat.Dense { return nil }

func TestNewGARejectsForeignUpdater(t *testing.T) {
	env, buffer, _ := newSphereSetup(t, 4)
	_, err := NewGA(&EvolutionAgentConfig{
		Env:     env,
		Updater: stubEvolutionUpdater{},
		Buffer:  buffer,
	}, updaters.GeneticUpdaterConfig{})
	if err == nil {
		t.Errorf("expected an error for an updater of the wrong type")
	}
}

func TestEvolutionFitWithoutTrainer(t *testing.T) {
	env, buffer, updater := newSphereSetup(t, 4)
	agent, err := NewEvolutionAgent(&EvolutionAgentConfig{
		Env:     env,
		Updater: updater,
		Buffer:  buffer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := agent.Fit(&EvolutionFitConfig{NumSteps: 3}); !errors.Is(err, ErrNoTrainer) {
		t.Errorf("expected ErrNoTrainer, got %v", err)
	}
}

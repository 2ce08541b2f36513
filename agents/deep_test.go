package agents

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/LondonNode/anvil/buffers"
	"github.com/LondonNode/anvil/callbacks"
	"github.com/LondonNode/anvil/loggers"
	"github.com/LondonNode/anvil/types"
)

// fixedEpisodeEnv finishes an episode in every environment after exactly
// episodeLen steps, counting total interactions across all calls
type fixedEpisodeEnv struct {
	numEnvs      int
	episodeLen   int
	counts       []int
	interactions int
}

var _ types.VectorEnvironment = &fixedEpisodeEnv{}

func newFixedEpisodeEnv(numEnvs, episodeLen int) *fixedEpisodeEnv {
	return &fixedEpisodeEnv{
		numEnvs:    numEnvs,
		episodeLen: episodeLen,
		counts:     make([]int, numEnvs),
	}
}

func (e *fixedEpisodeEnv) NumEnvs() int { return e.numEnvs }

func (e *fixedEpisodeEnv) SingleObservationSpace() types.Space {
	return types.UniformBox(-1, 1, 1)
}

func (e *fixedEpisodeEnv) SingleActionSpace() types.Space {
	return types.UniformBox(-1, 1, 1)
}

func (e *fixedEpisodeEnv) Reset() [][]float64 {
	out := make([][]float64, e.numEnvs)
	for i := range out {
		out[i] = e.ResetAt(i)
	}
	return out
}

func (e *fixedEpisodeEnv) ResetAt(i int) []float64 {
	e.counts[i] = 0
	return []float64{0}
}

func (e *fixedEpisodeEnv) Step(actions [][]float64) ([][]float64, []float64, []bool) {
	e.interactions++
	obs := make([][]float64, e.numEnvs)
	rewards := make([]float64, e.numEnvs)
	dones := make([]bool, e.numEnvs)
	for i := 0; i < e.numEnvs; i++ {
		e.counts[i]++
		obs[i] = []float64{0}
		rewards[i] = 1
		dones[i] = e.counts[i] >= e.episodeLen
	}
	return obs, rewards, dones
}

// fixedModel is a types.Model that always predicts zeros
type fixedModel struct{}

func (fixedModel) Predict(observations *mat.Dense) *mat.Dense {
	n, _ := observations.Dims()
	return mat.NewDense(n, 1, nil)
}

func (fixedModel) Train() {}
func (fixedModel) Eval()  {}

// zeroExplorer bypasses the exploration layer entirely
type zeroExplorer struct{}

func (zeroExplorer) Action(model types.Model, observations *mat.Dense, step int) *mat.Dense {
	return model.Predict(observations)
}

// recordingTrainer counts training triggers and records the environment
// interaction count at the first one
type recordingTrainer struct {
	env         *fixedEpisodeEnv
	calls       int
	firstCallAt int
	batchSizes  []int
	failWithErr error
}

func (r *recordingTrainer) TrainStep(batchSize, actorEpochs, criticEpochs int) (*types.Log, error) {
	if r.failWithErr != nil {
		return nil, r.failWithErr
	}
	r.calls++
	if r.calls == 1 {
		r.firstCallAt = r.env.interactions
	}
	r.batchSizes = append(r.batchSizes, batchSize)
	return &types.Log{}, nil
}

type callbackFunc func(step int) bool

func (f callbackFunc) OnStep(step int) bool { return f(step) }

// vetoAfter builds a callback constructor that vetoes on its n-th
// invocation
func vetoAfter(n int, count *int) callbacks.Constructor {
	return func(_ *loggers.Logger, _ types.Model, _ callbacks.CallbackSettings) types.Callback {
		return callbackFunc(func(step int) bool {
			*count++
			return *count < n
		})
	}
}

func newTestAgent(t *testing.T, env *fixedEpisodeEnv, cbs []callbacks.Constructor, settings []callbacks.CallbackSettings) *DeepAgent {
	t.Helper()
	buffer, err := buffers.NewRolloutBuffer(buffers.RolloutBufferConfig{NumEnvs: env.NumEnvs()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	agent, err := NewDeepAgent(&DeepAgentConfig{
		Env:              env,
		Model:            fixedModel{},
		Explorer:         zeroExplorer{},
		Buffer:           buffer,
		Callbacks:        cbs,
		CallbackSettings: settings,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return agent
}

func TestFitWithoutTrainer(t *testing.T) {
	agent := newTestAgent(t, newFixedEpisodeEnv(1, 3), nil, nil)
	if err := agent.Fit(&FitConfig{NumSteps: 10, BatchSize: 2}); !errors.Is(err, ErrNoTrainer) {
		t.Errorf("expected ErrNoTrainer, got %v", err)
	}
}

func TestNewDeepAgentCallbackMismatch(t *testing.T) {
	buffer, _ := buffers.NewRolloutBuffer(buffers.RolloutBufferConfig{NumEnvs: 1})
	count := 0
	_, err := NewDeepAgent(&DeepAgentConfig{
		Env:       newFixedEpisodeEnv(1, 3),
		Model:     fixedModel{},
		Explorer:  zeroExplorer{},
		Buffer:    buffer,
		Callbacks: []callbacks.Constructor{vetoAfter(100, &count)},
	})
	if err == nil {
		t.Errorf("expected an error for a callback without matching settings")
	}
}

func TestFitWarmupFillsTheBuffer(t *testing.T) {
	env := newFixedEpisodeEnv(1, 100)
	agent := newTestAgent(t, env, nil, nil)
	trainer := &recordingTrainer{env: env}
	agent.BindTrainer(trainer)

	if err := agent.Fit(&FitConfig{NumSteps: 10, BatchSize: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the first cycle interacts exactly BatchSize times before the first
	// gradient step so the buffer can serve the first sample
	if trainer.firstCallAt != 5 {
		t.Errorf("expected the first training trigger after 5 interactions, got %d", trainer.firstCallAt)
	}
	if agent.Buffer().Size() < 5 {
		t.Errorf("expected at least 5 stored timesteps, got %d", agent.Buffer().Size())
	}
}

func TestFitStepCadence(t *testing.T) {
	env := newFixedEpisodeEnv(1, 1000)
	agent := newTestAgent(t, env, nil, nil)
	trainer := &recordingTrainer{env: env}
	agent.BindTrainer(trainer)

	freq, err := types.NewTrainFrequency("step", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := agent.Fit(&FitConfig{NumSteps: 12, BatchSize: 2, TrainFrequency: freq}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 12/4 cycles: the warmup cycle plus two cadence cycles
	if trainer.calls != 3 {
		t.Errorf("expected 3 training triggers, got %d", trainer.calls)
	}
	if env.interactions != 2+4+4 {
		t.Errorf("expected 10 interactions, got %d", env.interactions)
	}
}

func TestFitEpisodeCadence(t *testing.T) {
	// one environment with 3-step episodes, training once per episode
	// over a 6-step budget: warmup covers the first episode, the wait
	// loop the second, then the budget check stops the run
	env := newFixedEpisodeEnv(1, 3)
	agent := newTestAgent(t, env, nil, nil)
	trainer := &recordingTrainer{env: env}
	agent.BindTrainer(trainer)

	freq, err := types.NewTrainFrequency("episode", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := agent.Fit(&FitConfig{NumSteps: 6, BatchSize: 3, TrainFrequency: freq}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trainer.calls != 2 {
		t.Errorf("expected exactly 2 training triggers, got %d", trainer.calls)
	}
	if agent.Episode() != 2 {
		t.Errorf("expected 2 completed episodes, got %d", agent.Episode())
	}
	if agent.Step() != 6 {
		t.Errorf("expected the step counter to stop at the budget, got %d", agent.Step())
	}
}

func TestFitCallbackVeto(t *testing.T) {
	env := newFixedEpisodeEnv(1, 1000)
	count := 0
	agent := newTestAgent(t, env,
		[]callbacks.Constructor{vetoAfter(5, &count)},
		[]callbacks.CallbackSettings{{}},
	)
	trainer := &recordingTrainer{env: env}
	agent.BindTrainer(trainer)

	if err := agent.Fit(&FitConfig{NumSteps: 100, BatchSize: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the veto lands on the fifth interaction, before the step counter
	// advances past it
	if env.interactions != 5 {
		t.Errorf("expected 5 interactions, got %d", env.interactions)
	}
	if agent.Step() != 4 {
		t.Errorf("expected the step counter to stay at 4, got %d", agent.Step())
	}
	if !agent.Done() {
		t.Errorf("a veto should mark the agent done")
	}
	if trainer.calls != 0 {
		t.Errorf("a veto during warmup must prevent the first training trigger, got %d", trainer.calls)
	}
}

func TestFitPropagatesTrainerError(t *testing.T) {
	env := newFixedEpisodeEnv(1, 1000)
	agent := newTestAgent(t, env, nil, nil)
	trainErr := errors.New("boom")
	agent.BindTrainer(&recordingTrainer{env: env, failWithErr: trainErr})

	if err := agent.Fit(&FitConfig{NumSteps: 10, BatchSize: 2}); !errors.Is(err, trainErr) {
		t.Errorf("expected the trainer error, got %v", err)
	}
}

func TestStepEnvResetsFinishedEnvsIndividually(t *testing.T) {
	// two environments started out of phase: only the finished one is
	// reset and the episode log waits for both
	env := &fixedEpisodeEnv{numEnvs: 2, episodeLen: 2, counts: []int{0, 1}}
	agent := newTestAgent(t, env, nil, nil)

	obs := [][]float64{{0}, {0}}
	obs = agent.StepEnv(obs, 1)
	if env.counts[0] != 1 || env.counts[1] != 0 {
		t.Fatalf("only the finished env should reset, got %v", env.counts)
	}
	if agent.Episode() != 0 {
		t.Fatalf("the episode log must wait for every env, got %d", agent.Episode())
	}

	agent.StepEnv(obs, 1)
	if env.counts[0] != 0 || env.counts[1] != 1 {
		t.Errorf("only the finished env should reset, got %v", env.counts)
	}
	if agent.Episode() != 1 {
		t.Errorf("expected one flushed episode once both envs finished, got %d", agent.Episode())
	}
}

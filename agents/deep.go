// Package agents implements the training orchestrators: the
// gradient-based deep agent loop, the population-based evolution loop
// and the concrete agents built on them.
package agents

import (
	"errors"
	"fmt"

	"github.com/LondonNode/anvil/callbacks"
	"github.com/LondonNode/anvil/loggers"
	"github.com/LondonNode/anvil/types"
)

// ErrNoTrainer is returned when Fit is called before a concrete agent
// has bound its training routine
var ErrNoTrainer = errors.New("no trainer bound: a concrete agent must supply the training routine")

// Trainer is the subclass-specific training routine of a concrete deep
// agent, invoked once per training trigger
type Trainer interface {
	TrainStep(batchSize, actorEpochs, criticEpochs int) (*types.Log, error)
}

// DeepAgentConfig wires the collaborators of the deep agent loop
type DeepAgentConfig struct {
	Env      types.VectorEnvironment
	Model    types.Model
	Explorer types.Explorer
	Buffer   types.Buffer
	Logger   loggers.LoggerSettings
	// Callbacks and CallbackSettings must have equal lengths; each
	// constructor is instantiated with the settings at its index
	Callbacks        []callbacks.Constructor
	CallbackSettings []callbacks.CallbackSettings
	Render           bool
}

// DeepAgent owns the collect-then-train loop of a gradient-based
// agent: the step and episode counters, the training cadence, the
// experience handoff and the callback checks. Concrete agents bind a
// Trainer for the gradient update itself.
type DeepAgent struct {
	env      types.VectorEnvironment
	model    types.Model
	explorer types.Explorer
	buffer   types.Buffer
	logger   *loggers.Logger
	cbs      []types.Callback
	render   bool

	step    int
	episode int
	done    bool
	trainer Trainer
}

func NewDeepAgent(cfg *DeepAgentConfig) (*DeepAgent, error) {
	if cfg.Env == nil {
		return nil, errors.New("deep agent needs an environment")
	}
	if cfg.Model == nil {
		return nil, errors.New("deep agent needs a model")
	}
	if cfg.Explorer == nil {
		return nil, errors.New("deep agent needs an explorer")
	}
	if cfg.Buffer == nil {
		return nil, errors.New("deep agent needs a buffer")
	}
	if len(cfg.Callbacks) != len(cfg.CallbackSettings) {
		return nil, fmt.Errorf("there should be a callback settings object for each callback: %d callbacks, %d settings",
			len(cfg.Callbacks), len(cfg.CallbackSettings))
	}

	loggerSettings := cfg.Logger
	loggerSettings.NumEnvs = cfg.Env.NumEnvs()
	logger := loggers.NewLogger(loggerSettings)

	cbs := make([]types.Callback, len(cfg.Callbacks))
	for i, construct := range cfg.Callbacks {
		cbs[i] = construct(logger, cfg.Model, cfg.CallbackSettings[i])
	}

	return &DeepAgent{
		env:      cfg.Env,
		model:    cfg.Model,
		explorer: cfg.Explorer,
		buffer:   cfg.Buffer,
		logger:   logger,
		cbs:      cbs,
		render:   cfg.Render,
	}, nil
}

// BindTrainer attaches the concrete agent's training routine
func (a *DeepAgent) BindTrainer(t Trainer) {
	a.trainer = t
}

func (a *DeepAgent) Step() int {
	return a.step
}

func (a *DeepAgent) Episode() int {
	return a.episode
}

// Done reports whether a callback has vetoed continued training
func (a *DeepAgent) Done() bool {
	return a.done
}

func (a *DeepAgent) Logger() *loggers.Logger {
	return a.logger
}

func (a *DeepAgent) Buffer() types.Buffer {
	return a.buffer
}

// StepEnv interacts with the environment for numSteps steps starting
// from observation and returns the observation to continue from.
// One call to the per-step protocol per logical step: explore, step,
// record, reset finished environments individually, flush the episode
// log when every environment is done, consult the callbacks.
func (a *DeepAgent) StepEnv(observation [][]float64, numSteps int) [][]float64 {
	a.model.Eval()
	numEnvs := a.env.NumEnvs()
	for s := 0; s < numSteps; s++ {
		if a.render {
			if r, ok := a.env.(types.Renderer); ok {
				r.Render()
			}
		}
		actionMat := a.explorer.Action(a.model, types.RowsToDense(observation), a.step)
		actions := types.DenseToRows(actionMat)
		next, rewards, dones := a.env.Step(actions)

		a.buffer.AddTrajectory(observation, actions, rewards, next, dones)
		a.logger.AddReward(rewards)

		// finished environments reset individually, the others carry
		// their next observation forward
		fresh := make([][]float64, numEnvs)
		for i := 0; i < numEnvs; i++ {
			if dones[i] {
				a.logger.EpisodeDones[i] = true
				fresh[i] = a.env.ResetAt(i)
			} else {
				fresh[i] = next[i]
			}
		}
		observation = fresh

		if a.logger.AllEpisodesDone() {
			a.logger.WriteLog(a.step)
			a.logger.ResetEpisodeLog()
			a.episode++
		}

		vetoed := false
		for _, cb := range a.cbs {
			if !cb.OnStep(a.step) {
				vetoed = true
				break
			}
		}
		if vetoed {
			a.done = true
			return observation
		}
		a.step++
	}
	return observation
}

// FitConfig configures a training run
type FitConfig struct {
	// NumSteps is the total environment step budget
	NumSteps int
	// BatchSize is the minibatch size of a single gradient step; the
	// very first cycle also forces exactly BatchSize interactions so
	// the buffer can serve the first sample
	BatchSize int
	// ActorEpochs per training trigger, defaults to 1
	ActorEpochs int
	// CriticEpochs per training trigger, defaults to 1
	CriticEpochs int
	// TrainFrequency defaults to one trigger per step
	TrainFrequency types.TrainFrequency
}

func (c *FitConfig) withDefaults() *FitConfig {
	out := *c
	if out.ActorEpochs < 1 {
		out.ActorEpochs = 1
	}
	if out.CriticEpochs < 1 {
		out.CriticEpochs = 1
	}
	if !out.TrainFrequency.Valid() {
		out.TrainFrequency = types.EveryStep()
	}
	return &out
}

// Fit repeats interact-then-train cycles until the step budget is
// exhausted or a callback vetoes
func (a *DeepAgent) Fit(cfg *FitConfig) error {
	if a.trainer == nil {
		return ErrNoTrainer
	}
	c := cfg.withDefaults()
	freq := c.TrainFrequency

	// for step cadence the cycle count is known up front
	numCycles := 0
	if freq.Kind() == types.TrainFrequencyStep {
		numCycles = c.NumSteps / freq.N()
	}

	observation := a.env.Reset()
	for cycle := 0; ; cycle++ {
		if freq.Kind() == types.TrainFrequencyStep && cycle >= numCycles {
			return nil
		}

		switch {
		case cycle == 0:
			// warmup: fill the buffer with enough samples for the
			// first gradient step regardless of cadence
			observation = a.StepEnv(observation, c.BatchSize)
		case freq.Kind() == types.TrainFrequencyStep:
			observation = a.StepEnv(observation, freq.N())
		default:
			end := a.episode + freq.N()
			for a.episode != end && !a.done {
				if a.step >= c.NumSteps {
					return nil
				}
				observation = a.StepEnv(observation, 1)
			}
		}

		if a.done {
			return nil
		}

		a.model.Train()
		log, err := a.trainer.TrainStep(c.BatchSize, c.ActorEpochs, c.CriticEpochs)
		if err != nil {
			return err
		}
		a.logger.AddTrainLog(log)
	}
}

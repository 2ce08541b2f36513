package agents

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/LondonNode/anvil/callbacks"
	"github.com/LondonNode/anvil/loggers"
	"github.com/LondonNode/anvil/types"
	"github.com/LondonNode/anvil/updaters"
)

// EvolutionTrainer is the population update routine of a concrete
// evolution agent. Gradient-free, so it takes no batch or epoch
// parameters.
type EvolutionTrainer interface {
	TrainStep() (*types.Log, error)
}

// EvolutionAgentConfig wires the collaborators of the evolution loop
type EvolutionAgentConfig struct {
	Env                types.VectorEnvironment
	Updater            updaters.BaseEvolutionUpdater
	PopulationSettings updaters.PopulationInitializerSettings
	Buffer             types.Buffer
	Logger             loggers.LoggerSettings
	Callbacks          []callbacks.Constructor
	CallbackSettings   []callbacks.CallbackSettings
}

// EvolutionAgent mirrors the deep agent loop for population-based
// optimization: the population itself is the acting policy and
// training replaces gradient steps with population re-sampling
type EvolutionAgent struct {
	env         types.VectorEnvironment
	updater     updaters.BaseEvolutionUpdater
	popSettings updaters.PopulationInitializerSettings
	buffer      types.Buffer
	logger      *loggers.Logger
	cbs         []types.Callback

	population *mat.Dense
	step       int
	episode    int
	done       bool
	trainer    EvolutionTrainer
}

func NewEvolutionAgent(cfg *EvolutionAgentConfig) (*EvolutionAgent, error) {
	if cfg.Env == nil {
		return nil, errors.New("evolution agent needs an environment")
	}
	if cfg.Updater == nil {
		return nil, errors.New("evolution agent needs an updater")
	}
	if cfg.Buffer == nil {
		return nil, errors.New("evolution agent needs a buffer")
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
		cbs[i] = construct(logger, nil, cfg.CallbackSettings[i])
	}

	return &EvolutionAgent{
		env:         cfg.Env,
		updater:     cfg.Updater,
		popSettings: cfg.PopulationSettings,
		buffer:      cfg.Buffer,
		logger:      logger,
		cbs:         cbs,
	}, nil
}

// BindTrainer attaches the concrete agent's population update routine
func (a *EvolutionAgent) BindTrainer(t EvolutionTrainer) {
	a.trainer = t
}

func (a *EvolutionAgent) Step() int {
	return a.step
}

func (a *EvolutionAgent) Episode() int {
	return a.episode
}

func (a *EvolutionAgent) Done() bool {
	return a.done
}

func (a *EvolutionAgent) Logger() *loggers.Logger {
	return a.logger
}

func (a *EvolutionAgent) Buffer() types.Buffer {
	return a.buffer
}

// Population is the candidate set currently acting in the environment
func (a *EvolutionAgent) Population() *mat.Dense {
	return a.population
}

// StepEnv executes the current population's candidate actions in every
// parallel environment for numSteps steps
func (a *EvolutionAgent) StepEnv(numSteps int) {
	numEnvs := a.env.NumEnvs()
	for s := 0; s < numSteps; s++ {
		actions := types.DenseToRows(a.population)
		observations, rewards, dones := a.env.Step(actions)

		a.buffer.AddTrajectory(observations, actions, rewards, observations, dones)

		for i := 0; i < numEnvs; i++ {
			if dones[i] {
				a.logger.EpisodeDones[i] = true
			}
		}
		if a.logger.AllEpisodesDone() {
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
			return
		}
		a.step++
	}
}

// evaluateAgent scores the stored trajectory batch with its maximum
// reward and flushes an episode log
func (a *EvolutionAgent) evaluateAgent() error {
	batch, err := a.buffer.All()
	if err != nil {
		return err
	}
	max := batch.Rewards[0]
	for _, r := range batch.Rewards[1:] {
		if r > max {
			max = r
		}
	}
	a.logger.AddReward([]float64{max})
	a.logger.WriteLog(a.step)
	a.logger.ResetEpisodeLog()
	return nil
}

// EvolutionFitConfig configures an evolution run
type EvolutionFitConfig struct {
	// NumSteps is the total environment step budget
	NumSteps int
	// TrainFrequency defaults to one trigger per step
	TrainFrequency types.TrainFrequency
}

// Fit repeats interact-then-evolve cycles until the step budget is
// exhausted or a callback vetoes
func (a *EvolutionAgent) Fit(cfg *EvolutionFitConfig) error {
	if a.trainer == nil {
		return ErrNoTrainer
	}
	freq := cfg.TrainFrequency
	if !freq.Valid() {
		freq = types.EveryStep()
	}

	numCycles := 0
	if freq.Kind() == types.TrainFrequencyStep {
		numCycles = cfg.NumSteps / freq.N()
	}

	a.population = a.updater.InitializePopulation(a.popSettings)

	for cycle := 0; ; cycle++ {
		if freq.Kind() == types.TrainFrequencyStep && cycle >= numCycles {
			return nil
		}

		if freq.Kind() == types.TrainFrequencyStep {
			a.StepEnv(freq.N())
		} else {
			end := a.episode + freq.N()
			for a.episode != end && !a.done {
				if a.step >= cfg.NumSteps {
					return nil
				}
				a.StepEnv(1)
			}
		}

		if a.done {
			return nil
		}

		if err := a.evaluateAgent(); err != nil {
			return err
		}
		log, err := a.trainer.TrainStep()
		if err != nil {
			return err
		}
		a.population = a.updater.Population()
		a.logger.AddTrainLog(log)
	}
}

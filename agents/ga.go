package agents

import (
	"fmt"

	"github.com/LondonNode/anvil/types"
	"github.com/LondonNode/anvil/updaters"
)

// GA is a genetic-algorithm agent: the population acts in the
// vectorized environment and evolves through selection, crossover,
// mutation and elitism
type GA struct {
	*EvolutionAgent
	updater *updaters.GeneticUpdater
	cfg     updaters.GeneticUpdaterConfig
}

var _ EvolutionTrainer = &GA{}

func NewGA(cfg *EvolutionAgentConfig, updaterCfg updaters.GeneticUpdaterConfig) (*GA, error) {
	base, err := NewEvolutionAgent(cfg)
	if err != nil {
		return nil, err
	}
	genetic, ok := cfg.Updater.(*updaters.GeneticUpdater)
	if !ok {
		return nil, fmt.Errorf("GA needs a *updaters.GeneticUpdater, got %T", cfg.Updater)
	}
	agent := &GA{
		EvolutionAgent: base,
		updater:        genetic,
		cfg:            updaterCfg,
	}
	base.BindTrainer(agent)
	return agent, nil
}

// TrainStep scores every candidate with its summed reward over the
// stored trajectories, evolves the population and clears the buffer
func (g *GA) TrainStep() (*types.Log, error) {
	batch, err := g.Buffer().All()
	if err != nil {
		return nil, err
	}
	fitness := batch.RewardSumsPerEnv()

	log, err := g.updater.Update(fitness, g.cfg)
	if err != nil {
		return nil, err
	}
	if err := g.Buffer().Reset(); err != nil {
		return nil, err
	}

	return &types.Log{Divergence: log.Divergence, Entropy: log.Entropy}, nil
}

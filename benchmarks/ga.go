package benchmarks

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/LondonNode/anvil/agents"
	"github.com/LondonNode/anvil/envs"
	"github.com/LondonNode/anvil/loggers"
	"github.com/LondonNode/anvil/monitor"
	"github.com/LondonNode/anvil/types"
	"github.com/LondonNode/anvil/updaters"
)

func runGA(dim int, bound, elitism, mutationRate float64) error {
	env, err := envs.NewSyncVectorEnv(func() types.Environment {
		return envs.NewSphere(dim, -bound, bound)
	}, numEnvs)
	if err != nil {
		return err
	}

	buffer, err := makeBuffer(numEnvs)
	if err != nil {
		return err
	}

	updater := updaters.NewGeneticUpdater(env.SingleActionSpace(), numEnvs, rand.NewSource(seed))

	agent, err := agents.NewGA(&agents.EvolutionAgentConfig{
		Env:     env,
		Updater: updater,
		PopulationSettings: updaters.PopulationInitializerSettings{
			Strategy: updaters.PopulationInitUniform,
		},
		Buffer: buffer,
		Logger: loggers.LoggerSettings{
			Path:    path.Join(savePath, "ga"),
			Verbose: true,
		},
	}, updaters.GeneticUpdaterConfig{
		Elitism:      elitism,
		MutationRate: mutationRate,
	})
	if err != nil {
		return err
	}

	startMonitor(func() monitor.Status {
		status := monitor.Status{
			Step:    agent.Step(),
			Episode: agent.Episode(),
			Done:    agent.Done(),
		}
		if ret, ok := agent.Logger().LastReturn(); ok {
			status.MeanReturn = ret
		}
		return status
	})

	if err := agent.Fit(&agents.EvolutionFitConfig{NumSteps: numSteps}); err != nil {
		return err
	}
	fmt.Println("")

	return loggers.PlotRewards(agent.Logger().RewardHistory(), "GA on Sphere", path.Join(savePath, "ga", "rewards.png"))
}

func GACommand() *cobra.Command {
	var dim int
	var bound float64
	var elitism float64
	var mutationRate float64

	cmd := &cobra.Command{
		Use: "ga",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGA(dim, bound, elitism, mutationRate)
		},
	}
	cmd.PersistentFlags().IntVar(&dim, "dim", 2, "Dimensionality of the sphere objective")
	cmd.PersistentFlags().Float64Var(&bound, "bound", 10, "Search space bound")
	cmd.PersistentFlags().Float64Var(&elitism, "elitism", 0.1, "Fraction of top candidates carried over unchanged")
	cmd.PersistentFlags().Float64Var(&mutationRate, "mutation-rate", 0.1, "Per-gene mutation probability")
	return cmd
}

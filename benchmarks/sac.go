package benchmarks

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/LondonNode/anvil/agents"
	"github.com/LondonNode/anvil/buffers"
	"github.com/LondonNode/anvil/callbacks"
	"github.com/LondonNode/anvil/envs"
	"github.com/LondonNode/anvil/explorers"
	"github.com/LondonNode/anvil/loggers"
	"github.com/LondonNode/anvil/models"
	"github.com/LondonNode/anvil/monitor"
	"github.com/LondonNode/anvil/types"
)

func runSAC(alpha, gamma, noiseScale float64, startSteps int, twin, targets bool) error {
	env, err := envs.NewSyncVectorEnv(func() types.Environment {
		return envs.NewCartPole(rand.NewSource(seed))
	}, numEnvs)
	if err != nil {
		return err
	}

	obsDim := env.SingleObservationSpace().Dim()
	actionDim := env.SingleActionSpace().Dim()
	model := models.NewActorCritic(models.ActorCriticConfig{
		Actor:         models.NewActor(obsDim, actionDim, rand.NewSource(seed)),
		Critic:        models.NewCritic(obsDim, actionDim),
		TwinCritic:    twin,
		TargetCritics: targets,
	})

	buffer, err := makeBuffer(numEnvs)
	if err != nil {
		return err
	}

	agent, err := agents.NewSAC(&agents.DeepAgentConfig{
		Env:   env,
		Model: model,
		Explorer: explorers.NewBaseExplorer(env.SingleActionSpace(), explorers.ExplorerSettings{
			StartSteps: startSteps,
			Scale:      noiseScale,
		}, rand.NewSource(seed)),
		Buffer: buffer,
		Logger: loggers.LoggerSettings{
			Path:    path.Join(savePath, "sac"),
			Verbose: true,
		},
		Callbacks: []callbacks.Constructor{callbacks.NewCheckpoint},
		CallbackSettings: []callbacks.CallbackSettings{
			{SavePath: path.Join(savePath, "sac", "checkpoints"), NamePrefix: "sac"},
		},
	}, agents.SACSettings{
		Alpha: alpha,
		Gamma: gamma,
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
		if log, ok := agent.Logger().LastTrainLog(); ok {
			status.ActorLoss = log.ActorLoss
			status.CriticLoss = log.CriticLoss
		}
		return status
	})

	if err := agent.Fit(&agents.FitConfig{
		NumSteps:  numSteps,
		BatchSize: batchSize,
	}); err != nil {
		return err
	}
	fmt.Println("")

	return loggers.PlotRewards(agent.Logger().RewardHistory(), "SAC on CartPole", path.Join(savePath, "sac", "rewards.png"))
}

func SACCommand() *cobra.Command {
	var alpha float64
	var gamma float64
	var noiseScale float64
	var startSteps int
	var twin bool
	var targets bool

	cmd := &cobra.Command{
		Use: "sac",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSAC(alpha, gamma, noiseScale, startSteps, twin, targets)
		},
	}
	cmd.PersistentFlags().Float64Var(&alpha, "alpha", 0.2, "Entropy temperature")
	cmd.PersistentFlags().Float64Var(&gamma, "gamma", 0.99, "Discount factor")
	cmd.PersistentFlags().Float64Var(&noiseScale, "noise", 0.1, "Exploration noise scale")
	cmd.PersistentFlags().IntVar(&startSteps, "start-steps", 1000, "Random action steps at the start of training")
	cmd.PersistentFlags().BoolVar(&twin, "twin", true, "Use a twin critic")
	cmd.PersistentFlags().BoolVar(&targets, "targets", true, "Use target critics")
	return cmd
}

func makeBuffer(numEnvs int) (types.Buffer, error) {
	if redisAddr != "" {
		return buffers.NewRedisBuffer(buffers.RedisBufferConfig{
			Addr:    redisAddr,
			NumEnvs: numEnvs,
			Seed:    seed,
		})
	}
	return buffers.NewRolloutBuffer(buffers.RolloutBufferConfig{
		NumEnvs: numEnvs,
		Seed:    seed,
	})
}

func startMonitor(source func() monitor.Status) {
	if monitorAddr == "" {
		return
	}
	server := monitor.NewServer(monitorAddr, source)
	go func() {
		if err := server.Start(); err != nil {
			fmt.Printf("monitor server stopped: %v\n", err)
		}
	}()
}

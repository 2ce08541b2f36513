// Package benchmarks wires the training runs exposed on the command
// line.
package benchmarks

import "github.com/spf13/cobra"

var (
	numSteps    int
	batchSize   int
	numEnvs     int
	savePath    string
	seed        uint64
	monitorAddr string
	redisAddr   string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{Use: "anvil"}
	rootCommand.PersistentFlags().IntVarP(&numSteps, "steps", "n", 50000, "Total number of environment steps to train over")
	rootCommand.PersistentFlags().IntVarP(&batchSize, "batch", "b", 64, "Minibatch size for gradient steps")
	rootCommand.PersistentFlags().IntVar(&numEnvs, "envs", 1, "Number of parallel environments")
	rootCommand.PersistentFlags().StringVarP(&savePath, "save", "s", "results", "Save logs and plots in the specified folder")
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 1, "Random seed")
	rootCommand.PersistentFlags().StringVar(&monitorAddr, "monitor", "", "Serve a live status endpoint on this address (e.g. :8080)")
	rootCommand.PersistentFlags().StringVar(&redisAddr, "redis", "", "Use a redis experience store at this address instead of the in-memory buffer")
	// adding the subcommands here
	rootCommand.AddCommand(SACCommand())
	rootCommand.AddCommand(GACommand())
	return rootCommand
}

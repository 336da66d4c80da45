package commands

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logPath    string
	logLevel   string
	seed       uint64
	statePath  string
	redisAddr  string
	maxSteps   int

	cpuprofile string
	memprofile string
)

// stops the profiles started in PersistentPreRunE
var stopProfiling = func() {}

// Execute runs the root command and stops the profiles it started, also when the command fails
func Execute(rootCommand *cobra.Command) error {
	defer func() {
		stopProfiling()
		stopProfiling = func() {}
	}()
	return rootCommand.Execute()
}

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "dodge-rl",
		Short: "Train a Q-learning agent to dodge obstacles",
		// without a subcommand the interactive menu runs
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd)
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			stop, err := startProfiling(cpuprofile, memprofile)
			if err != nil {
				return err
			}
			stopProfiling = stop
			return nil
		},
		SilenceUsage: true,
	}
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "game_config.json", "Configuration file, JSON or YAML (defaults are used when missing)")
	rootCommand.PersistentFlags().StringVar(&logPath, "log", "game.log", "Log file, empty logs to the console only")
	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 0, "Random seed, 0 seeds from the clock")
	rootCommand.PersistentFlags().StringVarP(&statePath, "state", "s", "agent_state.json", "File (or redis key) holding the agent state")
	rootCommand.PersistentFlags().StringVar(&redisAddr, "redis", "", "Keep the agent state in redis at this address instead of a file")
	rootCommand.PersistentFlags().IntVar(&maxSteps, "max-steps", 0, "Override the maximum steps per episode")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	rootCommand.PersistentFlags().StringVar(&memprofile, "memprofile", "", "write memory profile to `file`")
	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(EvaluateCommand())
	rootCommand.AddCommand(ConfigCommand())
	rootCommand.AddCommand(MenuCommand())
	return rootCommand
}

package commands

import (
	"fmt"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

func TrainCommand() *cobra.Command {
	var episodes int
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the agent, resuming from the saved state when there is one",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, done := signalContext(s.logger)
			defer done()

			if err := s.loadIfPresent(ctx); err != nil {
				return err
			}
			if episodes <= 0 {
				episodes = s.config.Episodes
			}
			opts.progress = !opts.render
			summary, err := s.train(ctx, episodes, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trained %d episodes, mean return %.2f, collisions %d\n", summary.Episodes, summary.Mean, summary.Collisions)
			if summary.Interrupted {
				level.Info(s.logger).Log("msg", "training interrupted, saving the partial state")
			}
			// the context may be cancelled by now
			return s.saveState(cmd.Context(), s.stateKey)
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "e", 0, "Number of episodes to train (defaults to the configured episodes)")
	cmd.Flags().BoolVar(&opts.render, "render", false, "Render every step to the console")
	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "Serve the live status on this address")
	cmd.Flags().StringVar(&opts.plotPath, "plot", "", "Write return plots to this folder")
	cmd.Flags().StringVar(&opts.recordPath, "record", "", "Append every episode trace to this JSON lines file")
	return cmd
}

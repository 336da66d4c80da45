package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// EvaluateCommand is the test subcommand, greedy episodes from the saved state
func EvaluateCommand() *cobra.Command {
	var episodes int
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run greedy episodes with the saved agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if episodes <= 0 {
				return fmt.Errorf("episodes must be positive, got %d", episodes)
			}
			s, err := newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, done := signalContext(s.logger)
			defer done()

			if err := s.loadState(ctx, s.stateKey); err != nil {
				return err
			}
			summary, err := s.test(ctx, episodes, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tested %d episodes, average return %.2f, collisions %d\n", summary.Episodes, summary.Mean, summary.Collisions)
			return nil
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "e", 1, "Number of test episodes")
	cmd.Flags().BoolVar(&opts.render, "render", true, "Render every step to the console")
	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "Serve the live status on this address")
	cmd.Flags().StringVar(&opts.recordPath, "record", "", "Append every episode trace to this JSON lines file")
	return cmd
}

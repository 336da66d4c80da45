package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/dodge-rl/config"
)

func ConfigCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the effective configuration to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if maxSteps > 0 {
				cfg.MaxSteps = maxSteps
			}
			if err := cfg.Save(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "game_config.json", "Destination, JSON or YAML by extension")
	return cmd
}

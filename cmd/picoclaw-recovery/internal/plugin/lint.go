package plugin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal"
	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal/pluginruntime"
)

func newLintSubcommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Lint plugin configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}

			_, summary, err := pluginruntime.ResolveConfiguredPlugins(cfg)
			if err != nil {
				return fmt.Errorf("invalid plugin config: %w", err)
			}

			for _, w := range summary.Warnings {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "plugin config lint: ok"); err != nil {
				return err
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", internal.GetConfigPath(), "Path to config file")

	return cmd
}

package rules

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal"
	"github.com/sipeed/picoclaw-recovery/pkg/recovery"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func NewRulesCommand() *cobra.Command {
	var (
		format     string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the error classification rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("invalid value for --format: %q (allowed: %s, %s)", format, formatText, formatJSON)
			}

			cfg, err := internal.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}

			return renderRules(cmd.OutOrStdout(), format, recovery.New(cfg.RecoveryOptions()).Rules())
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "Output format (text|json)")
	cmd.Flags().StringVar(&configPath, "config", internal.GetConfigPath(), "Path to config file")

	return cmd
}

func renderRules(w io.Writer, format string, rules []recovery.RuleInfo) error {
	if format == formatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rules)
	}

	if _, err := fmt.Fprintln(w, "ORDER\tPATH\tDESCRIPTION"); err != nil {
		return err
	}
	for _, r := range rules {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", r.Order, r.Path, r.Description); err != nil {
			return err
		}
	}
	return nil
}

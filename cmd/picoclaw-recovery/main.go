// PicoClaw - Ultra-lightweight personal AI agent
// Inspired by and based on nanobot: https://github.com/HKUDS/nanobot
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal"
	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal/hook"
	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal/plugin"
	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal/rules"
	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal/version"
)

func NewRecoveryCommand() *cobra.Command {
	short := fmt.Sprintf("%s picoclaw-recovery - error recovery hooks for agent tool calls v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:           "picoclaw-recovery",
		Short:         short,
		Example:       "echo '{\"toolName\":\"exec\",\"error\":{\"message\":\"command not found\"}}' | picoclaw-recovery hook after-tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		hook.NewHookCommand(),
		rules.NewRulesCommand(),
		plugin.NewPluginCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewRecoveryCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

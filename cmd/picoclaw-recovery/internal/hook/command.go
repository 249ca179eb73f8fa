package hook

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal"
	"github.com/sipeed/picoclaw-recovery/cmd/picoclaw-recovery/internal/pluginruntime"
	"github.com/sipeed/picoclaw-recovery/pkg/hooks"
	"github.com/sipeed/picoclaw-recovery/pkg/hostctx"
	"github.com/sipeed/picoclaw-recovery/pkg/logger"
	"github.com/sipeed/picoclaw-recovery/pkg/plugin"
	"github.com/sipeed/picoclaw-recovery/pkg/plugin/recoveryplugin"
)

// stage is one host extension point: it runs the decoded context through the
// registry and writes the produced fields back into it.
type stage struct {
	use   string
	short string
	run   func(ctx context.Context, r *hooks.HookRegistry, c *hostctx.Context)
}

var stages = []stage{
	{
		use:   "before-tool",
		short: "Warn about high-risk shell commands before a tool runs",
		run: func(ctx context.Context, r *hooks.HookRegistry, c *hostctx.Context) {
			e := c.BeforeToolCallEvent()
			r.TriggerBeforeToolCall(ctx, e)
			c.ApplyBeforeToolCall(e)
		},
	},
	{
		use:   "after-tool",
		short: "Diagnose a failed tool call and suggest a fix",
		run: func(ctx context.Context, r *hooks.HookRegistry, c *hostctx.Context) {
			e := c.AfterToolCallEvent()
			r.TriggerAfterToolCall(ctx, e)
			c.ApplyAfterToolCall(e)
		},
	},
	{
		use:   "agent-end",
		short: "Summarize errors and fix attempts in the conversation",
		run: func(ctx context.Context, r *hooks.HookRegistry, c *hostctx.Context) {
			e := c.AgentEndEvent()
			r.TriggerAgentEnd(ctx, e)
			c.ApplyAgentEnd(e)
		},
	},
}

func NewHookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Run a lifecycle hook on a JSON context read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	for _, st := range stages {
		cmd.AddCommand(newStageCommand(st))
	}

	return cmd
}

func newStageCommand(st stage) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   st.use,
		Short: st.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd, configPath, st)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", internal.GetConfigPath(), "Path to config file")

	return cmd
}

func runStage(cmd *cobra.Command, configPath string, st stage) error {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	pm, _, err := pluginruntime.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("error loading plugins: %w", err)
	}

	hc, err := hostctx.Decode(cmd.InOrStdin())
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	sessionKey := hc.SessionKey()
	if sessionKey == "" {
		sessionKey = runID
	}
	fields := map[string]any{
		"run_id":  runID,
		"session": sessionKey,
		"stage":   st.use,
		"tool":    hc.ToolName,
		"plugins": len(pm.Names()),
	}
	logger.DebugCF("hook", "Hook invoked", fields)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// Each invocation is a fresh process, so it opens its own session.
	pm.HookRegistry().TriggerSessionStart(ctx, &hooks.SessionEvent{
		SessionKey: sessionKey,
		Channel:    "hook",
	})
	st.run(ctx, pm.HookRegistry(), hc)

	if err := hc.Encode(cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("writing hook context: %w", err)
	}

	fields["feedback"] = hc.UserFeedback != ""
	maps.Copy(fields, pluginStats(pm))
	logger.DebugCF("hook", "Hook finished", fields)
	return nil
}

// pluginStats returns the recovery plugin's counters, or nil when the plugin
// is disabled.
func pluginStats(pm *plugin.Manager) map[string]any {
	p, ok := pm.Lookup(recoveryplugin.Name)
	if !ok {
		return nil
	}
	rp, ok := p.(*recoveryplugin.Plugin)
	if !ok {
		return nil
	}
	return rp.Snapshot().Fields()
}

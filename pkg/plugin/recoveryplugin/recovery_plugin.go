package recoveryplugin

import (
	"context"
	"sync"

	"github.com/sipeed/picoclaw-recovery/pkg/hooks"
	"github.com/sipeed/picoclaw-recovery/pkg/logger"
	"github.com/sipeed/picoclaw-recovery/pkg/plugin"
	"github.com/sipeed/picoclaw-recovery/pkg/recovery"
	"github.com/sipeed/picoclaw-recovery/pkg/tools"
)

// Name is the plugin name used in config and the builtin catalog.
const Name = "error-recovery"

// Stats counts hook invocations and how failures were classified.
type Stats struct {
	Sessions        int
	BeforeToolCalls int
	RiskWarnings    int
	AfterToolCalls  int
	Failures        int
	ByPath          map[recovery.Path]int
	Summaries       int
}

// Fields renders the counters as logger fields. Per-path failure counts are
// keyed path_<name>.
func (s Stats) Fields() map[string]any {
	fields := map[string]any{
		"sessions":          s.Sessions,
		"before_tool_calls": s.BeforeToolCalls,
		"risk_warnings":     s.RiskWarnings,
		"after_tool_calls":  s.AfterToolCalls,
		"failures":          s.Failures,
		"summaries":         s.Summaries,
	}
	for path, n := range s.ByPath {
		fields["path_"+string(path)] = n
	}
	return fields
}

// Plugin attaches recovery advice to lifecycle events. It can be loaded
// through a plugin.Manager or used directly as a tools.ToolHook.
type Plugin struct {
	hook *recovery.Hook

	mu    sync.Mutex
	stats Stats
}

var (
	_ plugin.Plugin  = (*Plugin)(nil)
	_ tools.ToolHook = (*Plugin)(nil)
)

func New(opts recovery.Options) *Plugin {
	return &Plugin{
		hook:  recovery.New(opts),
		stats: Stats{ByPath: make(map[recovery.Path]int)},
	}
}

func (p *Plugin) Name() string {
	return Name
}

func (p *Plugin) APIVersion() string {
	return plugin.APIVersion
}

// Hook exposes the underlying classifier.
func (p *Plugin) Hook() *recovery.Hook {
	return p.hook
}

// Snapshot returns a copy of the counters.
func (p *Plugin) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.ByPath = make(map[recovery.Path]int, len(p.stats.ByPath))
	for k, v := range p.stats.ByPath {
		s.ByPath[k] = v
	}
	return s
}

func (p *Plugin) Register(r *hooks.HookRegistry) error {
	opts := p.hook.Options()
	logger.DebugCF(Name, "Plugin registered", map[string]any{
		"shell_tool":   opts.ShellTool,
		"read_tool":    opts.ReadTool,
		"write_tool":   opts.WriteTool,
		"risk_markers": len(opts.RiskMarkers),
	})

	r.OnSessionStart("error-recovery-session", 0, func(_ context.Context, e *hooks.SessionEvent) error {
		p.mu.Lock()
		p.stats.Sessions++
		p.mu.Unlock()
		logger.DebugCF(Name, "Session started", map[string]any{"session": e.SessionKey})
		return nil
	})

	r.OnBeforeToolCall("error-recovery-risk-warning", 100, func(_ context.Context, e *hooks.BeforeToolCallEvent) error {
		w := p.warn(e.ToolName, e.Args)
		if w.Triggered {
			e.UserFeedback = w.Feedback
		}
		return nil
	})

	r.OnAfterToolCall("error-recovery-diagnose", 0, func(_ context.Context, e *hooks.AfterToolCallEvent) error {
		advice := p.diagnose(ToolCall(e.ToolName, e.Args, e.Result, e.Err))
		if !advice.Triggered {
			return nil
		}
		e.UserFeedback = advice.Feedback
		if advice.Suggestion != "" {
			e.AutoFixSuggestion = advice.Suggestion
		}
		return nil
	})

	r.OnAgentEnd("error-recovery-summary", 0, func(_ context.Context, e *hooks.AgentEndEvent) error {
		s := p.hook.AgentEnd(e.Messages)
		if !s.Triggered {
			return nil
		}
		p.mu.Lock()
		p.stats.Summaries++
		p.mu.Unlock()
		e.UserFeedback = s.Feedback
		return nil
	})

	return nil
}

// BeforeExecute logs high-risk commands and never blocks.
func (p *Plugin) BeforeExecute(_ context.Context, toolName string, args map[string]interface{}) error {
	if w := p.warn(toolName, args); w.Triggered {
		logger.WarnCF(Name, "high-risk command about to run", map[string]any{
			"tool":    toolName,
			"command": w.Command,
		})
	}
	return nil
}

// AfterExecute appends diagnostics and the suggestion to result.ForUser.
func (p *Plugin) AfterExecute(_ context.Context, toolName string, args map[string]interface{}, result *tools.ToolResult) {
	if result == nil {
		return
	}
	advice := p.diagnose(ToolCall(toolName, args, result, nil))
	if !advice.Triggered {
		return
	}
	result.ForUser += advice.Feedback
	if advice.Suggestion != "" {
		result.ForUser += advice.Suggestion + "\n"
	}
}

func (p *Plugin) warn(toolName string, args map[string]any) recovery.Warning {
	w := p.hook.BeforeToolCall(recovery.ToolCall{ToolName: toolName, Params: args})

	p.mu.Lock()
	p.stats.BeforeToolCalls++
	if w.Triggered {
		p.stats.RiskWarnings++
	}
	p.mu.Unlock()
	return w
}

func (p *Plugin) diagnose(call recovery.ToolCall) recovery.Advice {
	advice := p.hook.AfterToolCall(call)

	p.mu.Lock()
	p.stats.AfterToolCalls++
	if advice.Triggered {
		p.stats.Failures++
		p.stats.ByPath[advice.Path]++
	}
	p.mu.Unlock()
	return advice
}

// ToolCall converts hook inputs into the classifier's input. A result is
// reported as status "error" when IsError is set; its error text comes from
// ToolResult.ErrorText.
func ToolCall(toolName string, args map[string]any, result *tools.ToolResult, err error) recovery.ToolCall {
	call := recovery.ToolCall{ToolName: toolName, Params: args}
	if err != nil {
		call.Err = &recovery.ToolError{Message: err.Error()}
	}
	if result != nil {
		status := "ok"
		if result.IsError {
			status = "error"
		}
		call.Result = &recovery.Outcome{Status: status, Error: result.ErrorText()}
	}
	return call
}

// Package recovery diagnoses failed tool calls and produces advisory text.
//
// A Hook is consulted at three points of an agent run: before a tool runs
// (risk warnings for shell commands), after it runs (error classification
// and a remediation suggestion) and when the run ends (error statistics).
// Suggestions are text only. Nothing here executes commands, touches files
// or retries the failed call.
package recovery

import (
	"fmt"
	"strings"

	"github.com/sipeed/picoclaw-recovery/pkg/logger"
	"github.com/sipeed/picoclaw-recovery/pkg/providers"
)

const component = "error-recovery"

// Options selects which tool names map to the shell, read and write
// branches, and which substrings mark a shell command as high risk.
type Options struct {
	ShellTool   string
	ReadTool    string
	WriteTool   string
	RiskMarkers []string
}

// DefaultOptions matches the tool names used by PicoClaw's builtin tools.
func DefaultOptions() Options {
	return Options{
		ShellTool:   "exec",
		ReadTool:    "read",
		WriteTool:   "write",
		RiskMarkers: []string{"rm -rf", "sudo", "chmod 777"},
	}
}

// Hook is stateless after construction and safe for concurrent use.
type Hook struct {
	opts  Options
	rules []rule
}

// New builds a Hook. Empty tool names and a nil marker list take defaults;
// an explicitly empty marker list disables risk warnings.
func New(opts Options) *Hook {
	def := DefaultOptions()
	if opts.ShellTool == "" {
		opts.ShellTool = def.ShellTool
	}
	if opts.ReadTool == "" {
		opts.ReadTool = def.ReadTool
	}
	if opts.WriteTool == "" {
		opts.WriteTool = def.WriteTool
	}
	if opts.RiskMarkers == nil {
		opts.RiskMarkers = def.RiskMarkers
	}

	markers := make([]string, 0, len(opts.RiskMarkers))
	for _, m := range opts.RiskMarkers {
		if strings.TrimSpace(m) != "" {
			markers = append(markers, m)
		}
	}
	opts.RiskMarkers = markers

	return &Hook{opts: opts, rules: buildRules(opts)}
}

// Options returns the effective options.
func (h *Hook) Options() Options {
	o := h.opts
	o.RiskMarkers = append([]string(nil), h.opts.RiskMarkers...)
	return o
}

// BeforeToolCall warns about high-risk shell commands. It never blocks.
func (h *Hook) BeforeToolCall(call ToolCall) Warning {
	if call.ToolName != h.opts.ShellTool {
		return Warning{}
	}
	command := call.Command()
	if command == "" || !containsAny(command, h.opts.RiskMarkers...) {
		return Warning{}
	}

	logger.DebugCF(component, "high-risk command", map[string]any{"command": command})
	return Warning{
		Triggered: true,
		Command:   command,
		Feedback:  fmt.Sprintf("⚠️ **高风险操作检测**\n即将执行: `%s`\n", command),
	}
}

// AfterToolCall classifies a failed call and returns diagnostics. Calls that
// did not fail return a zero Advice.
func (h *Hook) AfterToolCall(call ToolCall) Advice {
	if !call.Failed() {
		return Advice{}
	}
	msg := call.ErrorMessage()

	logger.InfoCF(component, fmt.Sprintf("🔍 检测到 %s 工具执行失败:", call.ToolName), nil)
	logger.InfoCF(component, "    错误信息: "+msg, nil)

	var fb feedback
	fb.line("")
	fb.line("🔧 **" + FixMarker + "中...**")
	fb.line(fmt.Sprintf("📋 检测到错误: `%s` 工具执行失败", call.ToolName))
	fb.line("❌ 错误信息: " + msg)

	r := h.classify(call)
	fb.line(r.intro)
	suggestion := r.apply(call, &fb)

	return Advice{
		Triggered:    true,
		Path:         r.path,
		ErrorMessage: msg,
		Feedback:     fb.String(),
		Suggestion:   suggestion,
	}
}

// AgentEnd counts tool messages mentioning "error" and tool messages that
// carry FixMarker. Only string content is inspected. FixMarker is counted
// only when the host echoed earlier feedback into tool message content.
func (h *Hook) AgentEnd(messages []providers.Message) Summary {
	var s Summary
	for _, m := range messages {
		if m.Role != "tool" {
			continue
		}
		content, ok := m.TextContent()
		if !ok || content == "" {
			continue
		}
		if strings.Contains(content, "error") {
			s.Errors++
		}
		if strings.Contains(content, FixMarker) {
			s.FixAttempts++
		}
	}

	if s.Errors == 0 && s.FixAttempts == 0 {
		return s
	}

	logger.InfoCF(component, "📊 会话结束统计", map[string]any{
		"errors":       s.Errors,
		"fix_attempts": s.FixAttempts,
	})

	var fb feedback
	fb.line("")
	fb.line("📊 **错误修复统计**")
	fb.line(fmt.Sprintf("- 检测到错误: %d 个", s.Errors))
	fb.line(fmt.Sprintf("- 尝试修复: %d 次", s.FixAttempts))

	s.Triggered = true
	s.Feedback = fb.String()
	return s
}

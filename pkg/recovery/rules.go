package recovery

import "fmt"

var (
	retryableExecErrors = []string{
		"command not found",
		"connection timed out",
		"network is unreachable",
		"temporary failure",
		"resource temporarily unavailable",
	}

	codeErrorPatterns = []string{
		"SyntaxError",
		"TypeError",
		"ReferenceError",
		"ImportError",
		"ModuleNotFoundError",
		"compilation error",
		"parse error",
	}
)

// rule is one classification branch. Rules are evaluated in order and the
// first match wins; the last rule always matches.
type rule struct {
	path  Path
	desc  string
	intro string
	match func(call ToolCall, msg string) bool
	apply func(call ToolCall, fb *feedback) string
}

// RuleInfo describes a classification branch for display.
type RuleInfo struct {
	Order       int    `json:"order"`
	Path        Path   `json:"path"`
	Description string `json:"description"`
}

func buildRules(opts Options) []rule {
	return []rule{
		{
			path:  PathExec,
			desc:  fmt.Sprintf("tool %q failed with a missing command or transient network/resource error", opts.ShellTool),
			intro: "🔄 正在尝试修复命令执行错误...",
			match: func(call ToolCall, msg string) bool {
				return call.ToolName == opts.ShellTool && containsAnyFold(msg, retryableExecErrors)
			},
			apply: execFix,
		},
		{
			path:  PathMissingFile,
			desc:  fmt.Sprintf("tool %q failed with \"No such file or directory\"", opts.ReadTool),
			intro: "📁 正在处理文件不存在的问题...",
			match: func(call ToolCall, msg string) bool {
				return call.ToolName == opts.ReadTool && containsAny(msg, "No such file or directory")
			},
			apply: missingFileFix,
		},
		{
			path:  PathPermission,
			desc:  fmt.Sprintf("tool %q failed with \"Permission denied\"", opts.WriteTool),
			intro: "🔑 正在处理权限问题...",
			match: func(call ToolCall, msg string) bool {
				return call.ToolName == opts.WriteTool && containsAny(msg, "Permission denied")
			},
			apply: permissionFix,
		},
		{
			path:  PathCode,
			desc:  "any tool failed with a syntax, type, reference, import, compilation or parse error",
			intro: "💻 检测到代码错误，正在分析修复方案...",
			match: func(_ ToolCall, msg string) bool {
				return containsAnyFold(msg, codeErrorPatterns)
			},
			apply: codeFix,
		},
		{
			path:  PathGeneric,
			desc:  "anything else: generic advice, no suggestion",
			intro: "💡 提供通用修复建议...",
			match: func(ToolCall, string) bool { return true },
			apply: func(ToolCall, *feedback) string { return "" },
		},
	}
}

// classify returns the first rule matching the call. The call must have failed.
func (h *Hook) classify(call ToolCall) rule {
	msg := call.ErrorMessage()
	for _, r := range h.rules {
		if r.match(call, msg) {
			return r
		}
	}
	return h.rules[len(h.rules)-1]
}

// Classify reports which branch a call is dispatched to, or PathNone when
// the call did not fail. It has no side effects.
func (h *Hook) Classify(call ToolCall) Path {
	if !call.Failed() {
		return PathNone
	}
	return h.classify(call).path
}

// Rules lists the classification branches in evaluation order.
func (h *Hook) Rules() []RuleInfo {
	out := make([]RuleInfo, 0, len(h.rules))
	for i, r := range h.rules {
		out = append(out, RuleInfo{Order: i + 1, Path: r.path, Description: r.desc})
	}
	return out
}

package recovery

import "strings"

const (
	// UnknownError is the message used when a failed call carries no text.
	UnknownError = "Unknown error"

	// UnknownCodeError is the code-fix fallback. It only looks at
	// ToolCall.Err, never at the result's error text.
	UnknownCodeError = "Unknown code error"

	// FixMarker opens every after-tool feedback block and is what AgentEnd
	// counts as a fix attempt when hosts echo feedback into tool messages.
	FixMarker = "自动错误修复"
)

// ToolError is the executor-level failure handed to the hook. A non-nil
// pointer marks the call as failed even when Message is empty.
type ToolError struct {
	Message string `json:"message"`
}

// Outcome is the structured result of a tool call.
type Outcome struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ToolCall is the read-only input for the before and after tool hooks.
type ToolCall struct {
	ToolName string
	Params   map[string]any
	Result   *Outcome
	Err      *ToolError
}

// Failed reports whether the call needs diagnosis.
func (c ToolCall) Failed() bool {
	return c.Err != nil || (c.Result != nil && c.Result.Status == "error")
}

// ErrorMessage resolves the failure text: Err.Message, then Result.Error,
// then UnknownError.
func (c ToolCall) ErrorMessage() string {
	if c.Err != nil && c.Err.Message != "" {
		return c.Err.Message
	}
	if c.Result != nil && c.Result.Error != "" {
		return c.Result.Error
	}
	return UnknownError
}

// StringParam returns a string parameter, or "" when absent or not a string.
func (c ToolCall) StringParam(key string) string {
	if c.Params == nil {
		return ""
	}
	s, _ := c.Params[key].(string)
	return s
}

// Command is the shell command parameter.
func (c ToolCall) Command() string {
	return c.StringParam("command")
}

// FilePath is the "path" parameter, falling back to "file_path" when empty.
func (c ToolCall) FilePath() string {
	if p := c.StringParam("path"); p != "" {
		return p
	}
	return c.StringParam("file_path")
}

// Path names the classification branch an error was dispatched to.
type Path string

const (
	PathNone        Path = ""
	PathExec        Path = "exec"
	PathMissingFile Path = "missing_file"
	PathPermission  Path = "permission"
	PathCode        Path = "code"
	PathGeneric     Path = "generic"
)

// Warning is the output of BeforeToolCall.
type Warning struct {
	Triggered bool
	Command   string
	Feedback  string
}

// Advice is the output of AfterToolCall. Suggestion is empty for PathGeneric
// and for calls that did not fail.
type Advice struct {
	Triggered    bool
	Path         Path
	ErrorMessage string
	Feedback     string
	Suggestion   string
}

// Summary is the output of AgentEnd.
type Summary struct {
	Triggered   bool
	Errors      int
	FixAttempts int
	Feedback    string
}

// feedback accumulates user-facing lines.
type feedback struct {
	b strings.Builder
}

func (f *feedback) line(s string) {
	f.b.WriteString(s)
	f.b.WriteByte('\n')
}

func (f *feedback) String() string {
	return f.b.String()
}

// containsFold uses simple case mapping: U+0130 (İ) lowers to "i", so
// "İmportError" matches "ImportError".
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func containsAnyFold(s string, patterns []string) bool {
	for _, p := range patterns {
		if containsFold(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

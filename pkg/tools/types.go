package tools

// ToolResult is the outcome of one tool execution as seen by hooks.
type ToolResult struct {
	// ForLLM is the content returned to the model.
	ForLLM string `json:"for_llm"`

	// ForUser is shown to the user directly. Hooks may append to it.
	ForUser string `json:"for_user,omitempty"`

	// Silent suppresses the user-facing message.
	Silent bool `json:"silent"`

	// IsError marks a failed execution.
	IsError bool `json:"is_error"`

	// Err carries the underlying failure. Not serialized.
	Err error `json:"-"`
}

func NewToolResult(forLLM string) *ToolResult {
	return &ToolResult{ForLLM: forLLM}
}

func ErrorResult(message string) *ToolResult {
	return &ToolResult{ForLLM: message, IsError: true}
}

// WithError attaches the underlying error and returns the result.
func (r *ToolResult) WithError(err error) *ToolResult {
	r.Err = err
	return r
}

// ErrorText returns the failure text carried by the result: Err when set,
// otherwise ForLLM for error results.
func (r *ToolResult) ErrorText() string {
	if r == nil {
		return ""
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	if r.IsError {
		return r.ForLLM
	}
	return ""
}

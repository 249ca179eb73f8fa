package providers

// Message is one entry of the conversation history a host hands to
// session-end hooks. Content is a plain string for text turns and tool
// output, or a []interface{} of parts for multimodal turns.
type Message struct {
	Role       string      `json:"role"`
	Content    interface{} `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name,omitempty"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// TextContent returns Content when it is a string.
func (m Message) TextContent() (string, bool) {
	s, ok := m.Content.(string)
	return s, ok
}

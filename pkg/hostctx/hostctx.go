// Package hostctx decodes and encodes the JSON context object a host runtime
// passes to an out-of-process hook, and maps it onto lifecycle hook events.
//
// Keys the hook does not understand (session, runMetadata, ...) are carried
// through to the output untouched.
package hostctx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sipeed/picoclaw-recovery/pkg/hooks"
	"github.com/sipeed/picoclaw-recovery/pkg/providers"
	"github.com/sipeed/picoclaw-recovery/pkg/tools"
)

// MaxBytes caps how much input Decode reads. Hook payloads are small JSON objects.
const MaxBytes = 1 << 20

const (
	keyToolName          = "toolName"
	keyToolParams        = "toolParams"
	keyResult            = "result"
	keyError             = "error"
	keyMessages          = "messages"
	keyUserFeedback      = "userFeedback"
	keyAutoFixSuggestion = "autoFixSuggestion"
)

// ErrTooLarge is returned when the input exceeds MaxBytes.
var ErrTooLarge = errors.New("hook context exceeds size limit")

// Result mirrors the host's structured tool outcome.
type Result struct {
	Status string
	Error  string
}

// Context is the decoded host record.
type Context struct {
	ToolName   string
	ToolParams map[string]any
	Result     *Result
	// Failure is non-nil whenever the host's "error" field is truthy.
	// Message is empty when the field has no string "message".
	Failure  *Failure
	Messages []providers.Message

	UserFeedback      string
	AutoFixSuggestion string

	raw map[string]json.RawMessage
}

// Failure mirrors the host's error object.
type Failure struct {
	Message string
}

// Decode reads one JSON object from r.
func Decode(r io.Reader) (*Context, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read hook context: %w", err)
	}
	if len(data) > MaxBytes {
		return nil, ErrTooLarge
	}
	return Parse(data)
}

// Parse decodes a JSON object.
func Parse(data []byte) (*Context, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode hook context: %w", err)
	}
	if raw == nil {
		return nil, errors.New("decode hook context: expected a JSON object")
	}

	c := &Context{raw: raw}
	c.ToolName = rawString(raw[keyToolName])
	c.ToolParams = rawObject(raw[keyToolParams])
	c.Result = parseResult(raw[keyResult])
	c.Failure = parseFailure(raw[keyError])
	c.Messages = parseMessages(raw[keyMessages])
	c.UserFeedback = rawString(raw[keyUserFeedback])
	c.AutoFixSuggestion = rawString(raw[keyAutoFixSuggestion])
	return c, nil
}

// Encode writes the context back as a single JSON object. Produced fields are
// only written when non-empty; tool params are re-encoded because hooks may
// rewrite them.
func (c *Context) Encode(w io.Writer) error {
	out := make(map[string]json.RawMessage, len(c.raw)+2)
	for k, v := range c.raw {
		out[k] = v
	}

	if c.ToolParams != nil {
		b, err := marshal(c.ToolParams)
		if err != nil {
			return fmt.Errorf("encode toolParams: %w", err)
		}
		out[keyToolParams] = b
	}
	if c.UserFeedback != "" {
		b, _ := marshal(c.UserFeedback)
		out[keyUserFeedback] = b
	}
	if c.AutoFixSuggestion != "" {
		b, _ := marshal(c.AutoFixSuggestion)
		out[keyAutoFixSuggestion] = b
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

// BeforeToolCallEvent builds the before_tool_call event.
func (c *Context) BeforeToolCallEvent() *hooks.BeforeToolCallEvent {
	return &hooks.BeforeToolCallEvent{
		ToolName:     c.ToolName,
		Args:         c.ToolParams,
		UserFeedback: c.UserFeedback,
	}
}

// ApplyBeforeToolCall copies the handler output back.
func (c *Context) ApplyBeforeToolCall(e *hooks.BeforeToolCallEvent) {
	c.ToolParams = e.Args
	c.UserFeedback = e.UserFeedback
}

// AfterToolCallEvent builds the after_tool_call event. A result with status
// "error" becomes an error ToolResult; its error text travels as Result.Err.
func (c *Context) AfterToolCallEvent() *hooks.AfterToolCallEvent {
	e := &hooks.AfterToolCallEvent{
		ToolName:          c.ToolName,
		Args:              c.ToolParams,
		UserFeedback:      c.UserFeedback,
		AutoFixSuggestion: c.AutoFixSuggestion,
	}
	if c.Result != nil {
		res := &tools.ToolResult{IsError: c.Result.Status == "error"}
		if c.Result.Error != "" {
			res.Err = errors.New(c.Result.Error)
		}
		e.Result = res
	}
	if c.Failure != nil {
		e.Err = errors.New(c.Failure.Message)
	}
	return e
}

// ApplyAfterToolCall copies the handler output back.
func (c *Context) ApplyAfterToolCall(e *hooks.AfterToolCallEvent) {
	c.UserFeedback = e.UserFeedback
	c.AutoFixSuggestion = e.AutoFixSuggestion
}

// AgentEndEvent builds the agent_end event.
func (c *Context) AgentEndEvent() *hooks.AgentEndEvent {
	return &hooks.AgentEndEvent{
		Messages:     c.Messages,
		UserFeedback: c.UserFeedback,
	}
}

// ApplyAgentEnd copies the handler output back.
func (c *Context) ApplyAgentEnd(e *hooks.AgentEndEvent) {
	c.UserFeedback = e.UserFeedback
}

// Raw returns the undecoded value of a top-level key.
func (c *Context) Raw(key string) (json.RawMessage, bool) {
	v, ok := c.raw[key]
	return v, ok
}

// SessionKey returns session.id when the host sent one as a string.
func (c *Context) SessionKey() string {
	raw, ok := c.Raw("session")
	if !ok {
		return ""
	}
	var session struct {
		ID any `json:"id"`
	}
	if json.Unmarshal(raw, &session) != nil {
		return ""
	}
	id, _ := session.ID.(string)
	return id
}

func marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func rawString(data json.RawMessage) string {
	var s string
	if len(data) == 0 || json.Unmarshal(data, &s) != nil {
		return ""
	}
	return s
}

// rawObject decodes a JSON object keeping numbers as json.Number so
// re-encoding does not lose precision.
func rawObject(data json.RawMessage) map[string]any {
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if dec.Decode(&m) != nil {
		return nil
	}
	return m
}

func parseResult(data json.RawMessage) *Result {
	obj := rawFields(data)
	if obj == nil {
		return nil
	}
	return &Result{
		Status: rawString(obj["status"]),
		Error:  rawString(obj["error"]),
	}
}

// parseFailure follows JavaScript truthiness: null, false, 0 and "" mean no
// failure; any object, array, non-empty string or non-zero number is one.
func parseFailure(data json.RawMessage) *Failure {
	if !truthy(data) {
		return nil
	}
	f := &Failure{}
	if obj := rawFields(data); obj != nil {
		f.Message = rawString(obj["message"])
	}
	return f
}

func truthy(data json.RawMessage) bool {
	if len(data) == 0 {
		return false
	}
	var v any
	if json.Unmarshal(data, &v) != nil {
		return false
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}

func rawFields(data json.RawMessage) map[string]json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(data, &obj) != nil {
		return nil
	}
	return obj
}

// parseMessages decodes the history, skipping entries that are not objects.
func parseMessages(data json.RawMessage) []providers.Message {
	if len(data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(data, &items) != nil {
		return nil
	}
	msgs := make([]providers.Message, 0, len(items))
	for _, item := range items {
		obj := rawFields(item)
		if obj == nil {
			continue
		}
		var content any
		if c, ok := obj["content"]; ok {
			_ = json.Unmarshal(c, &content)
		}
		msgs = append(msgs, providers.Message{
			Role:    rawString(obj["role"]),
			Content: content,
		})
	}
	return msgs
}

// PicoClaw - Ultra-lightweight personal AI agent
// Inspired by and based on nanobot: https://github.com/HKUDS/nanobot
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package hooks

import (
	"time"

	"github.com/sipeed/picoclaw-recovery/pkg/providers"
	"github.com/sipeed/picoclaw-recovery/pkg/tools"
)

// BeforeToolCallEvent is fired before a tool is executed.
// Handlers can modify Args, attach UserFeedback, or set Cancel to block execution.
type BeforeToolCallEvent struct {
	ToolName     string
	Args         map[string]any // Modifiable
	Channel      string
	ChatID       string
	UserFeedback string // Modifiable
	Cancel       bool
	CancelReason string // Message returned to LLM when canceled
}

// AfterToolCallEvent is fired after a tool completes execution.
// Err is the executor-level failure; Result may carry its own error status.
type AfterToolCallEvent struct {
	ToolName          string
	Args              map[string]any
	Channel           string
	ChatID            string
	Duration          time.Duration
	Result            *tools.ToolResult
	Err               error
	UserFeedback      string // Modifiable
	AutoFixSuggestion string // Modifiable
}

// AgentEndEvent is fired when an agent run finishes, with the full history.
type AgentEndEvent struct {
	AgentID      string
	SessionKey   string
	Channel      string
	ChatID       string
	Messages     []providers.Message
	UserFeedback string // Modifiable
}

// SessionEvent is fired at session start.
type SessionEvent struct {
	AgentID    string
	SessionKey string
	Channel    string
	ChatID     string
}

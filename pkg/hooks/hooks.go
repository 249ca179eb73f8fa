// PicoClaw - Ultra-lightweight personal AI agent
// Inspired by and based on nanobot: https://github.com/HKUDS/nanobot
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/sipeed/picoclaw-recovery/pkg/logger"
)

// HookHandler is the callback signature for all hooks.
type HookHandler[T any] func(ctx context.Context, event *T) error

// HookRegistration tracks a handler with its priority and name.
type HookRegistration[T any] struct {
	Handler  HookHandler[T]
	Priority int // Lower = runs first
	Name     string
}

// HookRegistry manages all lifecycle hooks.
type HookRegistry struct {
	beforeToolCall []HookRegistration[BeforeToolCallEvent]
	afterToolCall  []HookRegistration[AfterToolCallEvent]
	agentEnd       []HookRegistration[AgentEndEvent]
	sessionStart   []HookRegistration[SessionEvent]
	mu             sync.RWMutex
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{}
}

// insertSorted inserts a registration into a new slice sorted by priority.
// Always allocates a new backing array so concurrent readers of the old slice are safe.
func insertSorted[T any](slice []HookRegistration[T], reg HookRegistration[T]) []HookRegistration[T] {
	i := 0
	for i < len(slice) && slice[i].Priority <= reg.Priority {
		i++
	}
	result := make([]HookRegistration[T], len(slice)+1)
	copy(result, slice[:i])
	result[i] = reg
	copy(result[i+1:], slice[i:])
	return result
}

// Registration methods

func (r *HookRegistry) OnBeforeToolCall(name string, priority int, handler HookHandler[BeforeToolCallEvent]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeToolCall = insertSorted(r.beforeToolCall, HookRegistration[BeforeToolCallEvent]{
		Handler: handler, Priority: priority, Name: name,
	})
}

func (r *HookRegistry) OnAfterToolCall(name string, priority int, handler HookHandler[AfterToolCallEvent]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterToolCall = insertSorted(r.afterToolCall, HookRegistration[AfterToolCallEvent]{
		Handler: handler, Priority: priority, Name: name,
	})
}

func (r *HookRegistry) OnAgentEnd(name string, priority int, handler HookHandler[AgentEndEvent]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agentEnd = insertSorted(r.agentEnd, HookRegistration[AgentEndEvent]{
		Handler: handler, Priority: priority, Name: name,
	})
}

func (r *HookRegistry) OnSessionStart(name string, priority int, handler HookHandler[SessionEvent]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionStart = insertSorted(r.sessionStart, HookRegistration[SessionEvent]{
		Handler: handler, Priority: priority, Name: name,
	})
}

// Counts returns the number of handlers registered per hook point.
func (r *HookRegistry) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]int{
		"before_tool_call": len(r.beforeToolCall),
		"after_tool_call":  len(r.afterToolCall),
		"agent_end":        len(r.agentEnd),
		"session_start":    len(r.sessionStart),
	}
}

// runHandler invokes one handler, logging its error or panic.
func runHandler[T any](ctx context.Context, reg HookRegistration[T], event *T, hookName string) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("hooks", "Hook panic",
				map[string]any{
					"hook":    hookName,
					"handler": reg.Name,
					"panic":   fmt.Sprintf("%v", r),
				})
		}
	}()
	if err := reg.Handler(ctx, event); err != nil {
		logger.WarnCF("hooks", "Hook error",
			map[string]any{
				"hook":    hookName,
				"handler": reg.Name,
				"error":   err.Error(),
			})
	}
}

// triggerVoid runs all handlers concurrently and waits for completion.
// Handlers MUST NOT mutate the event; it is shared across goroutines.
func triggerVoid[T any](ctx context.Context, hooks []HookRegistration[T], event *T, hookName string) {
	if len(hooks) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, h := range hooks {
		wg.Add(1)
		go func(reg HookRegistration[T]) {
			defer wg.Done()
			runHandler(ctx, reg, event, hookName)
		}(h)
	}
	wg.Wait()
}

// triggerModifying runs handlers sequentially by priority so each sees the
// previous handlers' changes. A non-nil cancelCheck stops the chain once it
// reports true.
func triggerModifying[T any](ctx context.Context, hooks []HookRegistration[T], event *T, hookName string, cancelCheck func(*T) bool) {
	for _, h := range hooks {
		runHandler(ctx, h, event, hookName)
		if cancelCheck != nil && cancelCheck(event) {
			logger.InfoCF("hooks", "Hook canceled operation",
				map[string]any{
					"hook":    hookName,
					"handler": h.Name,
				})
			return
		}
	}
}

func (r *HookRegistry) TriggerBeforeToolCall(ctx context.Context, event *BeforeToolCallEvent) {
	r.mu.RLock()
	hooks := r.beforeToolCall
	r.mu.RUnlock()
	triggerModifying(ctx, hooks, event, "before_tool_call", func(e *BeforeToolCallEvent) bool {
		return e.Cancel
	})
}

// TriggerAfterToolCall runs after_tool_call handlers in priority order.
// Handlers may set UserFeedback and AutoFixSuggestion.
func (r *HookRegistry) TriggerAfterToolCall(ctx context.Context, event *AfterToolCallEvent) {
	r.mu.RLock()
	hooks := r.afterToolCall
	r.mu.RUnlock()
	triggerModifying(ctx, hooks, event, "after_tool_call", nil)
}

// TriggerAgentEnd runs agent_end handlers in priority order.
func (r *HookRegistry) TriggerAgentEnd(ctx context.Context, event *AgentEndEvent) {
	r.mu.RLock()
	hooks := r.agentEnd
	r.mu.RUnlock()
	triggerModifying(ctx, hooks, event, "agent_end", nil)
}

// TriggerSessionStart fires all session_start handlers concurrently.
// Handlers must not mutate the event.
func (r *HookRegistry) TriggerSessionStart(ctx context.Context, event *SessionEvent) {
	r.mu.RLock()
	hooks := r.sessionStart
	r.mu.RUnlock()
	triggerVoid(ctx, hooks, event, "session_start")
}

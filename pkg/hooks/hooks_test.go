// PicoClaw - Ultra-lightweight personal AI agent
// Inspired by and based on nanobot: https://github.com/HKUDS/nanobot
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package hooks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sipeed/picoclaw-recovery/pkg/providers"
	"github.com/sipeed/picoclaw-recovery/pkg/tools"
)

func TestNewHookRegistry(t *testing.T) {
	r := NewHookRegistry()
	ctx := context.Background()

	// Triggering all hooks on an empty registry should not panic.
	r.TriggerBeforeToolCall(ctx, &BeforeToolCallEvent{ToolName: "t"})
	r.TriggerAfterToolCall(ctx, &AfterToolCallEvent{ToolName: "t"})
	r.TriggerAgentEnd(ctx, &AgentEndEvent{AgentID: "a"})
	r.TriggerSessionStart(ctx, &SessionEvent{AgentID: "a"})

	for name, n := range r.Counts() {
		if n != 0 {
			t.Errorf("Expected no handlers for %s, got %d", name, n)
		}
	}
}

func TestSessionStartConcurrent(t *testing.T) {
	r := NewHookRegistry()
	ctx := context.Background()

	var count atomic.Int32
	started := make(chan struct{}, 5)
	release := make(chan struct{})
	done := make(chan struct{})

	for i := range 5 {
		r.OnSessionStart("hook-"+string(rune('A'+i)), i, func(_ context.Context, _ *SessionEvent) error {
			started <- struct{}{}
			<-release
			count.Add(1)
			return nil
		})
	}

	go func() {
		r.TriggerSessionStart(ctx, &SessionEvent{SessionKey: "s1"})
		close(done)
	}()

	// All 5 handlers must reach the barrier concurrently.
	for i := range 5 {
		select {
		case <-started:
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout waiting for handler %d to start", i+1)
		}
	}

	close(release)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for handlers to complete")
	}

	if count.Load() != 5 {
		t.Errorf("Expected 5 handlers called, got %d", count.Load())
	}
}

func TestInsertSorted(t *testing.T) {
	r := NewHookRegistry()
	ctx := context.Background()

	var order []int

	// Register with priorities: 50, 10, 30, 20, 40
	priorities := []int{50, 10, 30, 20, 40}
	for _, p := range priorities {
		r.OnBeforeToolCall(fmt.Sprintf("p-%d", p), p, func(_ context.Context, _ *BeforeToolCallEvent) error {
			order = append(order, p)
			return nil
		})
	}

	r.TriggerBeforeToolCall(ctx, &BeforeToolCallEvent{ToolName: "test", Args: map[string]any{}})

	expected := []int{10, 20, 30, 40, 50}
	if len(order) != len(expected) {
		t.Fatalf("Expected %d handlers, got %d", len(expected), len(order))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("Position %d: expected priority %d, got %d", i, v, order[i])
		}
	}
}

func TestEqualPriorityKeepsRegistrationOrder(t *testing.T) {
	r := NewHookRegistry()

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		r.OnAgentEnd(name, 0, func(_ context.Context, _ *AgentEndEvent) error {
			order = append(order, name)
			return nil
		})
	}
	r.TriggerAgentEnd(context.Background(), &AgentEndEvent{})

	if fmt.Sprint(order) != "[a b c]" {
		t.Errorf("Expected [a b c], got %v", order)
	}
}

func TestBeforeToolCallCancel(t *testing.T) {
	r := NewHookRegistry()
	ctx := context.Background()

	var secondCalled bool

	r.OnBeforeToolCall("canceler", 10, func(_ context.Context, e *BeforeToolCallEvent) error {
		e.Cancel = true
		e.CancelReason = "blocked"
		return nil
	})
	r.OnBeforeToolCall("after-cancel", 20, func(_ context.Context, _ *BeforeToolCallEvent) error {
		secondCalled = true
		return nil
	})

	event := &BeforeToolCallEvent{ToolName: "exec"}
	r.TriggerBeforeToolCall(ctx, event)

	if !event.Cancel {
		t.Error("Expected Cancel to be true")
	}
	if secondCalled {
		t.Error("Expected second handler NOT to be called after cancel")
	}
}

func TestBeforeToolCallModification(t *testing.T) {
	r := NewHookRegistry()
	ctx := context.Background()

	r.OnBeforeToolCall("modifier", 10, func(_ context.Context, e *BeforeToolCallEvent) error {
		e.Args["injected"] = "value"
		e.UserFeedback = "careful"
		return nil
	})

	event := &BeforeToolCallEvent{
		ToolName: "search",
		Args:     map[string]any{"query": "test"},
	}
	r.TriggerBeforeToolCall(ctx, event)

	if event.Args["injected"] != "value" {
		t.Error("Expected injected arg to persist")
	}
	if event.Args["query"] != "test" {
		t.Error("Expected original arg to remain")
	}
	if event.UserFeedback != "careful" {
		t.Errorf("Expected feedback 'careful', got %q", event.UserFeedback)
	}
}

func TestAfterToolCallSequentialFeedback(t *testing.T) {
	r := NewHookRegistry()
	ctx := context.Background()

	r.OnAfterToolCall("diagnose", 10, func(_ context.Context, e *AfterToolCallEvent) error {
		if e.Err == nil {
			return nil
		}
		e.UserFeedback = "diagnosed: " + e.Err.Error()
		e.AutoFixSuggestion = "try again"
		return nil
	})
	r.OnAfterToolCall("decorate", 20, func(_ context.Context, e *AfterToolCallEvent) error {
		e.UserFeedback += " [" + e.ToolName + "]"
		return nil
	})

	event := &AfterToolCallEvent{
		ToolName: "exec",
		Args:     map[string]any{"command": "ls"},
		Result:   tools.ErrorResult("exit 1"),
		Err:      errors.New("exit 1"),
	}
	r.TriggerAfterToolCall(ctx, event)

	if event.UserFeedback != "diagnosed: exit 1 [exec]" {
		t.Errorf("Unexpected feedback %q", event.UserFeedback)
	}
	if event.AutoFixSuggestion != "try again" {
		t.Errorf("Unexpected suggestion %q", event.AutoFixSuggestion)
	}
}

func TestAgentEndSeesMessages(t *testing.T) {
	r := NewHookRegistry()

	var seen int
	r.OnAgentEnd("count", 0, func(_ context.Context, e *AgentEndEvent) error {
		seen = len(e.Messages)
		e.UserFeedback = "summary"
		return nil
	})

	event := &AgentEndEvent{
		SessionKey: "sess-1",
		Messages: []providers.Message{
			{Role: "user", Content: "hi"},
			{Role: "tool", Content: "error"},
		},
	}
	r.TriggerAgentEnd(context.Background(), event)

	if seen != 2 {
		t.Errorf("Expected 2 messages, got %d", seen)
	}
	if event.UserFeedback != "summary" {
		t.Errorf("Expected feedback 'summary', got %q", event.UserFeedback)
	}
}

func TestConcurrentRegistrationAndTrigger(t *testing.T) {
	r := NewHookRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.OnSessionStart("reg-hook", i, func(_ context.Context, _ *SessionEvent) error {
				return nil
			})
		}()
	}

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.TriggerSessionStart(ctx, &SessionEvent{SessionKey: "race"})
		}()
	}

	wg.Wait()

	if got := r.Counts()["session_start"]; got != 10 {
		t.Errorf("Expected 10 session_start handlers, got %d", got)
	}
}

func TestHandlerErrorsSwallowed(t *testing.T) {
	r := NewHookRegistry()
	ctx := context.Background()

	var secondCalled atomic.Bool
	r.OnSessionStart("erroring", 10, func(_ context.Context, _ *SessionEvent) error {
		return fmt.Errorf("handler error")
	})
	r.OnSessionStart("observer", 20, func(_ context.Context, _ *SessionEvent) error {
		secondCalled.Store(true)
		return nil
	})

	r.TriggerSessionStart(ctx, &SessionEvent{})
	if !secondCalled.Load() {
		t.Error("Expected second void handler to run despite first handler's error")
	}

	// Modifying hooks: an error doesn't stop the chain (only Cancel does).
	var modifySecondCalled bool
	r.OnAfterToolCall("erroring", 10, func(_ context.Context, _ *AfterToolCallEvent) error {
		return fmt.Errorf("handler error")
	})
	r.OnAfterToolCall("modifier", 20, func(_ context.Context, _ *AfterToolCallEvent) error {
		modifySecondCalled = true
		return nil
	})

	r.TriggerAfterToolCall(ctx, &AfterToolCallEvent{ToolName: "exec"})
	if !modifySecondCalled {
		t.Error("Expected second modifying handler to run despite first handler's error")
	}
}

func TestPanicRecovery(t *testing.T) {
	r := NewHookRegistry()
	ctx := context.Background()

	var safeHandlerCalled atomic.Bool
	r.OnSessionStart("panicker", 10, func(_ context.Context, _ *SessionEvent) error {
		panic("boom")
	})
	r.OnSessionStart("safe", 10, func(_ context.Context, _ *SessionEvent) error {
		safeHandlerCalled.Store(true)
		return nil
	})

	r.TriggerSessionStart(ctx, &SessionEvent{AgentID: "test"})
	if !safeHandlerCalled.Load() {
		t.Error("Expected safe handler to run despite panicking sibling")
	}

	var afterPanic bool
	r.OnAgentEnd("panicker", 10, func(_ context.Context, _ *AgentEndEvent) error {
		panic("boom")
	})
	r.OnAgentEnd("after", 20, func(_ context.Context, _ *AgentEndEvent) error {
		afterPanic = true
		return nil
	})

	r.TriggerAgentEnd(ctx, &AgentEndEvent{})
	if !afterPanic {
		t.Error("Expected later agent_end handler to run after a panic")
	}
}

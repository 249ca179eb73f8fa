package tools

import "context"

// ToolHook allows intercepting tool execution for policy enforcement,
// error diagnosis, logging, or other cross-cutting concerns.
//
// Hosts with a tool registry call hooks around each execution:
//   - BeforeExecute: called before the tool runs. Return non-nil error to block execution.
//   - AfterExecute: called after the tool completes (even on error). Cannot block,
//     but may append to result.ForUser.
//
// Multiple hooks are executed in registration order. If any BeforeExecute returns
// an error, subsequent hooks and the tool itself are skipped.
type ToolHook interface {
	BeforeExecute(ctx context.Context, toolName string, args map[string]interface{}) error
	AfterExecute(ctx context.Context, toolName string, args map[string]interface{}, result *ToolResult)
}

// HookChain runs a list of ToolHooks in order.
type HookChain []ToolHook

// BeforeExecute stops at the first hook that blocks.
func (c HookChain) BeforeExecute(ctx context.Context, toolName string, args map[string]interface{}) error {
	for _, h := range c {
		if err := h.BeforeExecute(ctx, toolName, args); err != nil {
			return err
		}
	}
	return nil
}

func (c HookChain) AfterExecute(ctx context.Context, toolName string, args map[string]interface{}, result *ToolResult) {
	for _, h := range c {
		h.AfterExecute(ctx, toolName, args, result)
	}
}

package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sipeed/picoclaw-recovery/pkg/logger"
)

// Tool is anything the registry can execute by name.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]any) *ToolResult
}

// ToolRegistry executes tools by name and runs its hooks around each call.
type ToolRegistry struct {
	tools map[string]Tool
	hooks HookChain
	mu    sync.RWMutex
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// AddHook appends a hook. Hooks run in the order they were added.
func (r *ToolRegistry) AddHook(h ToolHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns registered tool names in sorted order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a tool. A hook that blocks in BeforeExecute turns the call
// into an error result without running the tool; AfterExecute hooks see
// every result the tool produced, including failures.
func (r *ToolRegistry) Execute(ctx context.Context, name string, args map[string]any) *ToolResult {
	logger.InfoCF("tool", "Tool execution started",
		map[string]any{
			"tool": name,
			"args": args,
		})

	tool, ok := r.Get(name)
	if !ok {
		logger.ErrorCF("tool", "Tool not found",
			map[string]any{
				"tool": name,
			})
		return ErrorResult(fmt.Sprintf("tool %q not found", name)).WithError(fmt.Errorf("tool not found"))
	}

	r.mu.RLock()
	hooks := r.hooks
	r.mu.RUnlock()

	if err := hooks.BeforeExecute(ctx, name, args); err != nil {
		logger.WarnCF("tool", "Tool execution blocked by hook",
			map[string]any{
				"tool":  name,
				"error": err.Error(),
			})
		return ErrorResult(fmt.Sprintf("tool %q blocked: %v", name, err)).WithError(err)
	}

	start := time.Now()
	result := tool.Execute(ctx, args)
	duration := time.Since(start)
	if result == nil {
		result = ErrorResult(fmt.Sprintf("tool %q returned no result", name))
	}

	if result.IsError {
		logger.ErrorCF("tool", "Tool execution failed",
			map[string]any{
				"tool":     name,
				"duration": duration.Milliseconds(),
				"error":    result.ErrorText(),
			})
	} else {
		logger.InfoCF("tool", "Tool execution completed",
			map[string]any{
				"tool":          name,
				"duration_ms":   duration.Milliseconds(),
				"result_length": len(result.ForLLM),
			})
	}

	hooks.AfterExecute(ctx, name, args, result)
	return result
}

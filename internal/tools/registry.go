// Package tools defines the agent-callable tools and dispatches calls to
// them. Handlers never fail: every fault is folded into a Result.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnknownTool is returned by Call for a name that was never registered.
var ErrUnknownTool = errors.New("unknown tool")

// Result is what a tool hands back to the caller.
type Result struct {
	// Text is the human-readable outcome.
	Text string
	// Structured is an optional JSON object mirroring Text.
	Structured any
	// IsError marks a failed call.
	IsError bool
}

// Handler runs a tool with decoded JSON arguments.
type Handler func(ctx context.Context, args map[string]any) Result

// Tool is a named, described, schema-annotated handler.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler
}

// Registry holds the tool set exposed to callers.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger.With().Str("component", "tools").Logger(),
	}
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// List returns the registered tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Call runs the named tool. The only error is ErrUnknownTool; handler
// failures, including panics, come back as an error Result.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (Result, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}

	callID := uuid.NewString()
	logger := r.logger.With().Str("call_id", callID).Str("tool", name).Logger()
	logger.Debug().Interface("args", args).Msg("tool_call_start")

	start := time.Now()
	result := r.invoke(ctx, t, args, logger)

	event := logger.Info()
	if result.IsError {
		event = logger.Warn().Str("error", result.Text)
	}
	event.Dur("duration", time.Since(start)).Bool("is_error", result.IsError).Msg("tool_call")

	return result, nil
}

func (r *Registry) invoke(ctx context.Context, t Tool, args map[string]any, logger zerolog.Logger) (result Result) {
	defer func() {
		if v := recover(); v != nil {
			logger.Error().Interface("panic", v).Msg("tool_panic")
			result = Result{Text: fmt.Sprintf("Error running %s: internal error", t.Name), IsError: true}
		}
	}()
	return t.Handler(ctx, args)
}

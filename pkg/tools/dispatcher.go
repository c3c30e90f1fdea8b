package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/kagent-dev/zendesk-mcp/internal/metrics"
	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

// Dispatcher resolves tool names against a Registry and runs the bound
// handler. No error ever escapes Invoke: every call ends in a result.
type Dispatcher struct {
	registry *Registry
	metrics  *metrics.Metrics
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithMetrics records invocations on m
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{registry: registry}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the underlying registry
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Tools lists the tool definitions in declaration order
func (d *Dispatcher) Tools() []mcp.Tool {
	return d.registry.Tools()
}

// Invoke runs the named tool and wraps the outcome for the protocol layer.
// Success is a pretty-printed JSON document; any failure, including an
// unknown tool, is an error result carrying a displayable message.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	result, err := d.Call(ctx, name, args)
	if err != nil {
		return mcp.NewToolResultError(ErrorText(err))
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result of %s: %v", name, err))
	}
	return mcp.NewToolResultText(string(text))
}

// Call runs the named tool and returns its raw result. Errors are
// AppErrors: ErrCodeUnknownTool, ErrCodeMissingArgs, or whatever the
// handler returned.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (result any, err error) {
	log := ctrllog.FromContext(ctx).WithName("dispatcher").WithValues("tool", name)

	desc, ok := d.registry.Lookup(name)
	if !ok {
		d.metrics.ObserveTool(metrics.UnknownToolLabel, metrics.OutcomeUnknown, 0)
		log.Info("Unknown tool requested")
		return nil, apperrors.Newf(apperrors.ErrCodeUnknownTool, "Unknown tool: %s", name)
	}
	if args == nil {
		d.metrics.ObserveTool(name, metrics.OutcomeError, 0)
		return nil, apperrors.Newf(apperrors.ErrCodeMissingArgs, "Missing arguments for tool %s", name)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error(fmt.Errorf("%v", r), "Tool handler panicked", "stack", string(debug.Stack()))
			result = nil
			err = apperrors.Newf(apperrors.ErrCodeToolExecution, "Tool %s failed unexpectedly: %v", name, r)
		}

		elapsed := time.Since(start)
		if err != nil {
			d.metrics.ObserveTool(name, metrics.OutcomeError, elapsed)
			log.Info("Tool execution failed", "error", err.Error(), "duration", elapsed)
			return
		}
		d.metrics.ObserveTool(name, metrics.OutcomeSuccess, elapsed)
		log.V(1).Info("Tool execution completed", "duration", elapsed)
	}()

	log.V(1).Info("Executing tool")
	return desc.Handler(ctx, args)
}

// ErrorText renders err for display to a caller
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.Message(err)
}

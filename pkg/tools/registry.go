package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handler executes one tool. Every tool shares this contract: an argument
// mapping in, a structured result or an error out.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Descriptor binds a tool definition to its handler
type Descriptor struct {
	Tool    mcp.Tool
	Handler Handler
}

// Name returns the tool name
func (d Descriptor) Name() string {
	return d.Tool.Name
}

// Registry is the fixed, ordered table of tools. Lookups are by exact name.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]Descriptor
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register adds a tool. Names must be unique and handlers non-nil.
func (r *Registry) Register(tool mcp.Tool, handler Handler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}
	r.byName[tool.Name] = Descriptor{Tool: tool, Handler: handler}
	r.order = append(r.order, tool.Name)
	return nil
}

// MustRegister is Register for static tables; it panics on error
func (r *Registry) MustRegister(tool mcp.Tool, handler Handler) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered under name
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byName[name]
	return d, ok
}

// List returns every descriptor in registration order
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Tools returns the tool definitions in registration order
func (r *Registry) Tools() []mcp.Tool {
	descriptors := r.List()
	out := make([]mcp.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Tool)
	}
	return out
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

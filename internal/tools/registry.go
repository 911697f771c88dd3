package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/DEVCOACH/internal/domain"
)

// Registry is the flat namespace of dispatchable tools (§4.I).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Definition
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{tools: make(map[string]Definition)}
}

// Register adds a tool definition. Registering the reserved name or a
// duplicate name is an error.
func (r *Registry) Register(def Definition) error {
	if def.Name == listToolsName {
		return fmt.Errorf("%s is a reserved tool name", listToolsName)
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s has no handler", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %s is already registered", def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// ListTools implements the _list_tools reserved tool.
func (r *Registry) ListTools() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.tools))
	for _, def := range r.tools {
		out = append(out, Summary{Name: def.Name, Schema: def.Schema, SideEffect: def.SideEffect})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch implements §4.I's dispatch contract: validate inputs against
// schema, call the handler, and shape the outcome as a Result. Handlers
// are re-entrant by construction (each call only touches the registry's
// read lock plus whatever locking the handler's own collaborator does),
// so concurrent Dispatch calls are safe.
func (r *Registry) Dispatch(name string, params map[string]interface{}) Result {
	if name == listToolsName {
		return Result{Value: r.ListTools()}
	}

	r.mu.RLock()
	def, exists := r.tools[name]
	r.mu.RUnlock()
	if !exists {
		return Result{Error: domain.NewError(domain.ErrUnknownTool, fmt.Sprintf("unknown tool: %s", name))}
	}

	coerced, err := validateAndCoerce(def.Schema, params)
	if err != nil {
		return Result{Error: err}
	}

	value, handlerErr := def.Handler(coerced)
	if handlerErr != nil {
		return Result{Error: domain.AsCoordError(handlerErr)}
	}
	return Result{Value: value}
}

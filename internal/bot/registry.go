package bot

import (
	"log/slog"
	"sync"
)

// Registry holds registered modules, keyed by their unique names.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
	names   map[string]bool
}

// NewRegistry creates a new module registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make([]Module, 0),
		names:   make(map[string]bool),
	}
}

// Register adds a module to the registry. A module whose name is already
// registered is ignored; modules self-register from init() and a doubled
// blank import must not produce duplicate commands.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[m.Name()] {
		slog.Warn("ignoring duplicate module registration", "module", m.Name())
		return
	}
	r.names[m.Name()] = true
	r.modules = append(r.modules, m)
}

// Modules returns a snapshot of all registered modules in registration order.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Return a copy to prevent external modification
	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

// Global registry instance for module self-registration via init()
var globalRegistry = NewRegistry()

// Register adds a module to the global registry.
// This is typically called from module init() functions.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry resets the global registry.
// This is intended for testing purposes only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}

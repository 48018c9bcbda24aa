package actions

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"tools4ai/internal/logging"
)

// Registry maps action names to descriptors and keeps the comma-terminated
// name list that is pasted verbatim into selection prompts.
type Registry struct {
	mu       sync.RWMutex
	actions  map[string]*Descriptor
	rendered strings.Builder

	// byGroup provides lookup by group name.
	byGroup map[string][]*Descriptor
}

// NewRegistry creates a new empty action registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]*Descriptor),
		byGroup: make(map[string][]*Descriptor),
	}
}

// Register adds an action to the registry. A colliding name silently
// replaces the earlier descriptor (last write wins); the name appears in
// the rendered list once.
func (r *Registry) Register(d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}

	stored := *d
	if stored.Kind == "" {
		stored.Kind = KindMethod
	}
	if stored.Description == "" {
		stored.Description = stored.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.actions[stored.Name]; exists {
		logging.Registry("Replacing action %s (kind %s -> %s)", stored.Name, prev.Kind, stored.Kind)
		r.removeFromGroup(prev)
	} else {
		r.rendered.WriteString(stored.Name)
		r.rendered.WriteString(",")
	}

	r.actions[stored.Name] = &stored
	if stored.Group != "" {
		r.byGroup[stored.Group] = append(r.byGroup[stored.Group], &stored)
	}

	logging.RegistryDebug("Registered action: %s (kind=%s, risk=%s, params=%d)", stored.Name, stored.Kind, stored.Risk, len(stored.Params))
	return nil
}

func (r *Registry) removeFromGroup(d *Descriptor) {
	if d.Group == "" {
		return
	}
	group := r.byGroup[d.Group]
	for i, g := range group {
		if g == d {
			r.byGroup[d.Group] = append(group[:i], group[i+1:]...)
			break
		}
	}
}

// MustRegister registers an action and panics on error.
// Use this for static action registration at startup.
func (r *Registry) MustRegister(d *Descriptor) {
	if err := r.Register(d); err != nil {
		panic(fmt.Sprintf("failed to register action: %v", err))
	}
}

// Resolve returns the descriptor registered under exactly name. The no-op
// sentinel always resolves. Unknown names return ErrActionNotFound.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	r.mu.RLock()
	d, ok := r.actions[name]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}
	if name == NoOpName {
		return NoOp(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrActionNotFound, name)
}

// Has returns true if an action with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[name]
	return ok
}

// RenderedNames returns the comma-terminated name list, e.g. "search,notify,".
func (r *Registry) RenderedNames() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rendered.String()
}

// ByGroup returns the actions in a group, sorted by name.
func (r *Registry) ByGroup(group string) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Descriptor, len(r.byGroup[group]))
	copy(result, r.byGroup[group])
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// All returns all registered actions sorted by name.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Descriptor, 0, len(r.actions))
	for _, d := range r.actions {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns all registered action names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

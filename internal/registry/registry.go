package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/stategrid/internal/component"
)

// Module is the interface that all component type packages implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// ComponentType describes one kind of component.
type ComponentType struct {
	Name      string
	Variables map[string]*Definition
	// DefaultVariable is read when a reference names the component without
	// a variable, and when the component appears in a children list.
	DefaultVariable string
	// Composite is set for components whose children are computed.
	Composite *CompositeDef
	// KeepsTemplate reports whether the authored children of a spec are kept
	// as a template instead of being instantiated. Nil means never.
	KeepsTemplate func(*component.Spec) bool
}

// Registry holds the registered component types of an application instance.
type Registry struct {
	types map[string]*ComponentType
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]*ComponentType)}
}

// Register adds a component type. Registering a name twice is a programming
// error and panics.
func (r *Registry) Register(t *ComponentType) {
	if _, exists := r.types[t.Name]; exists {
		panic(fmt.Sprintf("component type '%s' already registered", t.Name))
	}
	if t.Variables == nil {
		t.Variables = make(map[string]*Definition)
	}
	if _, ok := t.Variables[HiddenVariable]; !ok {
		t.Variables[HiddenVariable] = hiddenDefinition()
	}
	slog.Debug("Registering component type.", "type", t.Name, "variables", len(t.Variables))
	r.types[t.Name] = t
}

// Use registers every module.
func (r *Registry) Use(modules ...Module) *Registry {
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Lookup returns the component type with the given name.
func (r *Registry) Lookup(name string) (*ComponentType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types returns the sorted names of all registered types.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// KeepsTemplate is the arena predicate built from every registered type.
func (r *Registry) KeepsTemplate(spec *component.Spec) bool {
	t, ok := r.types[spec.Type]
	if !ok || t.KeepsTemplate == nil {
		return false
	}
	return t.KeepsTemplate(spec)
}

// Always is a KeepsTemplate predicate for types that always keep their
// children as a template.
func Always(*component.Spec) bool { return true }

// Variable returns the definition of a variable of a type.
func (r *Registry) Variable(typ, variable string) (*Definition, bool) {
	t, ok := r.types[typ]
	if !ok {
		return nil, false
	}
	d, ok := t.Variables[variable]
	return d, ok
}

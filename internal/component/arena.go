// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package component

import (
	"slices"
	"sync"

	"github.com/specialistvlad/stategrid/internal/nodeid"
)

// Arena owns every component of one document.
type Arena struct {
	mu         sync.RWMutex
	next       nodeid.ComponentID
	components map[nodeid.ComponentID]*Component
	names      map[string][]nodeid.ComponentID
}

// NewArena creates an empty arena. The first instantiated component gets
// id 1; id 0 is reserved for "none".
func NewArena() *Arena {
	return &Arena{
		next:       1,
		components: make(map[nodeid.ComponentID]*Component),
		names:      make(map[string][]nodeid.ComponentID),
	}
}

// Instantiate creates the component described by spec and, depth first,
// its nested children. keepsTemplate decides for a spec whether its
// children are kept as a template instead of being instantiated; it may be
// nil. The returned slice lists every created id in creation order.
func (a *Arena) Instantiate(spec *Spec, parent nodeid.ComponentID, scope *Scope, keepsTemplate func(*Spec) bool) (*Component, []nodeid.ComponentID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var created []nodeid.ComponentID
	c := a.instantiate(spec, parent, scope, keepsTemplate, &created)
	return c, created
}

func (a *Arena) instantiate(spec *Spec, parent nodeid.ComponentID, scope *Scope, keepsTemplate func(*Spec) bool, created *[]nodeid.ComponentID) *Component {
	c := &Component{
		ID:         a.next,
		Type:       spec.Type,
		Name:       spec.Name,
		Attributes: make(map[string]Attribute, len(spec.Attributes)),
		Parent:     parent,
		Scope:      scope,
	}
	a.next++
	for k, v := range spec.Attributes {
		c.Attributes[k] = v
	}
	a.components[c.ID] = c
	if c.Name != "" {
		a.names[c.Name] = append(a.names[c.Name], c.ID)
	}
	*created = append(*created, c.ID)

	if keepsTemplate != nil && keepsTemplate(spec) {
		c.Template = spec.Clone().Children
		return c
	}
	for _, cs := range spec.Children {
		switch {
		case cs.Spec != nil:
			child := a.instantiate(cs.Spec, c.ID, scope, keepsTemplate, created)
			c.Children = append(c.Children, Child{Kind: ChildComponent, ID: child.ID})
		case cs.Ref != nil:
			c.Children = append(c.Children, Child{Kind: ChildReference, Ref: *cs.Ref})
		default:
			c.Children = append(c.Children, Child{Kind: ChildLiteral, Literal: cs.Literal})
		}
	}
	return c
}

// Remove removes the component and its whole authored subtree. It returns
// the removed ids, children before parents.
func (a *Arena) Remove(id nodeid.ComponentID) []nodeid.ComponentID {
	a.mu.Lock()
	defer a.mu.Unlock()
	var removed []nodeid.ComponentID
	a.remove(id, &removed)
	return removed
}

func (a *Arena) remove(id nodeid.ComponentID, removed *[]nodeid.ComponentID) {
	c, ok := a.components[id]
	if !ok {
		return
	}
	for _, child := range c.ChildIDs() {
		a.remove(child, removed)
	}
	delete(a.components, id)
	if c.Name != "" {
		ids := slices.DeleteFunc(a.names[c.Name], func(other nodeid.ComponentID) bool { return other == id })
		if len(ids) == 0 {
			delete(a.names, c.Name)
		} else {
			a.names[c.Name] = ids
		}
	}
	*removed = append(*removed, id)
}

// Lookup returns the component with the given id.
func (a *Arena) Lookup(id nodeid.ComponentID) (*Component, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.components[id]
	return c, ok
}

// Exists reports whether id is a live component.
func (a *Arena) Exists(id nodeid.ComponentID) bool {
	_, ok := a.Lookup(id)
	return ok
}

// ByName returns every live component carrying name, in creation order.
func (a *Arena) ByName(name string) []nodeid.ComponentID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.names[name])
}

// ResolveName finds the component a reference to name made from the
// component `from` designates. The replacement scopes enclosing `from` are
// searched innermost first, then the document scope. A name that only
// exists once in the whole document resolves from anywhere. The result is
// false when the name is absent or ambiguous.
func (a *Arena) ResolveName(from nodeid.ComponentID, name string) (nodeid.ComponentID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	candidates := a.names[name]
	if len(candidates) == 0 {
		return 0, false
	}

	var scope *Scope
	if c, ok := a.components[from]; ok {
		scope = c.Scope
	}
	for {
		for _, id := range candidates {
			if a.components[id].Scope == scope {
				return id, true
			}
		}
		if scope == nil {
			break
		}
		composite, ok := a.components[scope.Composite]
		if !ok {
			scope = nil
			continue
		}
		scope = composite.Scope
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return 0, false
}

// IDs returns every live component id in ascending order.
func (a *Arena) IDs() []nodeid.ComponentID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]nodeid.ComponentID, 0, len(a.components))
	for id := range a.components {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of live components.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.components)
}

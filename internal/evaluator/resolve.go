package evaluator

import (
	"context"
	"slices"
	"sort"

	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/graph"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

func (e *Evaluator) resolveAll(ctx context.Context, c *component.Component, deps map[string]registry.Dependency, edges graph.Edges) map[string]registry.Entry {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[string]registry.Entry, len(deps))
	for _, name := range names {
		out[name] = e.resolve(ctx, c, deps[name], edges)
	}
	return out
}

func (e *Evaluator) resolve(ctx context.Context, c *component.Component, dep registry.Dependency, edges graph.Edges) registry.Entry {
	target := c
	if dep.Component != 0 {
		var ok bool
		if target, ok = e.arena.Lookup(dep.Component); !ok {
			return registry.Entry{Value: value.Absent}
		}
	}
	if target == nil {
		return registry.Entry{Value: value.Unresolved}
	}

	switch dep.Kind {
	case registry.StateVariable:
		return e.read(ctx, nodeid.NewKey(target.ID, dep.Variable), edges, graph.EdgeValue)
	case registry.Attribute:
		if !target.HasAttribute(dep.Variable) {
			return registry.Entry{Value: value.Absent}
		}
		return e.read(ctx, nodeid.NewKey(target.ID, registry.AttributeVariable(dep.Variable)), edges, graph.EdgeValue)
	case registry.AttributePresent:
		present := target.HasAttribute(dep.Variable)
		if present {
			setEdge(edges, nodeid.NewKey(target.ID, registry.AttributeVariable(dep.Variable)), graph.EdgePresence)
		}
		return registry.Entry{Value: value.Bool(present)}
	case registry.Children:
		return e.resolveChildren(ctx, target, dep, edges)
	case registry.Reference:
		if dep.Address == nil {
			return registry.Entry{Value: value.Unresolved}
		}
		return e.resolveReference(ctx, target, dep.Address, edges, graph.EdgeValue)
	case registry.Replacements:
		return e.resolveReplacements(ctx, target, dep, edges)
	case registry.Sample:
		return e.resolveSample(ctx, target, dep, edges)
	case registry.ItemValue, registry.ItemIndex:
		return e.resolveItem(ctx, target, dep, edges)
	}
	return registry.Entry{Value: value.Unresolved}
}

func (e *Evaluator) defaultVariable(c *component.Component, variable string) string {
	if variable != "" {
		return variable
	}
	if t, ok := e.reg.Lookup(c.Type); ok {
		return t.DefaultVariable
	}
	return ""
}

// list accumulates the elements of a list dependency.
type list struct {
	values     []cty.Value
	sources    []nodeid.Key
	components []nodeid.ComponentID
}

func (l *list) add(v cty.Value, source nodeid.Key, id nodeid.ComponentID) {
	l.values = append(l.values, v)
	l.sources = append(l.sources, source)
	l.components = append(l.components, id)
}

func (l *list) entry() registry.Entry {
	return registry.Entry{
		Value:      value.List(l.values...),
		Sources:    l.sources,
		Components: l.components,
	}
}

// element reads one element of a list dependency: the value of a child
// component, a literal, or the target of a reference.
func (e *Evaluator) element(ctx context.Context, c *component.Component, ch component.Child, variable string, types []string, edges graph.Edges, l *list) {
	switch ch.Kind {
	case component.ChildLiteral:
		if len(types) > 0 {
			return
		}
		l.add(value.Clean(ch.Literal), nodeid.Key{}, 0)
	case component.ChildReference:
		ref := ch.Ref
		key, element, ok := e.resolveAddress(ctx, c, &ref, edges)
		if !ok {
			if len(types) == 0 {
				l.add(value.Unresolved, nodeid.Key{}, 0)
			}
			return
		}
		if len(types) > 0 {
			target, found := e.arena.Lookup(key.Component)
			if !found || !slices.Contains(types, target.Type) {
				return
			}
		}
		entry := e.read(ctx, key, edges, graph.EdgeArray)
		if element >= 0 {
			// One element of a list node cannot be written through the list.
			l.add(value.Index(entry.Value, element), nodeid.Key{}, key.Component)
			return
		}
		l.add(entry.Value, key, key.Component)
	case component.ChildComponent:
		child, ok := e.arena.Lookup(ch.ID)
		if !ok {
			return
		}
		if len(types) > 0 && !slices.Contains(types, child.Type) {
			return
		}
		name := e.defaultVariable(child, variable)
		if name == "" {
			l.add(value.Unresolved, nodeid.Key{}, child.ID)
			return
		}
		key := nodeid.NewKey(child.ID, name)
		entry := e.read(ctx, key, edges, graph.EdgeArray)
		l.add(entry.Value, key, child.ID)
	}
}

func (e *Evaluator) resolveChildren(ctx context.Context, c *component.Component, dep registry.Dependency, edges graph.Edges) registry.Entry {
	setEdge(edges, nodeid.NewKey(c.ID, registry.ChildrenVariable), graph.EdgeMembership)
	e.Value(ctx, nodeid.NewKey(c.ID, registry.ChildrenVariable))
	var l list
	for _, ch := range e.active[c.ID] {
		e.element(ctx, c, ch, dep.Variable, dep.Types, edges, &l)
	}
	return l.entry()
}

func (e *Evaluator) resolveReplacements(ctx context.Context, c *component.Component, dep registry.Dependency, edges graph.Edges) registry.Entry {
	id := c.ID
	if dep.Address != nil {
		found, ok := e.lookupName(ctx, c, dep.Address.Component, edges)
		if !ok {
			return registry.Entry{Value: value.Unresolved}
		}
		id = found
	}
	key := nodeid.NewKey(id, registry.ReplacementsVariable)
	if e.DefinitionOf(ctx, key) == nil || e.expander == nil {
		return registry.Entry{Value: value.Unresolved}
	}
	setEdge(edges, key, graph.EdgeMembership)
	e.Value(ctx, key)
	var l list
	for _, ch := range e.expander.Replacements(id, false) {
		e.element(ctx, c, ch, dep.Variable, dep.Types, edges, &l)
	}
	return l.entry()
}

func (e *Evaluator) resolveSample(ctx context.Context, c *component.Component, dep registry.Dependency, edges graph.Edges) registry.Entry {
	key := nodeid.NewKey(c.ID, registry.SampleVariable)
	slot := e.sampled[c.ID]
	if slot == nil || slot.size != dep.SampleSize || slot.count != dep.SampleCount {
		e.sampled[c.ID] = &samplerSlot{
			s:     e.samplers(c.ID, dep.SampleSize, dep.SampleCount),
			size:  dep.SampleSize,
			count: dep.SampleCount,
		}
		if slot != nil {
			e.graph.Invalidate(key)
		}
	}
	return e.read(ctx, key, edges, graph.EdgeValue)
}

func (e *Evaluator) resolveItem(ctx context.Context, c *component.Component, dep registry.Dependency, edges graph.Edges) registry.Entry {
	if c.Scope == nil {
		return registry.Entry{Value: value.Unresolved}
	}
	// The binding changes in place when the composite reconciles, so the
	// reader depends on the composite's replacement set.
	key := nodeid.NewKey(c.Scope.Composite, registry.ReplacementsVariable)
	setEdge(edges, key, graph.EdgeValue)
	e.Value(ctx, key)
	if dep.Kind == registry.ItemIndex {
		return registry.Entry{Value: value.Int(c.Scope.Index)}
	}
	if c.Scope.Item == cty.NilVal {
		return registry.Entry{Value: value.Unresolved}
	}
	return registry.Entry{Value: value.Clean(c.Scope.Item)}
}

// computeChildren expands every composite child into its active
// replacements, recursively, and records the resulting child list.
func (e *Evaluator) computeChildren(ctx context.Context, c *component.Component, key nodeid.Key) cty.Value {
	edges := graph.Edges{}
	var active []component.Child
	e.expandChildren(ctx, c.Children, edges, &active)
	e.graph.Declare(key, edges)
	e.active[c.ID] = active

	fingerprint := make([]cty.Value, 0, len(active))
	for _, ch := range active {
		switch ch.Kind {
		case component.ChildComponent:
			fingerprint = append(fingerprint, value.String(ch.ID.String()))
		case component.ChildReference:
			fingerprint = append(fingerprint, value.String("&"+ch.Ref.String()))
		default:
			fingerprint = append(fingerprint, value.String("="+value.Format(ch.Literal)))
		}
	}
	return value.List(fingerprint...)
}

func (e *Evaluator) expandChildren(ctx context.Context, children []component.Child, edges graph.Edges, out *[]component.Child) {
	for _, ch := range children {
		if ch.Kind != component.ChildComponent {
			*out = append(*out, ch)
			continue
		}
		child, ok := e.arena.Lookup(ch.ID)
		if !ok || child.Withheld {
			continue
		}
		t, known := e.reg.Lookup(child.Type)
		if !known || t.Composite == nil || e.expander == nil {
			*out = append(*out, ch)
			continue
		}
		key := nodeid.NewKey(child.ID, registry.ReplacementsVariable)
		setEdge(edges, key, graph.EdgeMembership)
		e.Value(ctx, key)
		e.expandChildren(ctx, e.expander.Replacements(child.ID, false), edges, out)
	}
}

func (e *Evaluator) computeSample(c *component.Component, key nodeid.Key) cty.Value {
	e.graph.Declare(key, nil)
	slot := e.sampled[c.ID]
	if slot == nil {
		return value.Unresolved
	}
	choice := slot.s.Value()
	out := make([]cty.Value, len(choice))
	for i, n := range choice {
		out[i] = value.Int(n)
	}
	return value.List(out...)
}

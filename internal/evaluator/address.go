package evaluator

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/expr"
	"github.com/specialistvlad/stategrid/internal/graph"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
)

// boundReference is one reference found in an attribute expression: the
// prefix of the traversal the engine resolves, and how it resolves it.
// Any steps after the prefix are applied by hcl to the resolved value.
type boundReference struct {
	name      string
	traversal hcl.Traversal
	dep       registry.Dependency
}

// referenceFor maps an expression traversal onto a dependency.
//
//	each.value          the item of the enclosing replacement
//	count.index         the index of the enclosing replacement
//	name                the default variable of component name
//	name.var            variable var of component name
//	name[i].var         variable var of the i-th replacement of composite name
//	name.var[j]         element j of the list variable var
func referenceFor(t hcl.Traversal) (boundReference, bool) {
	root, ok := t[0].(hcl.TraverseRoot)
	if !ok {
		return boundReference{}, false
	}
	if len(t) >= 2 {
		if attr, ok := t[1].(hcl.TraverseAttr); ok {
			switch {
			case root.Name == "each" && attr.Name == "value":
				return bound(t[:2], registry.Item()), true
			case root.Name == "count" && attr.Name == "index":
				return bound(t[:2], registry.Index()), true
			}
		}
	}

	addr := nodeid.ComponentAddress(root.Name)
	n := 1
	if n < len(t) {
		if i, ok := indexStep(t[n]); ok {
			addr.Replica = i
			n++
		}
	}
	if n < len(t) {
		if attr, ok := t[n].(hcl.TraverseAttr); ok {
			addr.Variable = attr.Name
			n++
			if n < len(t) {
				if j, ok := indexStep(t[n]); ok {
					addr.Element = j
					n++
				}
			}
		}
	}
	return bound(t[:n], registry.Ref(&addr)), true
}

func bound(t hcl.Traversal, dep registry.Dependency) boundReference {
	t = append(hcl.Traversal(nil), t...)
	return boundReference{name: expr.TraversalKey(t), traversal: t, dep: dep}
}

func indexStep(step hcl.Traverser) (int, bool) {
	idx, ok := step.(hcl.TraverseIndex)
	if !ok {
		return 0, false
	}
	i, ok := value.AsInt(idx.Key)
	if !ok || i < 0 {
		return 0, false
	}
	return i, true
}

// lookupName resolves the component a name designates from c. It reads the
// names node so that the lookup is redone when components come and go.
func (e *Evaluator) lookupName(ctx context.Context, c *component.Component, name string, edges graph.Edges) (nodeid.ComponentID, bool) {
	setEdge(edges, NamesKey, graph.EdgeMembership)
	e.Value(ctx, NamesKey)
	from := nodeid.ComponentID(0)
	if c != nil {
		from = c.ID
	}
	return e.arena.ResolveName(from, name)
}

// replacementRoots returns the active replacement roots of a composite.
func (e *Evaluator) replacementRoots(ctx context.Context, id nodeid.ComponentID, edges graph.Edges) []nodeid.ComponentID {
	key := nodeid.NewKey(id, registry.ReplacementsVariable)
	setEdge(edges, key, graph.EdgeMembership)
	e.Value(ctx, key)
	if e.expander == nil {
		return nil
	}
	var out []nodeid.ComponentID
	for _, ch := range e.expander.Replacements(id, false) {
		if ch.Kind == component.ChildComponent {
			out = append(out, ch.ID)
		}
	}
	return out
}

// resolveAddress resolves an authored address to the node it designates.
// The element index of the variable segment, if any, is returned
// separately.
func (e *Evaluator) resolveAddress(ctx context.Context, c *component.Component, addr *nodeid.Address, edges graph.Edges) (key nodeid.Key, element int, ok bool) {
	id, found := e.lookupName(ctx, c, addr.Component, edges)
	if !found {
		return nodeid.Key{}, -1, false
	}
	if addr.HasReplica() {
		roots := e.replacementRoots(ctx, id, edges)
		if addr.Replica >= len(roots) {
			return nodeid.Key{}, -1, false
		}
		id = roots[addr.Replica]
	}
	target, found := e.arena.Lookup(id)
	if !found {
		return nodeid.Key{}, -1, false
	}
	element = -1
	variable := addr.Variable
	if variable != "" {
		element = addr.Element
	} else if t, known := e.reg.Lookup(target.Type); known {
		variable = t.DefaultVariable
	}
	if variable == "" {
		return nodeid.Key{}, -1, false
	}
	return nodeid.NewKey(id, variable), element, true
}

// resolveReference reads the value an address designates.
func (e *Evaluator) resolveReference(ctx context.Context, c *component.Component, addr *nodeid.Address, edges graph.Edges, kind graph.EdgeKind) registry.Entry {
	key, element, ok := e.resolveAddress(ctx, c, addr, edges)
	if !ok {
		return registry.Entry{Value: value.Unresolved}
	}
	entry := e.read(ctx, key, edges, kind)
	if element >= 0 {
		entry.HasElement = true
		entry.Element = element
		entry.Value = value.Index(entry.Value, element)
	}
	return entry
}

func (e *Evaluator) read(ctx context.Context, key nodeid.Key, edges graph.Edges, kind graph.EdgeKind) registry.Entry {
	if key.Component != 0 && !e.arena.Exists(key.Component) {
		return registry.Entry{Value: value.Absent}
	}
	if e.DefinitionOf(ctx, key) == nil {
		return registry.Entry{Value: value.Unresolved}
	}
	setEdge(edges, key, kind)
	return registry.Entry{
		Value:   value.Clean(e.Value(ctx, key)),
		Sources: []nodeid.Key{key},
	}
}

// setEdge records an edge, keeping the strongest kind when a producer is
// read more than once. EdgeValue is the strongest.
func setEdge(edges graph.Edges, key nodeid.Key, kind graph.EdgeKind) {
	if old, ok := edges[key]; ok && old <= kind {
		return
	}
	edges[key] = kind
}

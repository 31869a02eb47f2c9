package expr

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Scope assembles the variables of an evaluation context from individual
// traversal values. Setting `r.width` and `items[1].value` yields variables
// `r` (an object) and `items` (a tuple padded with unresolved values).
type Scope struct {
	roots map[string]*scopeNode
}

type scopeNode struct {
	leaf    *cty.Value
	attrs   map[string]*scopeNode
	indexes map[int]*scopeNode
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{roots: make(map[string]*scopeNode)}
}

// Set binds the value reached by traversal t.
func (s *Scope) Set(t hcl.Traversal, v cty.Value) {
	if len(t) == 0 {
		return
	}
	root, ok := t[0].(hcl.TraverseRoot)
	if !ok {
		return
	}
	n := s.roots[root.Name]
	if n == nil {
		n = &scopeNode{}
		s.roots[root.Name] = n
	}
	for _, step := range t[1:] {
		n = n.child(step)
		if n == nil {
			return
		}
	}
	v = value.Clean(v)
	n.leaf = &v
}

// Variables returns the assembled variables map.
func (s *Scope) Variables() map[string]cty.Value {
	out := make(map[string]cty.Value, len(s.roots))
	for name, n := range s.roots {
		out[name] = n.value()
	}
	return out
}

func (n *scopeNode) child(step hcl.Traverser) *scopeNode {
	switch s := step.(type) {
	case hcl.TraverseAttr:
		if n.attrs == nil {
			n.attrs = make(map[string]*scopeNode)
		}
		c := n.attrs[s.Name]
		if c == nil {
			c = &scopeNode{}
			n.attrs[s.Name] = c
		}
		return c
	case hcl.TraverseIndex:
		i, ok := value.AsInt(s.Key)
		if !ok || i < 0 {
			return nil
		}
		if n.indexes == nil {
			n.indexes = make(map[int]*scopeNode)
		}
		c := n.indexes[i]
		if c == nil {
			c = &scopeNode{}
			n.indexes[i] = c
		}
		return c
	}
	return nil
}

func (n *scopeNode) value() cty.Value {
	switch {
	case len(n.attrs) > 0:
		attrs := make(map[string]cty.Value, len(n.attrs))
		for k, c := range n.attrs {
			attrs[k] = c.value()
		}
		return cty.ObjectVal(attrs)
	case len(n.indexes) > 0:
		size := 0
		for i := range n.indexes {
			if i+1 > size {
				size = i + 1
			}
		}
		elems := make([]cty.Value, size)
		for i := range elems {
			elems[i] = value.Unresolved
			if c, ok := n.indexes[i]; ok {
				elems[i] = c.value()
			}
		}
		return cty.TupleVal(elems)
	case n.leaf != nil:
		return *n.leaf
	}
	return value.Unresolved
}

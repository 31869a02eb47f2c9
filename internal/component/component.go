// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package component

import (
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// ChildKind tags the variants of Child.
type ChildKind int

const (
	ChildLiteral ChildKind = iota
	ChildReference
	ChildComponent
)

// Child is an instantiated child slot.
type Child struct {
	Kind    ChildKind
	Literal cty.Value
	Ref     nodeid.Address
	ID      nodeid.ComponentID
}

// Scope records that a component belongs to a replacement generated by a
// composite. Every component of one replacement subtree shares the same
// *Scope, which is how names are scoped per replacement.
type Scope struct {
	Composite nodeid.ComponentID
	Epoch     int
	Index     int
	// Item is bound to each.value inside the replacement.
	Item cty.Value
}

// Component is an instantiated node of the document tree.
type Component struct {
	ID         nodeid.ComponentID
	Type       string
	Name       string
	Attributes map[string]Attribute
	Children   []Child
	// Template holds the authored children of types that keep their
	// children for a composite to expand, such as case and repeat.
	Template []ChildSpec
	Parent   nodeid.ComponentID
	Scope    *Scope
	// Withheld is set on a replacement root that its composite currently
	// hides. Withheld replacements keep their state but are not active.
	Withheld bool
}

// ChildIDs returns the ids of component children in order.
func (c *Component) ChildIDs() []nodeid.ComponentID {
	var out []nodeid.ComponentID
	for _, ch := range c.Children {
		if ch.Kind == ChildComponent {
			out = append(out, ch.ID)
		}
	}
	return out
}

// HasAttribute reports whether the attribute was authored.
func (c *Component) HasAttribute(name string) bool {
	_, ok := c.Attributes[name]
	return ok
}

// Label renders the component for logs: its name when it has one.
func (c *Component) Label() string {
	if c.Name != "" {
		return c.Type + " " + c.Name + " (" + c.ID.String() + ")"
	}
	return c.Type + " (" + c.ID.String() + ")"
}

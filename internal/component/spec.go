// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models the authored shape of a component, as produced by a
// document loader or built by a composite when it expands a template.
package component

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Attribute is an authored attribute value: either a literal or an
// expression evaluated against other components.
type Attribute struct {
	Literal cty.Value
	Expr    hcl.Expression
}

// Lit builds a literal attribute.
func Lit(v cty.Value) Attribute {
	return Attribute{Literal: v}
}

// ExprAttr builds an expression attribute.
func ExprAttr(e hcl.Expression) Attribute {
	return Attribute{Expr: e}
}

// IsExpr reports whether the attribute is an expression.
func (a Attribute) IsExpr() bool {
	return a.Expr != nil
}

// ChildSpec is one authored child: a literal value, a reference to another
// component's variable, or a nested component.
type ChildSpec struct {
	Literal cty.Value
	Ref     *nodeid.Address
	Spec    *Spec
}

// LitChild builds a literal child.
func LitChild(v cty.Value) ChildSpec {
	return ChildSpec{Literal: v}
}

// RefChild builds a reference child.
func RefChild(addr nodeid.Address) ChildSpec {
	return ChildSpec{Ref: &addr}
}

// SpecChild builds a nested component child.
func SpecChild(s *Spec) ChildSpec {
	return ChildSpec{Spec: s}
}

// Spec describes a component before it is instantiated.
type Spec struct {
	Type       string
	Name       string
	Attributes map[string]Attribute
	Children   []ChildSpec
}

// New returns a spec of the given type.
func New(typ string) *Spec {
	return &Spec{Type: typ, Attributes: make(map[string]Attribute)}
}

// Named sets the component name.
func (s *Spec) Named(name string) *Spec {
	s.Name = name
	return s
}

// With sets a literal attribute.
func (s *Spec) With(name string, v cty.Value) *Spec {
	s.Attributes[name] = Lit(v)
	return s
}

// WithExpr sets an expression attribute.
func (s *Spec) WithExpr(name string, e hcl.Expression) *Spec {
	s.Attributes[name] = ExprAttr(e)
	return s
}

// Append adds children.
func (s *Spec) Append(children ...ChildSpec) *Spec {
	s.Children = append(s.Children, children...)
	return s
}

// Clone returns a deep copy of the spec. Attribute expressions are shared;
// they are immutable once parsed.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}
	out := &Spec{
		Type:       s.Type,
		Name:       s.Name,
		Attributes: make(map[string]Attribute, len(s.Attributes)),
		Children:   make([]ChildSpec, len(s.Children)),
	}
	for k, v := range s.Attributes {
		out.Attributes[k] = v
	}
	for i, c := range s.Children {
		out.Children[i] = c
		if c.Spec != nil {
			out.Children[i].Spec = c.Spec.Clone()
		}
	}
	return out
}

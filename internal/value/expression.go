// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package value

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Expression is a symbolic expression as entered by a user or an author.
// Two expressions are equal when their canonical renderings are equal, so
// "x+1" and "(x + 1)" compare equal while "x+1" and "1+x" do not.
type Expression struct {
	Source string
	Syntax hclsyntax.Expression

	canonical string
}

// NewExpression wraps a parsed syntax tree.
func NewExpression(source string, syntax hclsyntax.Expression) *Expression {
	return &Expression{Source: source, Syntax: syntax, canonical: Render(syntax)}
}

// Canonical returns the normalized rendering of the syntax tree.
func (e *Expression) Canonical() string {
	if e == nil {
		return ""
	}
	if e.canonical == "" && e.Syntax != nil {
		e.canonical = Render(e.Syntax)
	}
	return e.canonical
}

func (e *Expression) String() string {
	return e.Canonical()
}

// ExprType is the cty capsule type carrying *Expression values.
var ExprType cty.Type

// The capsule ops render expressions, and rendering reads ExprType, so the
// type is built in init.
func init() {
	ExprType = cty.CapsuleWithOps("expression", reflect.TypeOf(Expression{}), &cty.CapsuleOps{
		GoString: func(v interface{}) string {
			return fmt.Sprintf("value.Expr(%q)", v.(*Expression).Canonical())
		},
		TypeGoString: func(reflect.Type) string {
			return "value.ExprType"
		},
		Equals: func(a, b interface{}) cty.Value {
			return cty.BoolVal(a.(*Expression).Canonical() == b.(*Expression).Canonical())
		},
		RawEquals: func(a, b interface{}) bool {
			return a.(*Expression).Canonical() == b.(*Expression).Canonical()
		},
	})
}

// Expr wraps an expression into a value.
func Expr(e *Expression) cty.Value {
	if e == nil {
		return Unresolved
	}
	return cty.CapsuleVal(ExprType, e)
}

// IsExpression reports whether v is a known symbolic expression.
func IsExpression(v cty.Value) bool {
	if v == cty.NilVal || !v.IsKnown() || v.IsNull() {
		return false
	}
	return v.Type().Equals(ExprType)
}

// AsExpression unwraps a symbolic expression value, or returns nil.
func AsExpression(v cty.Value) *Expression {
	if !IsExpression(v) {
		return nil
	}
	v, _ = v.Unmark()
	return v.EncapsulatedValue().(*Expression)
}

// Render produces the canonical text of a syntax tree: binary operations are
// fully parenthesized, redundant parentheses are dropped and numbers use
// their shortest exact form.
func Render(e hclsyntax.Expression) string {
	var b strings.Builder
	render(&b, e)
	return b.String()
}

func render(b *strings.Builder, e hclsyntax.Expression) {
	switch e := e.(type) {
	case nil:
		b.WriteString("<nil>")
	case *hclsyntax.LiteralValueExpr:
		b.WriteString(renderLiteral(e.Val))
	case *hclsyntax.ScopeTraversalExpr:
		renderTraversal(b, e.Traversal)
	case *hclsyntax.RelativeTraversalExpr:
		render(b, e.Source)
		renderTraversal(b, e.Traversal)
	case *hclsyntax.ParenthesesExpr:
		render(b, e.Expression)
	case *hclsyntax.BinaryOpExpr:
		b.WriteByte('(')
		render(b, e.LHS)
		b.WriteByte(' ')
		b.WriteString(operatorSymbol(e.Op))
		b.WriteByte(' ')
		render(b, e.RHS)
		b.WriteByte(')')
	case *hclsyntax.UnaryOpExpr:
		if e.Op == hclsyntax.OpNegate {
			b.WriteByte('-')
		} else {
			b.WriteByte('!')
		}
		render(b, e.Val)
	case *hclsyntax.FunctionCallExpr:
		b.WriteString(e.Name)
		b.WriteByte('(')
		for i, arg := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, arg)
		}
		b.WriteByte(')')
	case *hclsyntax.ConditionalExpr:
		b.WriteByte('(')
		render(b, e.Condition)
		b.WriteString(" ? ")
		render(b, e.TrueResult)
		b.WriteString(" : ")
		render(b, e.FalseResult)
		b.WriteByte(')')
	case *hclsyntax.TupleConsExpr:
		b.WriteByte('[')
		for i, item := range e.Exprs {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, item)
		}
		b.WriteByte(']')
	case *hclsyntax.IndexExpr:
		render(b, e.Collection)
		b.WriteByte('[')
		render(b, e.Key)
		b.WriteByte(']')
	case *hclsyntax.TemplateWrapExpr:
		render(b, e.Wrapped)
	case *hclsyntax.TemplateExpr:
		b.WriteByte('"')
		for _, part := range e.Parts {
			if lit, ok := part.(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.String {
				b.WriteString(lit.Val.AsString())
				continue
			}
			b.WriteString("${")
			render(b, part)
			b.WriteByte('}')
		}
		b.WriteByte('"')
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

func renderLiteral(v cty.Value) string {
	if !v.IsKnown() {
		return "<unknown>"
	}
	if v.IsNull() {
		return "null"
	}
	switch v.Type() {
	case cty.Number:
		return v.AsBigFloat().Text('g', -1)
	case cty.String:
		return strconv.Quote(v.AsString())
	case cty.Bool:
		return strconv.FormatBool(v.True())
	}
	return Format(v)
}

func renderTraversal(b *strings.Builder, t hcl.Traversal) {
	for _, step := range t {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			b.WriteString(s.Name)
		case hcl.TraverseAttr:
			b.WriteByte('.')
			b.WriteString(s.Name)
		case hcl.TraverseIndex:
			b.WriteByte('[')
			b.WriteString(renderLiteral(s.Key))
			b.WriteByte(']')
		case hcl.TraverseSplat:
			b.WriteString("[*]")
		}
	}
}

var operatorSymbols = map[*hclsyntax.Operation]string{
	hclsyntax.OpAdd:                "+",
	hclsyntax.OpSubtract:           "-",
	hclsyntax.OpMultiply:           "*",
	hclsyntax.OpDivide:             "/",
	hclsyntax.OpModulo:             "%",
	hclsyntax.OpLogicalAnd:         "&&",
	hclsyntax.OpLogicalOr:          "||",
	hclsyntax.OpEqual:              "==",
	hclsyntax.OpNotEqual:           "!=",
	hclsyntax.OpGreaterThan:        ">",
	hclsyntax.OpGreaterThanOrEqual: ">=",
	hclsyntax.OpLessThan:           "<",
	hclsyntax.OpLessThanOrEqual:    "<=",
}

func operatorSymbol(op *hclsyntax.Operation) string {
	if s, ok := operatorSymbols[op]; ok {
		return s
	}
	return "?"
}

// sortedKeys returns the keys of an object value in a stable order.
func sortedKeys(m map[string]cty.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

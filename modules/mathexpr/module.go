// Package mathexpr registers the math component type, a symbolic
// expression with a numeric reading.
package mathexpr

import (
	"strings"

	"github.com/specialistvlad/stategrid/internal/expr"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the component types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.ComponentType{
		Name:            "math",
		DefaultVariable: "value",
		Variables: map[string]*registry.Definition{
			"value": {
				Dependencies: map[string]registry.Dependency{
					"children": registry.ChildValues(""),
					"default":  registry.Attr("default"),
				},
				Definition: func(v registry.Values) registry.Result {
					if children := v.List("children"); len(children) > 0 {
						return registry.Val(combine(children))
					}
					def := v.Get("default")
					if value.IsAbsent(def) {
						return registry.UseEssential(value.Unresolved)
					}
					return registry.UseEssential(toExpr(def))
				},
				InverseDefinition: inverse,
			},
			"number": {
				Dependencies: map[string]registry.Dependency{"value": registry.Self("value")},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(expr.Numeric(value.AsExpression(v.Get("value")), nil))
				},
				InverseDefinition: registry.ForwardTo("value"),
			},
			"text": {
				Dependencies: map[string]registry.Dependency{"value": registry.Self("value")},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(value.String(value.Format(v.Get("value"))))
				},
				InverseDefinition: registry.ForwardTo("value"),
			},
			"free_variables": {
				Dependencies: map[string]registry.Dependency{"value": registry.Self("value")},
				Definition: func(v registry.Values) registry.Result {
					names := expr.FreeVariables(value.AsExpression(v.Get("value")))
					out := make([]cty.Value, len(names))
					for i, name := range names {
						out[i] = value.String(name)
					}
					return registry.Val(value.List(out...))
				},
			},
		},
	})
}

func inverse(req registry.InverseRequest) ([]registry.Instruction, error) {
	desired := toExpr(req.Desired)
	if value.IsUnresolved(desired) {
		return nil, registry.Decline("%s is not a math expression", value.Format(req.Desired))
	}
	if req.Essential {
		return []registry.Instruction{registry.SetEssential(desired)}, nil
	}
	if n := len(req.Values.List("children")); n != 1 {
		return nil, registry.Decline("math is built from %d children", n)
	}
	return []registry.Instruction{registry.ForwardElement("children", 0, desired)}, nil
}

// toExpr reads numbers, strings and expressions as an expression.
func toExpr(v cty.Value) cty.Value {
	v = value.Clean(v)
	if value.IsExpression(v) {
		return v
	}
	src, ok := value.AsString(v)
	if !ok {
		return value.Unresolved
	}
	e, err := expr.Parse(src)
	if err != nil {
		return value.Unresolved
	}
	return value.Expr(e)
}

// combine joins the children into one expression source, so that
// `content = ["2 * ", x]` multiplies x's expression by two.
func combine(children []cty.Value) cty.Value {
	if len(children) == 1 {
		return toExpr(children[0])
	}
	var b strings.Builder
	for _, ch := range children {
		s, ok := value.AsString(ch)
		if !ok {
			return value.Unresolved
		}
		if value.IsExpression(ch) {
			s = "(" + s + ")"
		}
		b.WriteString(s)
	}
	return toExpr(value.String(b.String()))
}

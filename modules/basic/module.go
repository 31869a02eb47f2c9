// Package basic registers the primitive component types: number, text and
// boolean, plus the document and group containers.
//
// A primitive takes its value from its children when it has any, from its
// value attribute otherwise, and falls back to an essential value seeded
// by its default attribute. Writes go back to whichever source is active.
package basic

import (
	"strings"

	"github.com/specialistvlad/stategrid/internal/expr"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the component types with the registry.
func (m *Module) Register(r *registry.Registry) {
	number := primitive("number", cty.Number, value.Number(0), combineExpression(cty.Number))
	number.Variables["text"] = formatted()
	boolean := primitive("boolean", cty.Bool, value.Bool(false), combineExpression(cty.Bool))
	boolean.Variables["text"] = formatted()

	r.Register(number)
	r.Register(primitive("text", cty.String, value.String(""), combineText))
	r.Register(boolean)
	r.Register(&registry.ComponentType{Name: "document"})
	r.Register(&registry.ComponentType{Name: "group"})
}

func primitive(name string, typ cty.Type, zero cty.Value, combine func([]cty.Value) cty.Value) *registry.ComponentType {
	return &registry.ComponentType{
		Name:            name,
		DefaultVariable: "value",
		Variables: map[string]*registry.Definition{
			"value": {
				Dependencies: map[string]registry.Dependency{
					"children": registry.ChildValues(""),
					"value":    registry.Attr("value"),
					"default":  registry.Attr("default"),
				},
				Default: zero,
				Definition: func(v registry.Values) registry.Result {
					if children := v.List("children"); len(children) > 0 {
						return registry.Val(combine(children))
					}
					if attr := v.Get("value"); !value.IsAbsent(attr) {
						return registry.Val(to(attr, typ))
					}
					def := v.Get("default")
					if value.IsAbsent(def) {
						return registry.UseEssential(zero)
					}
					return registry.UseEssential(to(def, typ))
				},
				InverseDefinition: func(req registry.InverseRequest) ([]registry.Instruction, error) {
					desired := to(req.Desired, typ)
					if value.IsUnresolved(desired) {
						return nil, registry.Decline("%s cannot hold %s", name, value.Format(req.Desired))
					}
					if req.Essential {
						return []registry.Instruction{registry.SetEssential(desired)}, nil
					}
					switch n := len(req.Values.List("children")); {
					case n == 1:
						return []registry.Instruction{registry.ForwardElement("children", 0, desired)}, nil
					case n > 1:
						return nil, registry.Decline("%s is built from %d children", name, n)
					}
					return []registry.Instruction{registry.Forward("value", desired)}, nil
				},
			},
		},
	}
}

// formatted renders the value as text.
func formatted() *registry.Definition {
	return &registry.Definition{
		Dependencies: map[string]registry.Dependency{"value": registry.Self("value")},
		Definition: func(v registry.Values) registry.Result {
			return registry.Val(value.String(value.Format(v.Get("value"))))
		},
	}
}

// to converts v to typ, Unresolved when it cannot be converted. Strings
// are parsed as expressions so that "2+3" is a number.
func to(v cty.Value, typ cty.Type) cty.Value {
	v = value.Clean(v)
	if value.IsUnresolved(v) || v.IsNull() {
		return value.Unresolved
	}
	if value.IsExpression(v) {
		v = expr.Numeric(value.AsExpression(v), nil)
	}
	if out, err := convert.Convert(v, typ); err == nil {
		return out
	}
	if s, ok := value.AsString(v); ok && typ != cty.String {
		return parse(s, typ)
	}
	return value.Unresolved
}

func parse(src string, typ cty.Type) cty.Value {
	e, err := expr.Parse(src)
	if err != nil {
		return value.Unresolved
	}
	out, err := convert.Convert(expr.Numeric(e, nil), typ)
	if err != nil || value.IsUnresolved(out) {
		return value.Unresolved
	}
	return out
}

// combineExpression joins the children as text and evaluates the result,
// so `content = ["2", "+", n]` is a number.
func combineExpression(typ cty.Type) func([]cty.Value) cty.Value {
	return func(children []cty.Value) cty.Value {
		if len(children) == 1 {
			return to(children[0], typ)
		}
		var b strings.Builder
		for _, ch := range children {
			s, ok := value.AsString(ch)
			if !ok {
				return value.Unresolved
			}
			b.WriteString(s)
		}
		return parse(b.String(), typ)
	}
}

func combineText(children []cty.Value) cty.Value {
	var b strings.Builder
	for _, ch := range children {
		s, ok := value.AsString(ch)
		if !ok {
			return value.Unresolved
		}
		b.WriteString(s)
	}
	return value.String(b.String())
}

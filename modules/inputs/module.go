// Package inputs registers the user input component types: textinput,
// mathinput and booleaninput.
//
// An input holds what the user entered as an essential value seeded by its
// prefill attribute. An input with a bind_value_to attribute holds no state
// of its own: it shows the bound value and writes go to it.
package inputs

import (
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
	r.Register(&registry.ComponentType{
		Name:            "textinput",
		DefaultVariable: "value",
		Variables: map[string]*registry.Definition{
			"value": bound(cty.String, value.String("")),
		},
	})
	r.Register(&registry.ComponentType{
		Name:            "booleaninput",
		DefaultVariable: "value",
		Variables: map[string]*registry.Definition{
			"value": bound(cty.Bool, value.Bool(false)),
		},
	})
	r.Register(mathinput())
}

// bound is the value of an input: the bound value when bind_value_to is
// set, the entered value otherwise.
func bound(typ cty.Type, zero cty.Value) *registry.Definition {
	return &registry.Definition{
		Dependencies: map[string]registry.Dependency{
			"bound":   registry.AttrPresent("bind_value_to"),
			"bind":    registry.Attr("bind_value_to"),
			"prefill": registry.Attr("prefill"),
		},
		Default: zero,
		Definition: func(v registry.Values) registry.Result {
			if isBound, _ := v.Bool("bound"); isBound {
				return registry.Val(coerce(v.Get("bind"), typ))
			}
			prefill := v.Get("prefill")
			if value.IsAbsent(prefill) {
				return registry.UseEssential(zero)
			}
			return registry.UseEssential(coerce(prefill, typ))
		},
		InverseDefinition: func(req registry.InverseRequest) ([]registry.Instruction, error) {
			desired := coerce(req.Desired, typ)
			if value.IsUnresolved(desired) {
				return nil, registry.Decline("input cannot hold %s", value.Format(req.Desired))
			}
			if req.Essential {
				return []registry.Instruction{registry.SetEssential(desired)}, nil
			}
			return []registry.Instruction{registry.Forward("bind", desired)}, nil
		},
	}
}

func coerce(v cty.Value, typ cty.Type) cty.Value {
	if value.IsUnresolved(v) || v.IsNull() {
		return value.Unresolved
	}
	if value.IsExpression(v) && typ == cty.String {
		return value.String(value.Format(v))
	}
	out, err := convert.Convert(value.Clean(v), typ)
	if err != nil {
		return value.Unresolved
	}
	return out
}

// mathinput keeps the raw text the user typed as its essential state.
// The value is that text parsed as an expression; text that does not parse
// leaves the value unresolved while the raw text is kept.
func mathinput() *registry.ComponentType {
	return &registry.ComponentType{
		Name:            "mathinput",
		DefaultVariable: "value",
		Variables: map[string]*registry.Definition{
			"raw_text": {
				Dependencies: map[string]registry.Dependency{
					"bound":   registry.AttrPresent("bind_value_to"),
					"bind":    registry.Attr("bind_value_to"),
					"prefill": registry.Attr("prefill"),
				},
				Default: value.String(""),
				Definition: func(v registry.Values) registry.Result {
					if isBound, _ := v.Bool("bound"); isBound {
						return registry.Val(coerce(v.Get("bind"), cty.String))
					}
					prefill := v.Get("prefill")
					if value.IsAbsent(prefill) {
						return registry.UseEssential(value.String(""))
					}
					return registry.UseEssential(coerce(prefill, cty.String))
				},
				InverseDefinition: func(req registry.InverseRequest) ([]registry.Instruction, error) {
					text := coerce(req.Desired, cty.String)
					if value.IsUnresolved(text) {
						return nil, registry.Decline("raw text must be a string")
					}
					if req.Essential {
						return []registry.Instruction{registry.SetEssential(text)}, nil
					}
					src, _ := value.AsString(text)
					parsed, err := expr.Parse(src)
					if err != nil {
						return nil, registry.Decline("bound value cannot hold unparseable text %q", src)
					}
					return []registry.Instruction{registry.Forward("bind", toBound(parsed))}, nil
				},
			},
			"value": {
				Dependencies: map[string]registry.Dependency{"raw": registry.Self("raw_text")},
				Definition: func(v registry.Values) registry.Result {
					src, _ := v.String("raw")
					if src == "" {
						return registry.Val(value.Unresolved)
					}
					parsed, err := expr.Parse(src)
					if err != nil {
						return registry.Val(value.Unresolved)
					}
					return registry.Val(value.Expr(parsed))
				},
				InverseDefinition: func(req registry.InverseRequest) ([]registry.Instruction, error) {
					text := coerce(req.Desired, cty.String)
					if value.IsUnresolved(text) {
						return nil, registry.Decline("%s is not a math value", value.Format(req.Desired))
					}
					return []registry.Instruction{registry.Forward("raw", text)}, nil
				},
			},
			"number": {
				Dependencies: map[string]registry.Dependency{"value": registry.Self("value")},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(expr.Numeric(value.AsExpression(v.Get("value")), nil))
				},
				InverseDefinition: registry.ForwardTo("value"),
			},
		},
	}
}

// toBound evaluates constant expressions so that a bound number receives a
// number; anything symbolic stays an expression.
func toBound(e *value.Expression) cty.Value {
	if len(expr.FreeVariables(e)) == 0 {
		if n := expr.Numeric(e, nil); !value.IsUnresolved(n) {
			return n
		}
	}
	return value.Expr(e)
}

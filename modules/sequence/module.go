// Package sequence registers the list-generating composites number_list,
// repeat and sequence, and the collect component that reads a variable
// across a composite's replacements.
package sequence

import (
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// MaxLength bounds the number of generated items.
const MaxLength = 1000

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the component types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(numberList())
	r.Register(repeat())
	r.Register(sequence())
	r.Register(collect())
}

// numberList is a list of number components sized by length. Each item
// keeps its own essential value; growing the list keeps the existing items.
func numberList() *registry.ComponentType {
	return &registry.ComponentType{
		Name:            "number_list",
		DefaultVariable: "values",
		Variables: map[string]*registry.Definition{
			"length": {
				Dependencies: map[string]registry.Dependency{"length": registry.Attr("length")},
				Default:      value.Int(0),
				Definition: func(v registry.Values) registry.Result {
					if value.IsAbsent(v.Get("length")) {
						return registry.UseEssential(value.Int(0))
					}
					n, ok := v.Int("length")
					if !ok {
						return registry.Val(value.Unresolved)
					}
					return registry.Val(value.Int(clamp(n)))
				},
				InverseDefinition: func(req registry.InverseRequest) ([]registry.Instruction, error) {
					n, ok := value.AsInt(req.Desired)
					if !ok || n < 0 || n > MaxLength {
						return nil, registry.Decline("length must be an integer between 0 and %d", MaxLength)
					}
					if req.Essential {
						return []registry.Instruction{registry.SetEssential(value.Int(n))}, nil
					}
					return []registry.Instruction{registry.Forward("length", value.Int(n))}, nil
				},
			},
			"item_default": {
				Dependencies: map[string]registry.Dependency{"default": registry.Attr("default")},
				Definition: func(v registry.Values) registry.Result {
					if value.IsAbsent(v.Get("default")) {
						return registry.Val(value.Number(0))
					}
					return registry.Val(v.Get("default"))
				},
			},
			"values": {
				Dependencies: map[string]registry.Dependency{"values": registry.ReplacementValues(nil, "value")},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(v.Get("values"))
				},
				InverseDefinition: writeAll("values"),
			},
		},
		Composite: &registry.CompositeDef{
			Determining: []string{"length", "item_default"},
			Plan: func(v registry.Values) (registry.Plan, error) {
				n, _ := v.Int("length")
				def := v.Get("item_default")
				return registry.Plan{
					Template: "number:" + value.Format(def),
					Mode:     registry.Repeat,
					Count:    clamp(n),
					Build: func(int) []component.ChildSpec {
						return []component.ChildSpec{component.SpecChild(component.New("number").With("default", def))}
					},
				}, nil
			},
		},
	}
}

// writeAll writes a whole list dependency element by element.
func writeAll(dep string) registry.InverseFunc {
	return func(req registry.InverseRequest) ([]registry.Instruction, error) {
		have, want := len(req.Values.List(dep)), len(value.Elements(req.Desired))
		if !value.IsList(req.Desired) || have != want {
			return nil, registry.Decline("want a list of %d values, got %s", have, value.Format(req.Desired))
		}
		return []registry.Instruction{registry.Forward(dep, req.Desired)}, nil
	}
}

// repeat instantiates its children once per for_each item. Inside, each.value
// is the item and count.index its position.
func repeat() *registry.ComponentType {
	return &registry.ComponentType{
		Name: "repeat",
		Variables: map[string]*registry.Definition{
			"items": {
				Dependencies: map[string]registry.Dependency{"for_each": registry.Attr("for_each")},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(itemsOf(v.Get("for_each")))
				},
			},
			"count": {
				Dependencies: map[string]registry.Dependency{"items": registry.Self("items")},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(value.Int(len(v.List("items"))))
				},
			},
		},
		Composite: &registry.CompositeDef{
			Determining: []string{"items"},
			Plan: func(v registry.Values) (registry.Plan, error) {
				items := v.List("items")
				if len(items) > MaxLength {
					items = items[:MaxLength]
				}
				template := v.Self.Template
				return registry.Plan{
					Template: "template",
					Mode:     registry.Repeat,
					Count:    len(items),
					Items:    items,
					Build:    func(int) []component.ChildSpec { return template },
				}, nil
			},
		},
		KeepsTemplate: registry.Always,
	}
}

// itemsOf reads for_each: a list is used as is, a number n counts 0..n-1.
func itemsOf(v cty.Value) cty.Value {
	if value.IsAbsent(v) {
		return value.List()
	}
	if value.IsList(v) {
		return v
	}
	n, ok := value.AsInt(v)
	if !ok {
		return value.Unresolved
	}
	out := make([]cty.Value, clamp(n))
	for i := range out {
		out[i] = value.Int(i)
	}
	return value.List(out...)
}

// sequence replaces itself with the numbers from, from+step, ... up to to.
func sequence() *registry.ComponentType {
	return &registry.ComponentType{
		Name:            "sequence",
		DefaultVariable: "values",
		Variables: map[string]*registry.Definition{
			"from": withDefault("from", value.Number(1)),
			"to":   withDefault("to", value.Number(1)),
			"step": withDefault("step", value.Number(1)),
			"values": {
				Dependencies: map[string]registry.Dependency{
					"from": registry.Self("from"),
					"to":   registry.Self("to"),
					"step": registry.Self("step"),
				},
				Definition: func(v registry.Values) registry.Result {
					from, okF := v.Float("from")
					to, okT := v.Float("to")
					step, okS := v.Float("step")
					if !okF || !okT || !okS || step == 0 {
						return registry.Val(value.Unresolved)
					}
					var out []cty.Value
					for x := from; (step > 0 && x <= to) || (step < 0 && x >= to); x += step {
						if len(out) == MaxLength {
							break
						}
						out = append(out, value.Number(x))
					}
					return registry.Val(value.List(out...))
				},
			},
			"count": {
				Dependencies: map[string]registry.Dependency{"values": registry.Self("values")},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(value.Int(len(v.List("values"))))
				},
			},
		},
		Composite: &registry.CompositeDef{
			Determining: []string{"values"},
			Plan: func(v registry.Values) (registry.Plan, error) {
				return registry.Plan{
					Template:   "sequence",
					Mode:       registry.Primitive,
					Count:      1,
					Primitives: v.List("values"),
				}, nil
			},
		},
	}
}

func withDefault(attr string, def cty.Value) *registry.Definition {
	return &registry.Definition{
		Dependencies: map[string]registry.Dependency{attr: registry.Attr(attr)},
		Definition: func(v registry.Values) registry.Result {
			if value.IsAbsent(v.Get(attr)) {
				return registry.Val(def)
			}
			return registry.Val(v.Get(attr))
		},
		InverseDefinition: registry.ForwardTo(attr),
	}
}

// collect reads a variable across the replacements of the composite named
// by its source attribute, such as source = "items".
func collect() *registry.ComponentType {
	return &registry.ComponentType{
		Name:            "collect",
		DefaultVariable: "values",
		Variables: map[string]*registry.Definition{
			"values": {
				DeterminedBy: map[string]registry.Dependency{
					"source":   registry.Attr("source"),
					"variable": registry.Attr("variable"),
				},
				ReturnDependencies: func(v registry.Values) map[string]registry.Dependency {
					src, ok := v.String("source")
					if !ok {
						return nil
					}
					addr, err := nodeid.Parse(src)
					if err != nil {
						return nil
					}
					variable, _ := v.String("variable")
					return map[string]registry.Dependency{"values": registry.ReplacementValues(addr, variable)}
				},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(v.Get("values"))
				},
				InverseDefinition: writeAll("values"),
			},
			"count": {
				Dependencies: map[string]registry.Dependency{"values": registry.Self("values")},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(value.Int(len(v.List("values"))))
				},
			},
		},
	}
}

func clamp(n int) int {
	return max(0, min(n, MaxLength))
}

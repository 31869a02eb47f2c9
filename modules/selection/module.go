// Package selection registers select, which shows a randomly chosen subset
// of its option children, and option.
//
// The choice comes from the document's sampler, so a document with a fixed
// seed always shows the same options. Writing any value to
// selected_indices draws a new choice.
package selection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the component types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.ComponentType{
		Name:            "select",
		DefaultVariable: "selected_indices",
		Variables: map[string]*registry.Definition{
			"number_to_select": {
				Dependencies: map[string]registry.Dependency{"n": registry.Attr("number_to_select")},
				Definition: func(v registry.Values) registry.Result {
					if value.IsAbsent(v.Get("n")) {
						return registry.Val(value.Int(1))
					}
					n, ok := v.Int("n")
					if !ok || n < 0 {
						return registry.Val(value.Unresolved)
					}
					return registry.Val(value.Int(n))
				},
			},
			"number_of_options": {
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(value.Int(len(optionsOf(v))))
				},
			},
			"selected_indices": {
				DeterminedBy: map[string]registry.Dependency{
					"count":   registry.Self("number_to_select"),
					"options": registry.Self("number_of_options"),
				},
				ReturnDependencies: func(v registry.Values) map[string]registry.Dependency {
					count, _ := v.Int("count")
					size, _ := v.Int("options")
					return map[string]registry.Dependency{"sample": registry.Sampled(size, count)}
				},
				Definition: func(v registry.Values) registry.Result {
					chosen := v.List("sample")
					out := make([]cty.Value, len(chosen))
					for i, c := range chosen {
						n, _ := value.AsInt(c)
						out[i] = value.Int(n + 1)
					}
					return registry.Val(value.List(out...))
				},
				InverseDefinition: func(req registry.InverseRequest) ([]registry.Instruction, error) {
					if !req.Values.Has("sample") {
						return nil, registry.Decline("nothing to resample")
					}
					return []registry.Instruction{registry.ResampleOf("sample")}, nil
				},
			},
		},
		Composite: &registry.CompositeDef{
			Determining: []string{"selected_indices"},
			Plan:        plan,
		},
	})
	r.Register(&registry.ComponentType{
		Name:          "option",
		KeepsTemplate: registry.Always,
	})
}

func plan(v registry.Values) (registry.Plan, error) {
	options := optionsOf(v)
	selected := v.List("selected_indices")
	names := make([]string, len(selected))
	templates := make([][]component.ChildSpec, len(selected))
	for i, s := range selected {
		n, ok := value.AsInt(s)
		if !ok || n < 1 || n > len(options) {
			return registry.Plan{}, fmt.Errorf("selected option %s of %d does not exist", value.Format(s), len(options))
		}
		names[i] = strconv.Itoa(n)
		templates[i] = options[n-1].Template
	}
	return registry.Plan{
		Template: "options:" + strings.Join(names, ","),
		Mode:     registry.Alternatives,
		Visible:  true,
		Count:    len(selected),
		Build:    func(i int) []component.ChildSpec { return templates[i] },
	}, nil
}

// optionsOf returns the option children in order.
func optionsOf(v registry.Values) []*component.Component {
	var out []*component.Component
	for _, id := range v.Self.ChildIDs() {
		if c, ok := v.Components.Lookup(id); ok && c.Type == "option" {
			out = append(out, c)
		}
	}
	return out
}

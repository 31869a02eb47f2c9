// Package conditional registers conditional_content and its case and else
// branches.
//
// Without branches, conditional_content shows its children while its
// condition holds. Hidden children are withheld, not destroyed, so what a
// user entered inside survives hiding and showing again.
//
// With case and else branches, it shows the children of the first branch
// whose condition holds. Switching branches rebuilds the content.
package conditional

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
)

var branchTypes = []string{"case", "else"}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the component types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.ComponentType{
		Name: "conditional_content",
		Variables: map[string]*registry.Definition{
			"condition": condition(),
			"selected_index": {
				Dependencies:      map[string]registry.Dependency{"conditions": registry.ChildValues("condition", branchTypes...)},
				HandlesUnresolved: true,
				Definition: func(v registry.Values) registry.Result {
					for i, c := range v.List("conditions") {
						if ok, _ := value.AsBool(c); ok {
							return registry.Val(value.Int(i))
						}
					}
					return registry.Val(value.Int(-1))
				},
			},
		},
		Composite: &registry.CompositeDef{
			Determining: []string{"condition", "selected_index"},
			Plan:        plan,
		},
		KeepsTemplate: func(spec *component.Spec) bool {
			return !hasBranches(spec)
		},
	})
	r.Register(&registry.ComponentType{
		Name: "case",
		Variables: map[string]*registry.Definition{
			"condition": condition(),
		},
		KeepsTemplate: registry.Always,
	})
	r.Register(&registry.ComponentType{
		Name: "else",
		Variables: map[string]*registry.Definition{
			"condition": {
				Definition: func(registry.Values) registry.Result { return registry.Val(value.Bool(true)) },
			},
		},
		KeepsTemplate: registry.Always,
	})
}

// condition reads the condition attribute; an absent condition is false.
func condition() *registry.Definition {
	return &registry.Definition{
		Dependencies: map[string]registry.Dependency{"condition": registry.Attr("condition")},
		Definition: func(v registry.Values) registry.Result {
			if value.IsAbsent(v.Get("condition")) {
				return registry.Val(value.Bool(false))
			}
			b, ok := v.Bool("condition")
			if !ok {
				return registry.Val(value.Unresolved)
			}
			return registry.Val(value.Bool(b))
		},
	}
}

func hasBranches(spec *component.Spec) bool {
	return slices.ContainsFunc(spec.Children, func(ch component.ChildSpec) bool {
		return ch.Spec != nil && slices.Contains(branchTypes, ch.Spec.Type)
	})
}

func plan(v registry.Values) (registry.Plan, error) {
	branches := branchesOf(v)
	if len(branches) == 0 {
		show, _ := v.Bool("condition")
		template := v.Self.Template
		return registry.Plan{
			Template: "content",
			Mode:     registry.Gated,
			Visible:  show,
			Count:    1,
			Build:    func(int) []component.ChildSpec { return template },
		}, nil
	}

	selected, _ := v.Int("selected_index")
	if selected < 0 {
		return registry.Plan{Template: "none", Mode: registry.Alternatives}, nil
	}
	if selected >= len(branches) {
		return registry.Plan{}, fmt.Errorf("selected branch %d of %d does not exist", selected, len(branches))
	}
	template := branches[selected].Template
	return registry.Plan{
		Template: fmt.Sprintf("case:%d", selected),
		Mode:     registry.Alternatives,
		Visible:  true,
		Count:    1,
		Build:    func(int) []component.ChildSpec { return template },
	}, nil
}

// branchesOf returns the case and else children in order.
func branchesOf(v registry.Values) []*component.Component {
	var out []*component.Component
	for _, id := range v.Self.ChildIDs() {
		c, ok := v.Components.Lookup(id)
		if ok && slices.Contains(branchTypes, c.Type) {
			out = append(out, c)
		}
	}
	return out
}

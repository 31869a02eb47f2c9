package evaluator

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/expr"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
)

// engineDefinition stands for the nodes computed directly by the
// evaluator. Its Definition is never called.
var engineDefinition = &registry.Definition{
	Definition: func(registry.Values) registry.Result {
		return registry.Val(value.Unresolved)
	},
}

func (e *Evaluator) definition(ctx context.Context, c *component.Component, variable string) *registry.Definition {
	if c == nil {
		if variable == registry.NamesVariable {
			return engineDefinition
		}
		return nil
	}
	switch variable {
	case registry.ChildrenVariable, registry.SampleVariable:
		return engineDefinition
	case registry.ReplacementsVariable:
		t, ok := e.reg.Lookup(c.Type)
		if !ok || t.Composite == nil {
			return nil
		}
		return e.replacementsDefinition(ctx, c, t.Composite)
	}
	if name, ok := registry.IsAttributeVariable(variable); ok {
		attr, ok := c.Attributes[name]
		if !ok {
			return nil
		}
		if attr.IsExpr() {
			return e.expressionDefinition(ctx, c, name, attr.Expr)
		}
		return &registry.Definition{
			Essential:         true,
			Default:           attr.Literal,
			InverseDefinition: registry.StoreEssential,
		}
	}
	def, ok := e.reg.Variable(c.Type, variable)
	if !ok {
		return nil
	}
	return def
}

func (e *Evaluator) replacementsDefinition(ctx context.Context, c *component.Component, comp *registry.CompositeDef) *registry.Definition {
	deps := make(map[string]registry.Dependency, len(comp.Determining))
	for _, name := range comp.Determining {
		deps[name] = registry.Self(name)
	}
	return &registry.Definition{
		Dependencies:      deps,
		HandlesUnresolved: true,
		Definition: func(v registry.Values) registry.Result {
			if e.expander == nil {
				return registry.Val(value.Unresolved)
			}
			return registry.Val(e.expander.Expand(ctx, c, v))
		},
	}
}

// expressionDefinition evaluates an attribute expression against the nodes
// its references designate. A plain reference such as `r.width` forwards
// writes to the referenced node.
func (e *Evaluator) expressionDefinition(ctx context.Context, c *component.Component, attr string, x hcl.Expression) *registry.Definition {
	deps := make(map[string]registry.Dependency)
	var refs []boundReference
	for _, t := range expr.References(x) {
		ref, ok := referenceFor(t)
		if !ok {
			continue
		}
		if _, dup := deps[ref.name]; dup {
			continue
		}
		deps[ref.name] = ref.dep
		refs = append(refs, ref)
	}

	def := &registry.Definition{
		Dependencies:      deps,
		HandlesUnresolved: true,
		Definition: func(v registry.Values) registry.Result {
			scope := expr.NewScope()
			incomplete := false
			for _, ref := range refs {
				val := v.Get(ref.name)
				if value.IsAbsent(val) || value.IsUnresolved(val) {
					incomplete = true
					val = value.Unresolved
				}
				scope.Set(ref.traversal, val)
			}
			out, diags := expr.Evaluate(x, scope.Variables())
			if diags.HasErrors() && !incomplete {
				for _, d := range diags {
					if d.Severity != hcl.DiagError {
						continue
					}
					e.diags.Add(ctx, fmt.Sprintf("expression:%s.%s:%s", c.ID, attr, d.Summary), d)
				}
			}
			return registry.Val(out)
		},
	}
	if t, ok := expr.IsPlainReference(x); ok {
		if ref, ok := referenceFor(t); ok && len(ref.traversal) == len(t) {
			name := ref.name
			def.InverseDefinition = func(req registry.InverseRequest) ([]registry.Instruction, error) {
				return []registry.Instruction{registry.Forward(name, req.Desired)}, nil
			}
		}
	}
	return def
}

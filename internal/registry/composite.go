package registry

import (
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// PlanMode selects how a composite reconciles its replacements.
type PlanMode int

const (
	// Gated keeps one fixed replacement set and only toggles its visibility.
	Gated PlanMode = iota
	// Alternatives selects one of several authored templates.
	Alternatives
	// Repeat instantiates the same template Count times.
	Repeat
	// Primitive replaces the composite with literal values.
	Primitive
)

func (m PlanMode) String() string {
	switch m {
	case Gated:
		return "gated"
	case Alternatives:
		return "alternatives"
	case Repeat:
		return "repeat"
	case Primitive:
		return "primitive"
	}
	return "unknown"
}

// Plan is the replacement set a composite requires for its current
// determining values.
type Plan struct {
	// Template identifies what the replacements are built from. A change
	// of template tears every replacement down.
	Template string
	Mode     PlanMode
	// Visible is read in Gated mode.
	Visible bool
	// Count is the number of replacement slots.
	Count int
	// Items is bound to each.value in slot i; optional.
	Items []cty.Value
	// Primitives are the literal children of a Primitive plan. Plans with
	// different literals are never the same.
	Primitives []cty.Value
	// Build returns the children of slot i.
	Build func(index int) []component.ChildSpec
}

// Item returns the each.value binding of slot i.
func (p Plan) Item(i int) cty.Value {
	if i < 0 || i >= len(p.Items) {
		return value.Int(i)
	}
	return p.Items[i]
}

// Same reports whether two plans require the identical replacement set.
func (p Plan) Same(other Plan) bool {
	if p.Template != other.Template || p.Mode != other.Mode || p.Visible != other.Visible || p.Count != other.Count {
		return false
	}
	return sameValues(p.Items, other.Items) && sameValues(p.Primitives, other.Primitives)
}

func sameValues(a, b []cty.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// CompositeDef makes a component type a composite.
type CompositeDef struct {
	// Determining lists the variables of the type that decide the plan.
	Determining []string
	// Plan computes the required replacement set. An error yields an empty
	// set and a diagnostic.
	Plan func(Values) (Plan, error)
}

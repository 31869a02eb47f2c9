package registry

import (
	"strings"

	"github.com/specialistvlad/stategrid/internal/value"
)

// Engine-maintained variables present on every component.
const (
	// ChildrenVariable holds the active children of a component after
	// composite expansion.
	ChildrenVariable = "__children"
	// ReplacementsVariable holds the replacement set of a composite.
	ReplacementsVariable = "__replacements"
	// NamesVariable is a document-level node read by every name lookup, so
	// that lookups re-resolve when components appear or disappear.
	NamesVariable = "__names"
	// SampleVariable holds the current choice of a component's sampler.
	SampleVariable = "__sample"
	// HiddenVariable is the common visibility variable driven by `hide`.
	HiddenVariable = "hidden"

	attributePrefix = "@"
)

// AttributeVariable returns the name of the node holding attribute attr.
func AttributeVariable(attr string) string {
	return attributePrefix + attr
}

// IsAttributeVariable reports whether variable is an attribute node and
// returns the attribute name.
func IsAttributeVariable(variable string) (string, bool) {
	if strings.HasPrefix(variable, attributePrefix) {
		return strings.TrimPrefix(variable, attributePrefix), true
	}
	return "", false
}

// IsEngineVariable reports whether variable is maintained by the engine
// rather than a component type.
func IsEngineVariable(variable string) bool {
	_, isAttr := IsAttributeVariable(variable)
	if isAttr {
		return true
	}
	switch variable {
	case ChildrenVariable, ReplacementsVariable, NamesVariable, SampleVariable:
		return true
	}
	return false
}

func hiddenDefinition() *Definition {
	return &Definition{
		Dependencies: map[string]Dependency{
			"hide": Attr("hide"),
		},
		Definition: func(v Values) Result {
			if value.IsAbsent(v.Get("hide")) {
				return UseEssential(value.Bool(false))
			}
			b, ok := value.AsBool(v.Get("hide"))
			if !ok {
				return Val(value.Unresolved)
			}
			return Val(value.Bool(b))
		},
		InverseDefinition: ForwardTo("hide"),
	}
}

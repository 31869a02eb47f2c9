package registry

import (
	"github.com/specialistvlad/stategrid/internal/nodeid"
)

// DependencyKind tags how a dependency is read.
type DependencyKind int

const (
	// StateVariable reads one variable of the component itself, or of
	// Component when set.
	StateVariable DependencyKind = iota
	// Attribute reads the value of an authored attribute, absent when the
	// attribute was not authored.
	Attribute
	// AttributePresent reads whether an attribute was authored.
	AttributePresent
	// Children reads Variable across the active children, as a list.
	// Literal children contribute themselves. Types filters component
	// children by type and drops literals.
	Children
	// Reference reads the variable an authored address designates.
	Reference
	// Replacements reads Variable across the replacement roots of the
	// composite named by Address, or of the component itself.
	Replacements
	// Sample reads the current value of the component's sampler.
	Sample
	// ItemValue reads each.value of the enclosing replacement.
	ItemValue
	// ItemIndex reads count.index of the enclosing replacement.
	ItemIndex
)

func (k DependencyKind) String() string {
	switch k {
	case StateVariable:
		return "state_variable"
	case Attribute:
		return "attribute"
	case AttributePresent:
		return "attribute_present"
	case Children:
		return "children"
	case Reference:
		return "reference"
	case Replacements:
		return "replacements"
	case Sample:
		return "sample"
	case ItemValue:
		return "item_value"
	case ItemIndex:
		return "item_index"
	}
	return "unknown"
}

// Dependency is one named input of a definition.
type Dependency struct {
	Kind      DependencyKind
	Component nodeid.ComponentID
	Variable  string
	Types     []string
	Address   *nodeid.Address
	// SampleSize is the number of options a Sample dependency chooses from;
	// SampleCount is how many it picks.
	SampleSize  int
	SampleCount int
}

// Self reads another variable of the same component.
func Self(variable string) Dependency {
	return Dependency{Kind: StateVariable, Variable: variable}
}

// Of reads a variable of a specific component.
func Of(id nodeid.ComponentID, variable string) Dependency {
	return Dependency{Kind: StateVariable, Component: id, Variable: variable}
}

// Attr reads an attribute value.
func Attr(name string) Dependency {
	return Dependency{Kind: Attribute, Variable: name}
}

// AttrPresent reads whether an attribute was authored.
func AttrPresent(name string) Dependency {
	return Dependency{Kind: AttributePresent, Variable: name}
}

// ChildValues reads a variable across the active children. An empty
// variable reads each child's default variable.
func ChildValues(variable string, types ...string) Dependency {
	return Dependency{Kind: Children, Variable: variable, Types: types}
}

// Ref reads the variable an address designates.
func Ref(addr *nodeid.Address) Dependency {
	return Dependency{Kind: Reference, Address: addr}
}

// ReplacementValues reads a variable across the replacements of the
// composite at addr; a nil addr means the component itself.
func ReplacementValues(addr *nodeid.Address, variable string) Dependency {
	return Dependency{Kind: Replacements, Address: addr, Variable: variable}
}

// Sampled reads a sampler choosing count of size options.
func Sampled(size, count int) Dependency {
	return Dependency{Kind: Sample, SampleSize: size, SampleCount: count}
}

// Item reads each.value.
func Item() Dependency {
	return Dependency{Kind: ItemValue}
}

// Index reads count.index.
func Index() Dependency {
	return Dependency{Kind: ItemIndex}
}

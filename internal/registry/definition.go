package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Definition describes how one state variable is derived.
//
// Dependencies are declared in two phases. The DeterminedBy dependencies are
// resolved first and handed to ReturnDependencies, whose result is the edge
// set the Definition reads. Definitions with a fixed edge set use
// Dependencies instead.
type Definition struct {
	DeterminedBy       map[string]Dependency
	ReturnDependencies func(Values) map[string]Dependency
	Dependencies       map[string]Dependency

	// Definition derives the value. Nil for pure essential variables.
	Definition func(Values) Result
	// InverseDefinition is nil when the variable cannot be written through.
	InverseDefinition InverseFunc

	// Essential marks a variable resolved from the essential store.
	Essential bool
	// Default is used for essential variables with no stored value.
	Default cty.Value
	// HandlesUnresolved lets Definition see unresolved dependencies instead
	// of resolving to Unresolved outright.
	HandlesUnresolved bool
}

// Result is what a definition returns: a value, or a request to use the
// essential value, falling back to Default.
type Result struct {
	Value        cty.Value
	UseEssential bool
	Default      cty.Value
}

// Val returns a derived value.
func Val(v cty.Value) Result {
	return Result{Value: v}
}

// UseEssential defers to the essential store, with def as the value used
// while nothing was stored.
func UseEssential(def cty.Value) Result {
	return Result{UseEssential: true, Default: def}
}

// Entry is one resolved dependency.
type Entry struct {
	Value cty.Value
	// Sources holds the producing node of the value, or of each element for
	// list dependencies. A zero key marks a literal element.
	Sources []nodeid.Key
	// Components holds the component of each element of Children and
	// Replacements dependencies, zero for literals.
	Components []nodeid.ComponentID
	// HasElement is set when the dependency reads element Element of the
	// list held by Sources[0], as in `items.value[2]`.
	HasElement bool
	Element    int
}

// Values is the resolved dependency bundle handed to a definition.
type Values struct {
	Self       *component.Component
	Components *component.Arena
	entries    map[string]Entry
}

// NewValues builds a bundle. It is used by the evaluator and by tests.
func NewValues(self *component.Component, arena *component.Arena, entries map[string]Entry) Values {
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return Values{Self: self, Components: arena, entries: entries}
}

// Get returns the value of a dependency, Unresolved when it was not
// declared.
func (v Values) Get(name string) cty.Value {
	e, ok := v.entries[name]
	if !ok || e.Value == cty.NilVal {
		return value.Unresolved
	}
	return e.Value
}

// Has reports whether a dependency was declared.
func (v Values) Has(name string) bool {
	_, ok := v.entries[name]
	return ok
}

// Entry returns the full resolution of a dependency.
func (v Values) Entry(name string) (Entry, bool) {
	e, ok := v.entries[name]
	return e, ok
}

// Names returns the sorted dependency names.
func (v Values) Names() []string {
	out := make([]string, 0, len(v.entries))
	for name := range v.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Float returns a numeric dependency.
func (v Values) Float(name string) (float64, bool) { return value.AsFloat(v.Get(name)) }

// Int returns an integer dependency.
func (v Values) Int(name string) (int, bool) { return value.AsInt(v.Get(name)) }

// Bool returns a boolean dependency.
func (v Values) Bool(name string) (bool, bool) { return value.AsBool(v.Get(name)) }

// String returns a string dependency.
func (v Values) String(name string) (string, bool) { return value.AsString(v.Get(name)) }

// Point returns a point dependency.
func (v Values) Point(name string) (float64, float64, bool) { return value.AsPoint(v.Get(name)) }

// List returns the elements of a list dependency.
func (v Values) List(name string) []cty.Value { return value.Elements(v.Get(name)) }

// IDs returns the component of each element of a list dependency.
func (v Values) IDs(name string) []nodeid.ComponentID {
	return v.entries[name].Components
}

// InverseFunc computes the instructions that would make the forward
// definition produce the desired value.
type InverseFunc func(InverseRequest) ([]Instruction, error)

// InverseRequest is the input of an inverse definition.
type InverseRequest struct {
	Desired cty.Value
	Current cty.Value
	Values  Values
	// Essential is set when the variable currently resolves from the
	// essential store.
	Essential bool
}

// Instruction asks for a dependency to take a value, or for the variable's
// own essential value to be set.
type Instruction struct {
	Dependency string
	// Element selects one element of a list dependency.
	Element      bool
	Index        int
	Value        cty.Value
	SetEssential bool
	// Resample asks the sampler behind a Sample dependency for a new choice.
	Resample bool
}

// Forward asks dependency dep to take value v.
func Forward(dep string, v cty.Value) Instruction {
	return Instruction{Dependency: dep, Value: v}
}

// ForwardElement asks element i of list dependency dep to take value v.
func ForwardElement(dep string, i int, v cty.Value) Instruction {
	return Instruction{Dependency: dep, Element: true, Index: i, Value: v}
}

// SetEssential stores v as the variable's essential value.
func SetEssential(v cty.Value) Instruction {
	return Instruction{SetEssential: true, Value: v}
}

// ResampleOf asks the sampler read through dep to resample.
func ResampleOf(dep string) Instruction {
	return Instruction{Dependency: dep, Resample: true}
}

// ErrDeclined is wrapped by errors returned from inverse definitions that
// reject the desired value.
var ErrDeclined = errors.New("inverse declined")

// Decline builds an ErrDeclined error.
func Decline(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDeclined, fmt.Sprintf(format, args...))
}

// ForwardTo is the inverse of a variable that mirrors dependency dep: an
// essential variable stores the value, a derived one forwards it.
func ForwardTo(dep string) InverseFunc {
	return func(req InverseRequest) ([]Instruction, error) {
		if req.Essential {
			return []Instruction{SetEssential(req.Desired)}, nil
		}
		return []Instruction{Forward(dep, req.Desired)}, nil
	}
}

// StoreEssential is the inverse of a variable that only ever stores what it
// is given.
func StoreEssential(req InverseRequest) ([]Instruction, error) {
	return []Instruction{SetEssential(req.Desired)}, nil
}

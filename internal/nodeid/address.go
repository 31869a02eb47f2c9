package nodeid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NoIndex marks an absent Replica or Element.
const NoIndex = -1

// Address is a parsed authored reference, `name[replica].variable[element]`.
// Only the component name is required.
type Address struct {
	Component string
	// Replica selects one replacement of a composite.
	Replica int
	// Variable is empty when the reference targets the default variable.
	Variable string
	// Element selects one element of a list value.
	Element int
}

// ComponentAddress addresses the default variable of a named component.
func ComponentAddress(name string) Address {
	return Address{Component: name, Replica: NoIndex, Element: NoIndex}
}

func (a Address) HasReplica() bool { return a.Replica != NoIndex }
func (a Address) HasElement() bool { return a.Element != NoIndex }

func (a Address) String() string {
	var sb strings.Builder
	sb.WriteString(a.Component)
	if a.HasReplica() {
		fmt.Fprintf(&sb, "[%d]", a.Replica)
	}
	if a.Variable != "" {
		sb.WriteByte('.')
		sb.WriteString(a.Variable)
		if a.HasElement() {
			fmt.Fprintf(&sb, "[%d]", a.Element)
		}
	}
	return sb.String()
}

const ident = `([a-zA-Z_][a-zA-Z0-9_-]*)`

var addressRegex = regexp.MustCompile(`^` + ident + `(?:\[(\d+)\])?(?:\.` + ident + `(?:\[(\d+)\])?)?$`)

// Parse reads the canonical string form of an address.
func Parse(raw string) (*Address, error) {
	if raw == "" {
		return nil, errors.New("reference cannot be empty")
	}
	m := addressRegex.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("invalid reference %q: want name[i].variable[j]", raw)
	}
	addr := ComponentAddress(m[1])
	addr.Variable = m[3]
	var err error
	if m[2] != "" {
		if addr.Replica, err = strconv.Atoi(m[2]); err != nil {
			return nil, fmt.Errorf("invalid replica index in %q: %w", raw, err)
		}
	}
	if m[4] != "" {
		if addr.Element, err = strconv.Atoi(m[4]); err != nil {
			return nil, fmt.Errorf("invalid element index in %q: %w", raw, err)
		}
	}
	return &addr, nil
}

// MustParse is Parse for addresses known at compile time.
func MustParse(raw string) *Address {
	addr, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

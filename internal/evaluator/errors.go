package evaluator

import (
	"strings"

	"github.com/specialistvlad/stategrid/internal/nodeid"
)

// CycleError describes a definition cycle. It is attached to the cycle
// diagnostic as its Extra value.
type CycleError struct {
	Path []nodeid.Key
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Path)+1)
	for _, k := range e.Path {
		parts = append(parts, k.String())
	}
	if len(e.Path) > 0 {
		parts = append(parts, e.Path[0].String())
	}
	return "definition cycle: " + strings.Join(parts, " -> ")
}

// DefinitionError wraps a panic raised by a definition function.
type DefinitionError struct {
	Key   nodeid.Key
	Cause any
}

func (e *DefinitionError) Error() string {
	return "definition of " + e.Key.String() + " failed"
}

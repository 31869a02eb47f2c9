package composite

import (
	"fmt"

	"github.com/specialistvlad/stategrid/internal/nodeid"
)

// ExpansionError is attached to the diagnostic raised when a composite's
// plan cannot be computed. The composite then has no replacements.
type ExpansionError struct {
	Component nodeid.ComponentID
	Type      string
	Err       error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("expanding %s %s: %v", e.Type, e.Component, e.Err)
}

func (e *ExpansionError) Unwrap() error {
	return e.Err
}

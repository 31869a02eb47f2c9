package document

import "errors"

var (
	// ErrNotFound is returned for unknown components, names and variables.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when a name matches more than one component.
	ErrAmbiguous = errors.New("ambiguous name")
)

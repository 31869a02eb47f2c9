package config

import (
	"context"

	"github.com/specialistvlad/stategrid/internal/component"
)

// Loader is the interface for a format-specific document loader.
type Loader interface {
	// Load reads the documents under the given paths and returns the root
	// component spec.
	Load(ctx context.Context, paths ...string) (*component.Spec, error)
}

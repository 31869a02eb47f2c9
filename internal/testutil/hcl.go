package testutil

import (
	"context"
	"testing"

	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/hcl_adapter"
	"github.com/stretchr/testify/require"
)

// LoadSpec parses a single document HCL string into its root spec.
func LoadSpec(t *testing.T, src string) *component.Spec {
	t.Helper()
	spec, err := hcl_adapter.NewLoader().LoadSource(ctxlog.Quiet(context.Background()), "test.hcl", []byte(src))
	require.NoError(t, err, "failed to load test document")
	return spec
}

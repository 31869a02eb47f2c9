package testutil

import (
	"errors"
	"testing"

	"github.com/specialistvlad/stategrid/internal/update"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// AssertValue checks that the named component's variable equals want under
// the engine's value equality, and reports both values formatted.
func AssertValue(t *testing.T, h *Harness, name, variable string, want cty.Value) bool {
	t.Helper()
	got := h.Get(t, name, variable)
	return assert.True(t, value.Equal(want, got), "%s.%s: want %s, got %s", name, variable, value.Format(want), value.Format(got))
}

// AssertRejected checks that err is an update rejection for the given
// reason.
func AssertRejected(t *testing.T, err error, reason update.Reason) {
	t.Helper()
	require.Error(t, err)
	var rej *update.RejectedError
	require.True(t, errors.As(err, &rej), "want a rejected update, got %v", err)
	assert.Equal(t, reason, rej.Reason, "rejection: %v", err)
}

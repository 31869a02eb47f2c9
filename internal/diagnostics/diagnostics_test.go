package diagnostics

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Dedup(t *testing.T) {
	ctx := ctxlog.Quiet(context.Background())
	c := New()
	d := &hcl.Diagnostic{Severity: hcl.DiagError, Summary: "Definition cycle"}

	assert.True(t, c.Add(ctx, "cycle:#1.a", d))
	assert.False(t, c.Add(ctx, "cycle:#1.a", d), "the same problem is recorded once")
	assert.Equal(t, 1, c.Len())

	c.Forget("cycle:#1.a")
	assert.True(t, c.Add(ctx, "cycle:#1.a", d))
	assert.Len(t, c.All(), 2)
	assert.True(t, c.All().HasErrors())
}

package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/document"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/update"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Harness is a live document built from HCL source, with its debug log
// captured.
type Harness struct {
	Ctx context.Context
	Doc *document.Document
	Log *SafeBuffer
}

// NewDocument loads src with the given registry and returns the live
// document. Set STATEGRID_TEST_LOGS=true to print the captured log.
func NewDocument(t *testing.T, reg *registry.Registry, src string, opts ...document.Option) *Harness {
	t.Helper()
	logBuffer := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	spec := LoadSpec(t, src)
	doc, err := document.New(ctx, reg, spec, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = doc.Close(ctx)
		if os.Getenv("STATEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return &Harness{Ctx: ctx, Doc: doc, Log: logBuffer}
}

// Get reads a state variable of the component with the given name.
func (h *Harness) Get(t *testing.T, name, variable string) cty.Value {
	t.Helper()
	v, err := h.Doc.GetByName(h.Ctx, name, variable)
	require.NoError(t, err, "reading %s.%s", name, variable)
	return v
}

// Set requests an update of a state variable of the named component.
func (h *Harness) Set(t *testing.T, name, variable string, desired cty.Value, opts ...update.Options) (*update.Result, error) {
	t.Helper()
	id, err := h.Doc.Lookup(name)
	require.NoError(t, err)
	var o update.Options
	if len(opts) > 0 {
		o = opts[0]
	}
	return h.Doc.RequestUpdate(h.Ctx, id, variable, desired, o)
}

// MustSet is Set for updates that must succeed.
func (h *Harness) MustSet(t *testing.T, name, variable string, desired cty.Value) *update.Result {
	t.Helper()
	res, err := h.Set(t, name, variable, desired)
	require.NoError(t, err, "updating %s.%s", name, variable)
	require.True(t, res.Success)
	return res
}

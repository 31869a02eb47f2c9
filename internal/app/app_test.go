package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/stategrid/internal/config"
	"github.com/specialistvlad/stategrid/internal/hcl_adapter"
	"github.com/specialistvlad/stategrid/internal/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rectangleDoc = `
rectangle "r" {
  center = [-3, -4]
  width  = 6
  height = -3
}
number "n" {
  default = 2
}
mathinput "m" {}
`

func newTestApp(t *testing.T, src string, settings *config.Model, sets ...string) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	var assignments []Assignment
	for _, s := range sets {
		a, err := ParseAssignment(s)
		require.NoError(t, err)
		assignments = append(assignments, a)
	}
	if settings == nil {
		settings = config.Default()
	}
	settings.Log.Level = "debug"
	cfg, err := NewConfig(Config{DocPaths: []string{path}, Sets: assignments, Settings: settings})
	require.NoError(t, err)

	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	a, err := NewApp(out, logs, cfg, hcl_adapter.NewLoader())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close()
		if os.Getenv("STATEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

func TestRun_TextOutput(t *testing.T) {
	a, out, logs := newTestApp(t, rectangleDoc, nil, "r.vertex1=[0, 0]", "n=5", "m.value=x + 1")
	require.NoError(t, a.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "rectangle r (")
	assert.Contains(t, text, "  center = [3, -1.5]")
	assert.Contains(t, text, "  value = 5")
	assert.Contains(t, text, "  value = (x + 1)")
	assert.Contains(t, logs.String(), "Interaction recorded.")
}

func TestRun_JSONOutput(t *testing.T) {
	settings := config.Default()
	settings.Output = "json"
	a, out, _ := newTestApp(t, rectangleDoc, settings, "n.value=7")
	require.NoError(t, a.Run(context.Background()))

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 7.0, got["n"]["value"])
	assert.Equal(t, 18.0, got["r"]["area"])
	assert.Nil(t, got["m"]["value"], "an empty math input is unresolved")
}

func TestRun_RejectedUpdate(t *testing.T) {
	a, out, logs := newTestApp(t, rectangleDoc, nil, "r.area=20", "n=4")
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))

	var rej *update.RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, update.NoInverse, rej.Reason)
	assert.Contains(t, out.String(), "  value = 4", "later updates still apply")
	assert.Contains(t, logs.String(), "Update rejected.")
}

func TestRun_UnknownComponent(t *testing.T) {
	a, _, _ := newTestApp(t, rectangleDoc, nil, "nope=1")
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRejected))
}

func TestRun_Diagnostics(t *testing.T) {
	a, out, _ := newTestApp(t, `
number "a" {
  value = b.value
}
number "b" {
  value = a.value
}
`, nil)
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "Definition cycle")
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in      string
		want    Assignment
		wantErr bool
	}{
		{in: "n.value=3", want: Assignment{Name: "n", Variable: "value", Source: "3"}},
		{in: "n = 3", want: Assignment{Name: "n", Variable: "value", Source: "3"}},
		{in: `t.value="a=b"`, want: Assignment{Name: "t", Variable: "value", Source: `"a=b"`}},
		{in: "n", wantErr: true},
		{in: "=3", wantErr: true},
		{in: "n.value=", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAssignment(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.Error(t, err)

	bad := config.Default()
	bad.Output = "yaml"
	_, err = NewConfig(Config{DocPaths: []string{"doc.hcl"}, Settings: bad})
	assert.Error(t, err)

	cfg, err := NewConfig(Config{DocPaths: []string{"doc.hcl"}})
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg.Settings)
}

func TestNewLogger_Fanout(t *testing.T) {
	var primary, file bytes.Buffer
	logger := newLogger("warn", "json", &primary, &file)
	logger.Info("dropped")
	logger.Warn("kept", "k", 1)

	assert.NotContains(t, primary.String(), "dropped")
	assert.Contains(t, primary.String(), `"msg":"kept"`)
	assert.Equal(t, primary.String(), file.String())
	assert.True(t, strings.HasSuffix(file.String(), "\n"))
}

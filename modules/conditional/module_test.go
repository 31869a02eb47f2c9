package conditional

import (
	"testing"

	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/document"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/testutil"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/specialistvlad/stategrid/modules/basic"
	"github.com/specialistvlad/stategrid/modules/inputs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *registry.Registry {
	return registry.New().Use(&basic.Module{}, &inputs.Module{}, &Module{})
}

// activeNames returns the names of the named components among the
// document's active top-level children.
func activeNames(t *testing.T, h *testutil.Harness) []string {
	t.Helper()
	var out []string
	for _, ch := range h.Doc.Children(h.Ctx, h.Doc.Root()) {
		if ch.Kind != component.ChildComponent {
			continue
		}
		c, ok := h.Doc.Component(ch.ID)
		require.True(t, ok)
		if c.Name != "" {
			out = append(out, c.Name)
		}
	}
	return out
}

func TestConditionalContent_PreservesStateWhileHidden(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
booleaninput "show" {}
conditional_content "cc" {
  condition = show.value
  textinput "name" {}
}
`)
	assert.Equal(t, []string{"show"}, activeNames(t, h), "hidden content is not active")

	h.MustSet(t, "show", "value", value.Bool(true))
	assert.Equal(t, []string{"show", "name"}, activeNames(t, h))
	h.MustSet(t, "name", "value", value.String("Fred"))

	nameID, err := h.Doc.Lookup("name")
	require.NoError(t, err)

	h.MustSet(t, "show", "value", value.Bool(false))
	assert.Equal(t, []string{"show"}, activeNames(t, h))

	h.MustSet(t, "show", "value", value.Bool(true))
	assert.Equal(t, []string{"show", "name"}, activeNames(t, h))
	testutil.AssertValue(t, h, "name", "value", value.String("Fred"))

	again, err := h.Doc.Lookup("name")
	require.NoError(t, err)
	assert.Equal(t, nameID, again, "the same component is shown again")
}

func TestConditionalContent_Branches(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
number "n" {
  default = 1
}
conditional_content "which" {
  case {
    condition = n.value > 2
    text "big" {
      content = ["big"]
    }
  }
  case {
    condition = n.value < 0
    text "negative" {
      content = ["negative"]
    }
  }
  else {
    text "small" {
      content = ["small"]
    }
  }
}
`)
	testutil.AssertValue(t, h, "which", "selected_index", value.Int(2))
	assert.Equal(t, []string{"n", "small"}, activeNames(t, h))

	h.MustSet(t, "n", "value", value.Number(5))
	testutil.AssertValue(t, h, "which", "selected_index", value.Int(0))
	assert.Equal(t, []string{"n", "big"}, activeNames(t, h))
	_, err := h.Doc.Lookup("small")
	assert.ErrorIs(t, err, document.ErrNotFound, "leaving a branch destroys its content")

	h.MustSet(t, "n", "value", value.Number(-1))
	assert.Equal(t, []string{"n", "negative"}, activeNames(t, h))
	testutil.AssertValue(t, h, "negative", "value", value.String("negative"))
}

func TestConditionalContent_NoBranchSelected(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
number "n" {
  default = 1
}
conditional_content "which" {
  case {
    condition = n.value > 2
    text "big" {
      content = ["big"]
    }
  }
}
`)
	testutil.AssertValue(t, h, "which", "selected_index", value.Int(-1))
	assert.Equal(t, []string{"n"}, activeNames(t, h))

	h.MustSet(t, "n", "value", value.Number(3))
	assert.Equal(t, []string{"n", "big"}, activeNames(t, h))
}

func TestConditionalContent_Subscribers(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
booleaninput "show" {}
conditional_content "cc" {
  condition = show.value
  text "t" {
    content = ["shown"]
  }
}
`)
	ccID, err := h.Doc.Lookup("cc")
	require.NoError(t, err)
	testutil.AssertValue(t, h, "cc", "condition", value.Bool(false))

	changes, cancel := h.Doc.Subscribe(ccID)
	defer cancel()
	h.MustSet(t, "show", "value", value.Bool(true))

	require.Len(t, changes, 1)
	assert.Equal(t, "condition", <-changes)
}

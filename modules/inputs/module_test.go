package inputs

import (
	"testing"

	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/testutil"
	"github.com/specialistvlad/stategrid/internal/update"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/specialistvlad/stategrid/modules/basic"
	"github.com/stretchr/testify/assert"
)

func newRegistry() *registry.Registry {
	return registry.New().Use(&basic.Module{}, &Module{})
}

func TestTextInput(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
textinput "empty" {}
textinput "name" {
  prefill = "Fred"
}
number "n" {
  default = 3
}
textinput "bound" {
  bind_value_to = n.value
}
`)
	testutil.AssertValue(t, h, "empty", "value", value.String(""))
	testutil.AssertValue(t, h, "name", "value", value.String("Fred"))
	testutil.AssertValue(t, h, "bound", "value", value.String("3"))

	h.MustSet(t, "name", "value", value.String("Ann"))
	testutil.AssertValue(t, h, "name", "value", value.String("Ann"))

	h.MustSet(t, "bound", "value", value.String("12"))
	testutil.AssertValue(t, h, "n", "value", value.Number(12))
	testutil.AssertValue(t, h, "bound", "value", value.String("12"))

	_, err := h.Set(t, "bound", "value", value.String("twelve"))
	testutil.AssertRejected(t, err, update.Downstream)
	testutil.AssertValue(t, h, "n", "value", value.Number(12))
}

func TestBooleanInput(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
booleaninput "show" {}
boolean "mirror" {
  value = show.value
}
booleaninput "checked" {
  prefill = true
}
`)
	testutil.AssertValue(t, h, "show", "value", value.Bool(false))
	testutil.AssertValue(t, h, "checked", "value", value.Bool(true))

	h.MustSet(t, "mirror", "value", value.Bool(true))
	testutil.AssertValue(t, h, "show", "value", value.Bool(true))

	_, err := h.Set(t, "show", "value", value.String("maybe"))
	testutil.AssertRejected(t, err, update.Declined)
}

func TestMathInput(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
mathinput "m" {
  prefill = "x + 1"
}
mathinput "k" {
  prefill = "2 * 3"
}
`)
	m := h.Get(t, "m", "value")
	assert.Equal(t, "(x + 1)", value.Format(m), "values are kept in canonical form")
	assert.True(t, value.IsUnresolved(h.Get(t, "m", "number")), "free variables have no numeric value")
	testutil.AssertValue(t, h, "k", "number", value.Number(6))

	t.Run("malformed text keeps the raw text", func(t *testing.T) {
		h.MustSet(t, "m", "raw_text", value.String("x +"))
		testutil.AssertValue(t, h, "m", "raw_text", value.String("x +"))
		assert.True(t, value.IsUnresolved(h.Get(t, "m", "value")))
	})

	t.Run("numbers write through the value", func(t *testing.T) {
		h.MustSet(t, "k", "number", value.Number(5))
		testutil.AssertValue(t, h, "k", "raw_text", value.String("5"))
		testutil.AssertValue(t, h, "k", "number", value.Number(5))
	})
}

func TestMathInput_Bound(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
number "n" {
  default = 2
}
mathinput "m" {
  bind_value_to = n.value
}
`)
	testutil.AssertValue(t, h, "m", "number", value.Number(2))

	h.MustSet(t, "m", "raw_text", value.String("4 + 3"))
	testutil.AssertValue(t, h, "n", "value", value.Number(7))
	testutil.AssertValue(t, h, "m", "raw_text", value.String("7"))

	_, err := h.Set(t, "m", "raw_text", value.String("4 +"))
	testutil.AssertRejected(t, err, update.Declined)
}

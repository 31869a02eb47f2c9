package sequence

import (
	"testing"

	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/testutil"
	"github.com/specialistvlad/stategrid/internal/update"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/specialistvlad/stategrid/modules/basic"
	"github.com/specialistvlad/stategrid/modules/inputs"
	"github.com/stretchr/testify/assert"
)

func newRegistry() *registry.Registry {
	return registry.New().Use(&basic.Module{}, &inputs.Module{}, &Module{})
}

func TestNumberList_GrowAndShrinkKeepItemState(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
number_list "nums" {
  length = 3
}
number "second" {
  value = nums[1].value
}
`)
	testutil.AssertValue(t, h, "nums", "values", value.Numbers(0, 0, 0))

	h.MustSet(t, "nums", "values", value.Numbers(1, 2, 3))
	testutil.AssertValue(t, h, "nums", "values", value.Numbers(1, 2, 3))
	testutil.AssertValue(t, h, "second", "value", value.Number(2))

	h.MustSet(t, "nums", "length", value.Int(5))
	testutil.AssertValue(t, h, "nums", "values", value.Numbers(1, 2, 3, 0, 0))

	h.MustSet(t, "nums", "length", value.Int(3))
	testutil.AssertValue(t, h, "nums", "values", value.Numbers(1, 2, 3))

	h.MustSet(t, "nums", "length", value.Int(5))
	testutil.AssertValue(t, h, "nums", "values", value.Numbers(1, 2, 3, 0, 0))

	h.MustSet(t, "second", "value", value.Number(9))
	testutil.AssertValue(t, h, "nums", "values", value.Numbers(1, 9, 3, 0, 0))
}

func TestNumberList_Rejections(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
number_list "nums" {
  length  = 2
  default = 5
}
`)
	testutil.AssertValue(t, h, "nums", "values", value.Numbers(5, 5))

	_, err := h.Set(t, "nums", "values", value.Numbers(1, 2, 3))
	testutil.AssertRejected(t, err, update.Declined)

	_, err = h.Set(t, "nums", "length", value.Int(-1))
	testutil.AssertRejected(t, err, update.Declined)
	testutil.AssertValue(t, h, "nums", "length", value.Int(2))
}

func TestRepeat_ItemsAndReconciliation(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
number_list "src" {
  length  = 2
  default = 7
}
repeat "r" {
  for_each = src.values
  textinput {
    prefill = each.value
  }
}
collect "inputs" {
  source = "r"
}
`)
	testutil.AssertValue(t, h, "inputs", "values", value.List(value.String("7"), value.String("7")))
	testutil.AssertValue(t, h, "r", "count", value.Int(2))

	h.MustSet(t, "inputs", "values", value.List(value.String("a"), value.String("b")))
	testutil.AssertValue(t, h, "inputs", "values", value.List(value.String("a"), value.String("b")))

	h.MustSet(t, "src", "length", value.Int(3))
	testutil.AssertValue(t, h, "inputs", "values",
		value.List(value.String("a"), value.String("b"), value.String("7")))

	h.MustSet(t, "src", "values", value.Numbers(7, 8, 7))
	testutil.AssertValue(t, h, "inputs", "values",
		value.List(value.String("7"), value.String("8"), value.String("7")))
}

func TestRepeat_CountIndex(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
repeat "idx" {
  for_each = 3
  number {
    value = count.index * 10 + each.value
  }
}
collect "tens" {
  source = "idx"
}
collect "nothing" {
  source = "missing"
}
`)
	testutil.AssertValue(t, h, "tens", "values", value.Numbers(0, 11, 22))
	testutil.AssertValue(t, h, "tens", "count", value.Int(3))
	assert.True(t, value.IsUnresolved(h.Get(t, "nothing", "values")))
}

func TestSequence(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
number "hi" {
  default = 4
}
text "joined" {
  sequence "s" {
    from = 2
    to   = hi.value
  }
}
sequence "down" {
  from = 3
  to   = 1
  step = -1
}
`)
	testutil.AssertValue(t, h, "s", "values", value.Numbers(2, 3, 4))
	testutil.AssertValue(t, h, "joined", "value", value.String("234"))
	testutil.AssertValue(t, h, "down", "values", value.Numbers(3, 2, 1))

	h.MustSet(t, "hi", "value", value.Number(6))
	testutil.AssertValue(t, h, "s", "count", value.Int(5))
	testutil.AssertValue(t, h, "joined", "value", value.String("23456"))

	h.MustSet(t, "s", "to", value.Number(2))
	testutil.AssertValue(t, h, "hi", "value", value.Number(2))
	testutil.AssertValue(t, h, "joined", "value", value.String("2"))
}

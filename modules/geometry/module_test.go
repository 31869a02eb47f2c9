package geometry

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

const rectangleDoc = `
rectangle "r" {
  center = [-3, -4]
  width  = 6
  height = -3
}
`

func TestRectangle_Vertices(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), rectangleDoc)

	testutil.AssertValue(t, h, "r", "vertex1", value.Point(-6, -2.5))
	testutil.AssertValue(t, h, "r", "vertex2", value.Point(0, -2.5))
	testutil.AssertValue(t, h, "r", "vertex3", value.Point(0, -5.5))
	testutil.AssertValue(t, h, "r", "vertex4", value.Point(-6, -5.5))
	testutil.AssertValue(t, h, "r", "area", value.Number(18))
}

func TestRectangle_MovingAVertexSolvesForTheCenter(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), rectangleDoc)

	res := h.MustSet(t, "r", "vertex1", value.Point(0, 0))

	// The first vertex sits at center - (width/2, height/2), and height is
	// negative, so the center lands below the moved vertex.
	testutil.AssertValue(t, h, "r", "center", value.Point(3, -1.5))
	testutil.AssertValue(t, h, "r", "width", value.Number(6))
	testutil.AssertValue(t, h, "r", "height", value.Number(-3))
	testutil.AssertValue(t, h, "r", "vertex1", value.Point(0, 0))
	testutil.AssertValue(t, h, "r", "vertex3", value.Point(6, -3))
	assert.NotEmpty(t, res.Changed)
}

func TestRectangle_RoundTrip(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), rectangleDoc)

	h.MustSet(t, "r", "width", value.Number(10))
	testutil.AssertValue(t, h, "r", "width", value.Number(10))
	testutil.AssertValue(t, h, "r", "vertex1", value.Point(-8, -2.5))

	h.MustSet(t, "r", "center", value.Point(1, 1))
	testutil.AssertValue(t, h, "r", "vertex1", value.Point(-4, 2.5))

	_, err := h.Set(t, "r", "vertex2", value.String("corner"))
	testutil.AssertRejected(t, err, update.Downstream)
}

func TestRectangle_Defaults(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `rectangle "r" {}`)
	testutil.AssertValue(t, h, "r", "vertex3", value.Point(0.5, 0.5))

	h.MustSet(t, "r", "vertex3", value.Point(2, 2))
	testutil.AssertValue(t, h, "r", "center", value.Point(1.5, 1.5))
}

func TestPoint(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
point "free" {}
point "p" {
  x = 1
}
rectangle "r" {
  center = [-3, -4]
  width  = 6
  height = -3
}
point "c" {
  xs = r.center
}
`)
	testutil.AssertValue(t, h, "free", "xs", value.Point(0, 0))
	testutil.AssertValue(t, h, "p", "xs", value.Point(1, 0))
	testutil.AssertValue(t, h, "c", "y", value.Number(-4))

	h.MustSet(t, "free", "x", value.Number(4))
	testutil.AssertValue(t, h, "free", "xs", value.Point(4, 0))

	h.MustSet(t, "p", "xs", value.Point(2, 0))
	testutil.AssertValue(t, h, "p", "x", value.Number(2))
	_, err := h.Set(t, "p", "y", value.Number(5))
	testutil.AssertRejected(t, err, update.Downstream)
	testutil.AssertValue(t, h, "p", "xs", value.Point(2, 0))

	h.MustSet(t, "c", "xs", value.Point(1, 1))
	testutil.AssertValue(t, h, "r", "center", value.Point(1, 1))
	testutil.AssertValue(t, h, "r", "vertex1", value.Point(-2, 2.5))
}

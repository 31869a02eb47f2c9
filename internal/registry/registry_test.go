package registry

import (
	"context"
	"testing"

	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func numberType() *ComponentType {
	return &ComponentType{
		Name:            "number",
		DefaultVariable: "value",
		Variables: map[string]*Definition{
			"value": {
				Dependencies: map[string]Dependency{"default": Attr("default")},
				Definition: func(v Values) Result {
					return UseEssential(v.Get("default"))
				},
				InverseDefinition: StoreEssential,
			},
			"double": {
				Dependencies: map[string]Dependency{"value": Self("value")},
				Definition: func(v Values) Result {
					f, ok := v.Float("value")
					if !ok {
						return Val(value.Unresolved)
					}
					return Val(value.Number(2 * f))
				},
			},
		},
	}
}

func TestRegister(t *testing.T) {
	r := New()
	r.Register(numberType())

	typ, ok := r.Lookup("number")
	require.True(t, ok)
	assert.Contains(t, typ.Variables, HiddenVariable, "the common hidden variable is added")
	assert.Equal(t, []string{"number"}, r.Types())

	assert.Panics(t, func() { r.Register(numberType()) }, "duplicate registration is a programming error")
}

func TestValidate(t *testing.T) {
	ctx := ctxlog.Quiet(context.Background())

	r := New()
	r.Register(numberType())
	require.NoError(t, r.Validate(ctx))

	broken := &ComponentType{
		Name:            "broken",
		DefaultVariable: "missing",
		Variables: map[string]*Definition{
			"a": {Dependencies: map[string]Dependency{"b": Self("nope")}, Definition: func(Values) Result { return Val(value.Number(1)) }},
			"c": {},
		},
		Composite: &CompositeDef{Determining: []string{"gone"}},
	}
	r.Register(broken)
	err := r.Validate(ctx)
	require.Error(t, err)
	for _, want := range []string{
		"default variable 'missing'",
		"determining variable 'gone'",
		"composite has no plan function",
		"variable 'c': neither a definition nor essential",
		"reads undefined variable 'nope'",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestHiddenDefinition(t *testing.T) {
	def := hiddenDefinition()

	res := def.Definition(NewValues(nil, nil, map[string]Entry{"hide": {Value: value.Absent}}))
	assert.True(t, res.UseEssential, "without a hide attribute the variable is essential")
	assert.True(t, value.Equal(value.Bool(false), res.Default))

	res = def.Definition(NewValues(nil, nil, map[string]Entry{"hide": {Value: value.String("true")}}))
	assert.True(t, value.Equal(value.Bool(true), res.Value))

	ins, err := def.InverseDefinition(InverseRequest{Desired: value.Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, []Instruction{Forward("hide", value.Bool(true))}, ins)
}

func TestValues(t *testing.T) {
	self := &component.Component{ID: 3, Type: "number"}
	v := NewValues(self, nil, map[string]Entry{
		"xs": {
			Value:      value.Numbers(1, 2),
			Sources:    []nodeid.Key{nodeid.NewKey(4, "value"), {}},
			Components: []nodeid.ComponentID{4, 0},
		},
	})

	assert.True(t, v.Has("xs"))
	assert.False(t, v.Has("ys"))
	assert.True(t, value.IsUnresolved(v.Get("ys")))
	assert.Len(t, v.List("xs"), 2)
	assert.Equal(t, []nodeid.ComponentID{4, 0}, v.IDs("xs"))
	assert.Equal(t, []string{"xs"}, v.Names())
}

func TestPlanSame(t *testing.T) {
	a := Plan{Template: "t", Mode: Repeat, Count: 2, Items: []cty.Value{value.Number(1), value.Number(2)}}
	b := a
	b.Items = []cty.Value{value.Number(1), value.Number(2)}
	assert.True(t, a.Same(b))

	b.Count = 3
	assert.False(t, a.Same(b))

	seq := Plan{Template: "seq", Mode: Primitive, Count: 1, Primitives: []cty.Value{value.Number(1), value.Number(2)}}
	longer := seq
	longer.Primitives = []cty.Value{value.Number(1), value.Number(2), value.Number(3)}
	assert.False(t, seq.Same(longer), "primitive plans differ by their literals")
	changed := seq
	changed.Primitives = []cty.Value{value.Number(1), value.Number(5)}
	assert.False(t, seq.Same(changed))
	same := seq
	same.Primitives = []cty.Value{value.Number(1), value.Number(2)}
	assert.True(t, seq.Same(same))

	assert.True(t, value.Equal(value.Int(5), Plan{}.Item(5)), "without items each.value is the index")
	assert.ErrorIs(t, Decline("bad %d", 1), ErrDeclined)
}

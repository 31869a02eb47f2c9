package evaluator

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/diagnostics"
	"github.com/specialistvlad/stategrid/internal/essential"
	"github.com/specialistvlad/stategrid/internal/graph"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseExpr is a test helper to quickly parse an HCL expression string.
func parseExpr(t *testing.T, exprStr string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(exprStr), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), "failed to parse expression: %s", diags.Error())
	return expr
}

type fixture struct {
	eval  *Evaluator
	arena *component.Arena
	graph *graph.Graph
	store *essential.Memory
	diags *diagnostics.Collector
	calls int
}

// newFixture registers a handful of small types:
//
//	cell   value mirrors the `value` attribute, essential when absent
//	sum    value adds up the default variable of every child
//	pick   out reads the attribute named by the `which` attribute
//	group  no variables
func newFixture(t *testing.T, children ...*component.Spec) (*fixture, context.Context) {
	t.Helper()
	f := &fixture{}
	reg := registry.New()
	reg.Register(&registry.ComponentType{
		Name:            "cell",
		DefaultVariable: "value",
		Variables: map[string]*registry.Definition{
			"value": {
				Dependencies:      map[string]registry.Dependency{"src": registry.Attr("value")},
				HandlesUnresolved: true,
				Definition: func(v registry.Values) registry.Result {
					f.calls++
					if value.IsAbsent(v.Get("src")) {
						return registry.UseEssential(value.Number(0))
					}
					return registry.Val(v.Get("src"))
				},
				InverseDefinition: registry.ForwardTo("src"),
			},
			"double": {
				Dependencies: map[string]registry.Dependency{"v": registry.Self("value")},
				Definition: func(v registry.Values) registry.Result {
					n, ok := v.Float("v")
					if !ok {
						return registry.Val(value.Unresolved)
					}
					return registry.Val(value.Number(2 * n))
				},
			},
			"boom": {
				Definition: func(registry.Values) registry.Result { panic("boom") },
			},
		},
	})
	reg.Register(&registry.ComponentType{
		Name:            "sum",
		DefaultVariable: "value",
		Variables: map[string]*registry.Definition{
			"value": {
				Dependencies: map[string]registry.Dependency{"items": registry.ChildValues("")},
				Definition: func(v registry.Values) registry.Result {
					total := 0.0
					for _, item := range v.List("items") {
						n, ok := value.AsFloat(item)
						if !ok {
							return registry.Val(value.Unresolved)
						}
						total += n
					}
					return registry.Val(value.Number(total))
				},
			},
		},
	})
	reg.Register(&registry.ComponentType{
		Name: "pick",
		Variables: map[string]*registry.Definition{
			"out": {
				DeterminedBy: map[string]registry.Dependency{"which": registry.Attr("which")},
				ReturnDependencies: func(v registry.Values) map[string]registry.Dependency {
					name, _ := v.String("which")
					return map[string]registry.Dependency{"x": registry.Attr(name)}
				},
				Definition: func(v registry.Values) registry.Result {
					return registry.Val(v.Get("x"))
				},
			},
		},
	})
	reg.Register(&registry.ComponentType{Name: "group"})

	f.arena = component.NewArena()
	f.graph = graph.New()
	f.store = essential.NewMemory()
	f.diags = diagnostics.New()
	f.eval = New(Config{
		Registry:    reg,
		Arena:       f.arena,
		Graph:       f.graph,
		Store:       f.store,
		Diagnostics: f.diags,
	})
	root := component.New("group")
	for _, c := range children {
		root.Append(component.SpecChild(c))
	}
	f.arena.Instantiate(root, 0, nil, nil)
	return f, ctxlog.Quiet(context.Background())
}

func (f *fixture) key(t *testing.T, name, variable string) nodeid.Key {
	t.Helper()
	ids := f.arena.ByName(name)
	require.Len(t, ids, 1, "component %q", name)
	return nodeid.NewKey(ids[0], variable)
}

func TestValue_LazyAndCached(t *testing.T) {
	f, ctx := newFixture(t, component.New("cell").Named("a").With("value", value.Number(3)))
	k := f.key(t, "a", "double")

	assert.True(t, value.Equal(value.Number(6), f.eval.Value(ctx, k)))
	assert.Equal(t, 1, f.calls)
	f.eval.Value(ctx, k)
	f.eval.Value(ctx, f.key(t, "a", "value"))
	assert.Equal(t, 1, f.calls, "fresh nodes are served from the cache")

	stale := f.graph.Invalidate(f.key(t, "a", "@value"))
	assert.Len(t, stale, 3)
	f.eval.Value(ctx, k)
	assert.Equal(t, 2, f.calls)
}

func TestValue_EssentialFallback(t *testing.T) {
	f, ctx := newFixture(t, component.New("cell").Named("a"))
	k := f.key(t, "a", "value")

	assert.True(t, value.Equal(value.Number(0), f.eval.Value(ctx, k)), "default while nothing is stored")
	assert.True(t, f.eval.IsEssential(k))

	require.NoError(t, f.store.Set(ctx, k, value.Number(7)))
	f.graph.Invalidate(k)
	assert.True(t, value.Equal(value.Number(7), f.eval.Value(ctx, k)))
}

func TestValue_LiteralAttributeIsEssential(t *testing.T) {
	f, ctx := newFixture(t, component.New("cell").Named("a").With("value", value.Number(3)))
	attr := f.key(t, "a", "@value")

	f.eval.Value(ctx, f.key(t, "a", "value"))
	assert.True(t, f.eval.IsEssential(attr))
	def := f.eval.DefinitionOf(ctx, attr)
	require.NotNil(t, def)
	assert.NotNil(t, def.InverseDefinition)
}

func TestValue_DynamicDependencies(t *testing.T) {
	f, ctx := newFixture(t, component.New("pick").Named("p").
		With("which", value.String("a")).
		With("a", value.Number(1)).
		With("b", value.Number(2)))
	out := f.key(t, "p", "out")

	assert.True(t, value.Equal(value.Number(1), f.eval.Value(ctx, out)))
	deps := f.graph.Dependencies(out)
	assert.Contains(t, deps, f.key(t, "p", "@a"))
	assert.NotContains(t, deps, f.key(t, "p", "@b"))

	require.NoError(t, f.store.Set(ctx, f.key(t, "p", "@which"), value.String("b")))
	f.graph.Invalidate(f.key(t, "p", "@which"))

	assert.True(t, value.Equal(value.Number(2), f.eval.Value(ctx, out)))
	deps = f.graph.Dependencies(out)
	assert.Contains(t, deps, f.key(t, "p", "@b"))
	assert.NotContains(t, deps, f.key(t, "p", "@a"), "edges are re-declared on every computation")
	assert.Empty(t, f.graph.Dependents(f.key(t, "p", "@a")))
}

func TestValue_AttributeExpression(t *testing.T) {
	f, ctx := newFixture(t,
		component.New("cell").Named("a").With("value", value.Number(2)),
		component.New("cell").Named("b").WithExpr("value", parseExpr(t, "a.value * 10 + 1")),
		component.New("cell").Named("c").WithExpr("value", parseExpr(t, "max(a, b.double)")),
	)

	assert.True(t, value.Equal(value.Number(21), f.eval.Value(ctx, f.key(t, "b", "value"))))
	assert.True(t, value.Equal(value.Number(42), f.eval.Value(ctx, f.key(t, "c", "value"))))

	deps := f.graph.Dependencies(f.key(t, "b", "@value"))
	assert.Contains(t, deps, f.key(t, "a", "value"))
	assert.Contains(t, deps, NamesKey, "name lookups depend on the names node")
}

func TestValue_ElementReference(t *testing.T) {
	f, ctx := newFixture(t,
		component.New("cell").Named("l").With("value", value.Numbers(1, 2, 3)),
		component.New("cell").Named("x").WithExpr("value", parseExpr(t, "l.value[1]")),
		component.New("cell").Named("y").WithExpr("value", parseExpr(t, "l.value[7]")),
	)

	assert.True(t, value.Equal(value.Number(2), f.eval.Value(ctx, f.key(t, "x", "value"))))
	assert.True(t, value.IsUnresolved(f.eval.Value(ctx, f.key(t, "y", "value"))), "out of range")

	vals, ok := f.eval.Dependencies(f.key(t, "x", "@value"))
	require.True(t, ok)
	entry, ok := vals.Entry("l.value[1]")
	require.True(t, ok)
	assert.True(t, entry.HasElement)
	assert.Equal(t, 1, entry.Element)
	assert.Equal(t, []nodeid.Key{f.key(t, "l", "value")}, entry.Sources)
}

func TestValue_UnresolvedPropagates(t *testing.T) {
	f, ctx := newFixture(t,
		component.New("cell").Named("a").WithExpr("value", parseExpr(t, "missing.value + 1")),
	)

	assert.True(t, value.IsUnresolved(f.eval.Value(ctx, f.key(t, "a", "value"))))
	assert.True(t, value.IsUnresolved(f.eval.Value(ctx, f.key(t, "a", "double"))))
	assert.Zero(t, f.diags.Len(), "unresolved inputs are not author errors")
}

func TestValue_Children(t *testing.T) {
	f, ctx := newFixture(t,
		component.New("cell").Named("a").With("value", value.Number(5)),
		component.New("sum").Named("s").Append(
			component.LitChild(value.Number(1)),
			component.SpecChild(component.New("cell").With("value", value.Number(2))),
			component.RefChild(*nodeid.MustParse("a")),
		),
	)
	k := f.key(t, "s", "value")

	assert.True(t, value.Equal(value.Number(8), f.eval.Value(ctx, k)))
	vals, ok := f.eval.Dependencies(k)
	require.True(t, ok)
	entry, _ := vals.Entry("items")
	require.Len(t, entry.Sources, 3)
	assert.Equal(t, nodeid.Key{}, entry.Sources[0], "literals have no producer")
	assert.Equal(t, f.key(t, "a", "value"), entry.Sources[2])

	require.NoError(t, f.store.Set(ctx, f.key(t, "a", "@value"), value.Number(10)))
	f.graph.Invalidate(f.key(t, "a", "@value"))
	assert.True(t, value.Equal(value.Number(13), f.eval.Value(ctx, k)))
}

func TestValue_CycleReportedOnce(t *testing.T) {
	f, ctx := newFixture(t,
		component.New("cell").Named("a").WithExpr("value", parseExpr(t, "b.value")),
		component.New("cell").Named("b").WithExpr("value", parseExpr(t, "a.value")),
	)

	assert.True(t, value.IsCircular(f.eval.Value(ctx, f.key(t, "a", "value"))))
	require.Equal(t, 1, f.diags.Len())
	diag := f.diags.All()[0]
	assert.Equal(t, "Definition cycle", diag.Summary)
	cycle, ok := diag.Extra.(*CycleError)
	require.True(t, ok)
	assert.Len(t, cycle.Path, 4)

	assert.True(t, value.IsCircular(f.eval.Value(ctx, f.key(t, "b", "value"))))
	f.eval.Value(ctx, f.key(t, "a", "value"))
	assert.Equal(t, 1, f.diags.Len(), "a cycle is reported once, not at every read")
}

func TestValue_CycleFreezes(t *testing.T) {
	f, ctx := newFixture(t,
		component.New("cell").Named("a").WithExpr("value", parseExpr(t, "b.value")),
		component.New("cell").Named("b").WithExpr("value", parseExpr(t, "a.value")),
	)
	a, b := f.key(t, "a", "value"), f.key(t, "b", "value")

	f.eval.Value(ctx, a)
	assert.True(t, f.graph.Fresh(a))
	assert.True(t, f.graph.Fresh(b))
	calls := f.calls

	assert.True(t, value.IsCircular(f.eval.Value(ctx, b)))
	assert.True(t, value.IsCircular(f.eval.Value(ctx, a)))
	assert.Equal(t, calls, f.calls, "frozen members are served from the cache")

	f.graph.Invalidate(f.key(t, "b", "@value"))
	assert.False(t, f.graph.Fresh(a), "invalidating a member thaws the cycle")
	assert.True(t, value.IsCircular(f.eval.Value(ctx, a)))
	assert.Greater(t, f.calls, calls)
}

func TestValue_DefinitionPanic(t *testing.T) {
	f, ctx := newFixture(t, component.New("cell").Named("a"))

	assert.True(t, value.IsUnresolved(f.eval.Value(ctx, f.key(t, "a", "boom"))))
	require.Equal(t, 1, f.diags.Len())
	assert.Equal(t, "Definition failed", f.diags.All()[0].Summary)
}

func TestValue_MissingNodes(t *testing.T) {
	f, ctx := newFixture(t, component.New("cell").Named("a"))

	assert.True(t, value.IsAbsent(f.eval.Value(ctx, nodeid.NewKey(99, "value"))), "unknown component")
	assert.True(t, value.IsUnresolved(f.eval.Value(ctx, f.key(t, "a", "nope"))), "unknown variable")
	assert.Nil(t, f.eval.DefinitionOf(ctx, f.key(t, "a", "@value")), "attribute was not authored")
}

func TestReferenceFor(t *testing.T) {
	tests := []struct {
		src  string
		name string
		kind registry.DependencyKind
		addr string
	}{
		{src: "each.value.x", name: "each.value", kind: registry.ItemValue},
		{src: "count.index", name: "count.index", kind: registry.ItemIndex},
		{src: "r", name: "r", kind: registry.Reference, addr: "r"},
		{src: "r.width", name: "r.width", kind: registry.Reference, addr: "r.width"},
		{src: "list1[1].value", name: "list1[1].value", kind: registry.Reference, addr: "list1[1].value"},
		{src: "p.xs[0]", name: "p.xs[0]", kind: registry.Reference, addr: "p.xs[0]"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			x := parseExpr(t, tc.src)
			refs := x.Variables()
			require.Len(t, refs, 1)
			ref, ok := referenceFor(refs[0])
			require.True(t, ok)
			assert.Equal(t, tc.name, ref.name)
			assert.Equal(t, tc.kind, ref.dep.Kind)
			if tc.addr != "" {
				assert.Equal(t, tc.addr, ref.dep.Address.String())
			}
		})
	}
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package value

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func mustExpr(t *testing.T, src string) *Expression {
	t.Helper()
	syntax, diags := hclsyntax.ParseExpression([]byte(src), "test", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return NewExpression(src, syntax)
}

func TestEqual(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		a, b cty.Value
		want bool
	}{
		{"unresolved equals unresolved", Unresolved, cty.UnknownVal(cty.Number), true},
		{"unresolved differs from number", Unresolved, Number(1), false},
		{"circular differs from unresolved", Circular, Unresolved, false},
		{"numbers by value", Number(2), Int(2), true},
		{"different numbers", Number(2), Number(2.5), false},
		{"strings", String("a"), String("a"), true},
		{"string vs number", String("1"), Number(1), false},
		{"lists element-wise", Point(1, 2), Numbers(1, 2), true},
		{"lists differ in length", Numbers(1), Numbers(1, 2), false},
		{"mixed lists", List(String("a"), Number(1)), List(String("a"), Int(1)), true},
		{"partly unresolved lists", List(Number(1), Unresolved), List(Number(2), Unresolved), false},
		{"partly unresolved lists match", List(Number(1), Unresolved), List(Int(1), Unresolved), true},
		{"absent equals absent", Absent, cty.NullVal(cty.String), true},
		{"absent vs zero", Absent, Number(0), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Equal(tc.a, tc.b))
			assert.Equal(t, tc.want, Equal(tc.b, tc.a))
		})
	}
}

func TestExpressionEquality(t *testing.T) {
	t.Parallel()
	a := Expr(mustExpr(t, "x+1"))
	b := Expr(mustExpr(t, "(x + 1)"))
	c := Expr(mustExpr(t, "1 + x"))

	assert.True(t, Equal(a, b), "whitespace and redundant parentheses are not structural")
	assert.False(t, Equal(a, c), "operand order is structural")
	assert.True(t, a.RawEquals(b), "capsule equality uses the canonical form")
}

func TestExprType(t *testing.T) {
	t.Parallel()
	require.True(t, ExprType.IsCapsuleType())
	v := Expr(mustExpr(t, "2*x"))
	assert.True(t, v.Type().Equals(ExprType))
	assert.Equal(t, `value.Expr("(2 * x)")`, v.GoString())
	assert.Equal(t, "value.ExprType", ExprType.GoString())
	assert.True(t, v.Equals(Expr(mustExpr(t, "2 * x"))).True())
}

func TestRender(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		src  string
		want string
	}{
		{"1+2*3", "(1 + (2 * 3))"},
		{"(1+2)*3", "((1 + 2) * 3)"},
		{"-x", "-x"},
		{"max(a, 2.50)", "max(a, 2.5)"},
		{"a.b[0]", "a.b[0]"},
		{"c ? 1 : 2", "(c ? 1 : 2)"},
		{"[1, \"s\"]", "[1, \"s\"]"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, mustExpr(t, tc.src).Canonical())
		})
	}
}

func TestCircular(t *testing.T) {
	t.Parallel()
	assert.True(t, IsCircular(Circular))
	assert.True(t, IsUnresolved(Circular))
	assert.False(t, IsCircular(Unresolved))

	cleaned := Clean(Circular)
	assert.False(t, IsCircular(cleaned))
	assert.True(t, IsUnresolved(cleaned))

	list := List(Number(1), Circular)
	assert.True(t, IsUnresolved(list))
	assert.False(t, list.ContainsMarked(), "list elements are cleaned")
}

func TestAccessors(t *testing.T) {
	t.Parallel()

	f, ok := AsFloat(Number(-2.5))
	assert.True(t, ok)
	assert.Equal(t, -2.5, f)

	_, ok = AsFloat(String("x"))
	assert.False(t, ok)
	_, ok = AsFloat(Unresolved)
	assert.False(t, ok)

	i, ok := AsInt(Number(3.9))
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	b, ok := AsBool(String("true"))
	assert.True(t, ok)
	assert.True(t, b)
	b, ok = AsBool(Number(0))
	assert.True(t, ok)
	assert.False(t, b)

	x, y, ok := AsPoint(Point(-3, -4))
	assert.True(t, ok)
	assert.Equal(t, []float64{-3, -4}, []float64{x, y})
	_, _, ok = AsPoint(Numbers(1, 2, 3))
	assert.False(t, ok)

	n, ok := Len(Numbers(1, 2, 3))
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.True(t, IsUnresolved(Index(Numbers(1), 5)))

	replaced, ok := Replace(Numbers(1, 2, 3), 1, Number(9))
	assert.True(t, ok)
	assert.True(t, Equal(Numbers(1, 9, 3), replaced))
	assert.Equal(t, -1, Sign(Number(-0.5)))
}

func TestFormat(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		in   cty.Value
		want string
	}{
		{"number", Number(-2.5), "-2.5"},
		{"integer", Int(6), "6"},
		{"string", String("Fred"), "Fred"},
		{"bool", Bool(true), "true"},
		{"point", Point(-6, -2.5), "[-6, -2.5]"},
		{"list with strings", List(String("a"), Number(1)), `["a", 1]`},
		{"unresolved", Unresolved, "<unresolved>"},
		{"circular", Circular, "<circular>"},
		{"absent", Absent, "<absent>"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.in))
		})
	}
	assert.Equal(t, "(x + 1)", Format(Expr(mustExpr(t, "x+1"))))
}

func TestGoRoundTrip(t *testing.T) {
	t.Parallel()
	in := []any{1.5, "a", true, []any{2.0}}
	v, err := FromGo(in)
	require.NoError(t, err)

	out, err := ToGo(v)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = ToGo(Unresolved)
	require.NoError(t, err)
	assert.Nil(t, out)
}

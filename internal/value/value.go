// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package value

import (
	"github.com/zclconf/go-cty/cty"
)

// circularMark is the cty mark attached to the DefinitionCycle sentinel.
type circularMark struct{}

var (
	// Unresolved is the value of anything that cannot currently be computed.
	Unresolved = cty.DynamicVal
	// Circular is the sentinel a node resolves to when it depends on itself.
	Circular = cty.DynamicVal.Mark(circularMark{})
	// Absent is the value of an attribute that was not authored.
	Absent = cty.NullVal(cty.DynamicPseudoType)
)

// IsUnresolved reports whether v is not wholly known. Circular values are
// unresolved too.
func IsUnresolved(v cty.Value) bool {
	if v == cty.NilVal {
		return true
	}
	return !v.IsWhollyKnown()
}

// IsCircular reports whether v is the DefinitionCycle sentinel.
func IsCircular(v cty.Value) bool {
	if v == cty.NilVal {
		return false
	}
	return v.HasMark(circularMark{})
}

// IsAbsent reports whether v is a known null.
func IsAbsent(v cty.Value) bool {
	return v != cty.NilVal && v.IsKnown() && v.IsNull()
}

// Clean strips engine marks so that a value can flow into a dependent. The
// circular sentinel becomes a plain unresolved value: only the node that
// closes a cycle is frozen at the sentinel.
func Clean(v cty.Value) cty.Value {
	if v == cty.NilVal {
		return Unresolved
	}
	if !v.ContainsMarked() {
		return v
	}
	if IsCircular(v) {
		return Unresolved
	}
	unmarked, _ := v.UnmarkDeep()
	return unmarked
}

// Number builds a numeric value.
func Number(f float64) cty.Value {
	return cty.NumberFloatVal(f)
}

// Int builds a numeric value from an integer.
func Int(i int) cty.Value {
	return cty.NumberIntVal(int64(i))
}

// String builds a string value.
func String(s string) cty.Value {
	return cty.StringVal(s)
}

// Bool builds a boolean value.
func Bool(b bool) cty.Value {
	return cty.BoolVal(b)
}

// List builds a list value. Elements are cleaned of engine marks.
func List(elems ...cty.Value) cty.Value {
	if len(elems) == 0 {
		return cty.EmptyTupleVal
	}
	cleaned := make([]cty.Value, len(elems))
	for i, e := range elems {
		cleaned[i] = Clean(e)
	}
	return cty.TupleVal(cleaned)
}

// Point builds a two-dimensional point.
func Point(x, y float64) cty.Value {
	return List(Number(x), Number(y))
}

// Numbers builds a list of numbers.
func Numbers(fs ...float64) cty.Value {
	elems := make([]cty.Value, len(fs))
	for i, f := range fs {
		elems[i] = Number(f)
	}
	return List(elems...)
}

// AsFloat returns the numeric payload of v.
func AsFloat(v cty.Value) (float64, bool) {
	if IsUnresolved(v) || v.IsNull() {
		return 0, false
	}
	v, _ = v.Unmark()
	if v.Type() != cty.Number {
		return 0, false
	}
	f, _ := v.AsBigFloat().Float64()
	return f, true
}

// AsInt returns the numeric payload of v truncated to an int.
func AsInt(v cty.Value) (int, bool) {
	if IsUnresolved(v) || v.IsNull() {
		return 0, false
	}
	v, _ = v.Unmark()
	if v.Type() != cty.Number {
		return 0, false
	}
	i, _ := v.AsBigFloat().Int64()
	return int(i), true
}

// AsBool returns the boolean payload of v. Numbers are truthy when non-zero
// and the strings "true"/"false" are accepted, which is how authored
// conditions are usually written.
func AsBool(v cty.Value) (bool, bool) {
	if IsUnresolved(v) || v.IsNull() {
		return false, false
	}
	v, _ = v.Unmark()
	switch v.Type() {
	case cty.Bool:
		return v.True(), true
	case cty.Number:
		return v.AsBigFloat().Sign() != 0, true
	case cty.String:
		switch v.AsString() {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// AsString returns the string payload of v. Numbers and booleans are
// rendered the way Format renders them.
func AsString(v cty.Value) (string, bool) {
	if IsUnresolved(v) || v.IsNull() {
		return "", false
	}
	v, _ = v.Unmark()
	switch v.Type() {
	case cty.String:
		return v.AsString(), true
	case cty.Number, cty.Bool:
		return Format(v), true
	}
	if IsExpression(v) {
		return Format(v), true
	}
	return "", false
}

// AsPoint returns the coordinates of a two-element numeric list.
func AsPoint(v cty.Value) (float64, float64, bool) {
	if n, ok := Len(v); !ok || n != 2 {
		return 0, 0, false
	}
	x, okX := AsFloat(Index(v, 0))
	y, okY := AsFloat(Index(v, 1))
	return x, y, okX && okY
}

// IsList reports whether v is a known list. Its elements may be unresolved.
func IsList(v cty.Value) bool {
	if v == cty.NilVal || !v.IsKnown() || v.IsNull() {
		return false
	}
	ty := v.Type()
	return ty.IsTupleType() || ty.IsListType()
}

// Len returns the number of elements of a list value.
func Len(v cty.Value) (int, bool) {
	if !IsList(v) {
		return 0, false
	}
	v, _ = v.Unmark()
	return v.LengthInt(), true
}

// Elements returns the elements of a list value, or nil.
func Elements(v cty.Value) []cty.Value {
	if !IsList(v) {
		return nil
	}
	v, _ = v.Unmark()
	out := make([]cty.Value, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, e := it.Element()
		out = append(out, e)
	}
	return out
}

// Index returns element i of a list value, or Unresolved when out of range.
func Index(v cty.Value, i int) cty.Value {
	elems := Elements(v)
	if i < 0 || i >= len(elems) {
		return Unresolved
	}
	return elems[i]
}

// Replace returns a copy of the list v with element i set to elem.
func Replace(v cty.Value, i int, elem cty.Value) (cty.Value, bool) {
	elems := Elements(v)
	if i < 0 || i >= len(elems) {
		return Unresolved, false
	}
	elems[i] = elem
	return List(elems...), true
}

// Equal is the engine's structural equality. Unresolved equals unresolved,
// numbers compare numerically, lists element-wise and expressions by their
// canonical rendering.
func Equal(a, b cty.Value) bool {
	if IsList(a) && IsList(b) {
		ea, eb := Elements(a), Elements(b)
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if !Equal(ea[i], eb[i]) {
				return false
			}
		}
		return true
	}
	if IsUnresolved(a) || IsUnresolved(b) {
		return IsUnresolved(a) && IsUnresolved(b) && IsCircular(a) == IsCircular(b)
	}
	a, b = Clean(a), Clean(b)
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if IsList(a) || IsList(b) {
		return false
	}
	if a.Type() == cty.Number && b.Type() == cty.Number {
		fa, _ := a.AsBigFloat().Float64()
		fb, _ := b.AsBigFloat().Float64()
		return fa == fb
	}
	if IsExpression(a) && IsExpression(b) {
		return AsExpression(a).Canonical() == AsExpression(b).Canonical()
	}
	if !a.Type().Equals(b.Type()) {
		return false
	}
	return a.RawEquals(b)
}

// Sign returns -1, 0 or 1 for numeric values, and 0 otherwise.
func Sign(v cty.Value) int {
	f, ok := AsFloat(v)
	switch {
	case !ok || f == 0:
		return 0
	case f < 0:
		return -1
	}
	return 1
}

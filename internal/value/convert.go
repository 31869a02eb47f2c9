// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// FromGo converts a native Go value into a Value. Slices of any become
// lists with heterogeneous elements; other types go through gocty's implied
// type.
func FromGo(in any) (cty.Value, error) {
	switch v := in.(type) {
	case nil:
		return Absent, nil
	case cty.Value:
		return v, nil
	case *Expression:
		return Expr(v), nil
	case float64:
		return Number(v), nil
	case int:
		return Int(v), nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case []float64:
		return Numbers(v...), nil
	case []any:
		elems := make([]cty.Value, len(v))
		for i, e := range v {
			ev, err := FromGo(e)
			if err != nil {
				return Unresolved, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return List(elems...), nil
	}
	ty, err := gocty.ImpliedType(in)
	if err != nil {
		return Unresolved, fmt.Errorf("cannot convert %T: %w", in, err)
	}
	return gocty.ToCtyValue(in, ty)
}

// MustFromGo is FromGo for literals known to be convertible.
func MustFromGo(in any) cty.Value {
	v, err := FromGo(in)
	if err != nil {
		panic(err)
	}
	return v
}

// ToGo converts a Value into a plain Go value suitable for logging and JSON
// output. Unresolved and absent values become nil.
func ToGo(val cty.Value) (any, error) {
	if val == cty.NilVal || !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	val, _ = val.Unmark()
	if IsExpression(val) {
		return AsExpression(val).Canonical(), nil
	}
	if val.Type().IsPrimitiveType() {
		switch val.Type() {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", val.Type().FriendlyName())
		}
	}
	if val.Type().IsObjectType() || val.Type().IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			goVal, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = goVal
		}
		return out, nil
	}
	if IsList(val) {
		out := make([]any, 0, val.LengthInt())
		for _, e := range Elements(val) {
			goVal, err := ToGo(e)
			if err != nil {
				return nil, err
			}
			out = append(out, goVal)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type: %s", val.Type().FriendlyName())
}

// Format renders v for humans: logs, CLI output and diagnostics.
func Format(v cty.Value) string {
	if v == cty.NilVal {
		return "<unresolved>"
	}
	if IsCircular(v) {
		return "<circular>"
	}
	v, _ = v.UnmarkDeep()
	if !v.IsKnown() {
		return "<unresolved>"
	}
	if v.IsNull() {
		return "<absent>"
	}
	if IsExpression(v) {
		return AsExpression(v).Canonical()
	}
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case cty.String:
		return v.AsString()
	case cty.Bool:
		return strconv.FormatBool(v.True())
	}
	if IsList(v) {
		parts := make([]string, 0, v.LengthInt())
		for _, e := range Elements(v) {
			parts = append(parts, formatElement(e))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	if v.Type().IsObjectType() || v.Type().IsMapType() {
		m := v.AsValueMap()
		parts := make([]string, 0, len(m))
		for _, k := range sortedKeys(m) {
			parts = append(parts, k+" = "+formatElement(m[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return v.GoString()
}

func formatElement(v cty.Value) string {
	if v.IsKnown() && !v.IsNull() && v.Type() == cty.String {
		return strconv.Quote(v.AsString())
	}
	return Format(v)
}

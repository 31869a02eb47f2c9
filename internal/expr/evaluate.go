package expr

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Functions is the function table available to every expression.
var Functions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"int":    stdlib.IntFunc,
	"log":    stdlib.LogFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"pow":    stdlib.PowFunc,
	"signum": stdlib.SignumFunc,
	"upper":  stdlib.UpperFunc,
	"lower":  stdlib.LowerFunc,
	"length": stdlib.LengthFunc,
	"concat": stdlib.ConcatFunc,
	"format": stdlib.FormatFunc,
}

// EvalContext builds an hcl evaluation context over the given variables.
func EvalContext(vars map[string]cty.Value) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: vars,
		Functions: Functions,
	}
}

// Evaluate evaluates e with vars bound. Any error diagnostic yields
// Unresolved, as does an unknown operand.
func Evaluate(e hcl.Expression, vars map[string]cty.Value) (cty.Value, hcl.Diagnostics) {
	if e == nil {
		return value.Unresolved, nil
	}
	v, diags := e.Value(EvalContext(vars))
	if diags.HasErrors() {
		return value.Unresolved, diags
	}
	return value.Clean(v), diags
}

// Numeric evaluates a symbolic expression to a value. Free variables that
// are not bound make the result unresolved.
func Numeric(e *value.Expression, vars map[string]cty.Value) cty.Value {
	if e == nil || e.Syntax == nil {
		return value.Unresolved
	}
	bound := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		bound[k] = v
	}
	for _, name := range FreeVariables(e) {
		if _, ok := bound[name]; !ok {
			bound[name] = value.Unresolved
		}
	}
	v, _ := Evaluate(e.Syntax, bound)
	return v
}

package expr

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/stategrid/internal/value"
)

// Parse parses user input into a symbolic expression.
func Parse(src string) (*value.Expression, error) {
	syntax, diags := hclsyntax.ParseExpression([]byte(src), "input", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse expression %q: %w", src, diags)
	}
	return value.NewExpression(src, syntax), nil
}

// Canonical returns the canonical rendering used for structural equality.
func Canonical(e *value.Expression) string {
	return e.Canonical()
}

// FreeVariables returns the sorted root names referenced by e.
func FreeVariables(e *value.Expression) []string {
	if e == nil || e.Syntax == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, t := range hclsyntax.Variables(e.Syntax) {
		seen[t.RootName()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

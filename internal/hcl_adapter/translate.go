package hcl_adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/expr"
	"github.com/specialistvlad/stategrid/internal/nodeid"
)

// ContentAttribute lists the literal and reference children of a block.
const ContentAttribute = "content"

// positioned is a child together with where it was written.
type positioned struct {
	pos   hcl.Pos
	child component.ChildSpec
}

func (l *Loader) translateInto(ctx context.Context, root *component.Spec, f *hcl.File) error {
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("unsupported HCL body %T", f.Body)
	}
	return l.translateBody(ctx, root, body)
}

// translateBody fills spec from an HCL body.
func (l *Loader) translateBody(ctx context.Context, spec *component.Spec, body *hclsyntax.Body) error {
	var diags hcl.Diagnostics
	var children []positioned

	names := make([]string, 0, len(body.Attributes))
	for name := range body.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attr := body.Attributes[name]
		if name == ContentAttribute {
			items, d := translateContent(attr.Expr)
			diags = append(diags, d...)
			children = append(children, items...)
			continue
		}
		a, d := translateAttribute(attr.Expr)
		diags = append(diags, d...)
		if !d.HasErrors() {
			if spec.Attributes == nil {
				spec.Attributes = make(map[string]component.Attribute)
			}
			spec.Attributes[name] = a
		}
	}

	for _, block := range body.Blocks {
		child, err := l.translateBlock(ctx, block)
		if err != nil {
			return err
		}
		children = append(children, positioned{pos: block.TypeRange.Start, child: component.SpecChild(child)})
	}
	if diags.HasErrors() {
		return diags
	}

	sort.SliceStable(children, func(i, j int) bool {
		return children[i].pos.Byte < children[j].pos.Byte
	})
	for _, c := range children {
		spec.Append(c.child)
	}
	return nil
}

func (l *Loader) translateBlock(ctx context.Context, block *hclsyntax.Block) (*component.Spec, error) {
	if len(block.Labels) > 1 {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Too many block labels",
			Detail:   fmt.Sprintf("A %s block takes at most one label, its component name.", block.Type),
			Subject:  block.LabelRanges[1].Ptr(),
		}}
	}
	spec := component.New(block.Type)
	if len(block.Labels) == 1 {
		spec.Named(block.Labels[0])
	}
	ctxlog.FromContext(ctx).Debug("Translating HCL block.", "type", block.Type, "name", spec.Name)
	if err := l.translateBody(ctx, spec, block.Body); err != nil {
		return nil, err
	}
	return spec, nil
}

// translateAttribute keeps expressions that reference other components and
// evaluates the rest once, at load time.
func translateAttribute(e hclsyntax.Expression) (component.Attribute, hcl.Diagnostics) {
	if len(expr.References(e)) > 0 {
		return component.ExprAttr(e), nil
	}
	v, diags := expr.Evaluate(e, nil)
	if diags.HasErrors() {
		return component.Attribute{}, diags
	}
	return component.Lit(v), nil
}

// translateContent turns a content list into children. Each item is a
// literal or a plain reference such as `n`, `r.width` or `l.value[2]`.
func translateContent(e hclsyntax.Expression) ([]positioned, hcl.Diagnostics) {
	items := []hclsyntax.Expression{e}
	if tuple, ok := e.(*hclsyntax.TupleConsExpr); ok {
		items = tuple.Exprs
	}
	var out []positioned
	var diags hcl.Diagnostics
	for _, item := range items {
		pos := item.Range().Start
		if t, ok := expr.IsPlainReference(item); ok {
			addr, err := nodeid.Parse(expr.TraversalKey(t))
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid content reference",
					Detail:   err.Error(),
					Subject:  item.Range().Ptr(),
				})
				continue
			}
			out = append(out, positioned{pos: pos, child: component.RefChild(*addr)})
			continue
		}
		if len(expr.References(item)) > 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported content item",
				Detail:   "Content items are literals or plain references. Wrap computed values in a component, such as number { value = ... }.",
				Subject:  item.Range().Ptr(),
			})
			continue
		}
		v, d := expr.Evaluate(item, nil)
		if d.HasErrors() {
			diags = append(diags, d...)
			continue
		}
		out = append(out, positioned{pos: pos, child: component.LitChild(v)})
	}
	return out, diags
}

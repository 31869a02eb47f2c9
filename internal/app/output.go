package app

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/document"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// componentState is the reported state of one active component.
type componentState struct {
	Label     string
	Name      string
	Depth     int
	Variables []string
	Values    map[string]cty.Value
}

// snapshot reads every variable of every active component, depth first in
// document order.
func snapshot(ctx context.Context, doc *document.Document) ([]componentState, error) {
	var out []componentState
	var walk func(id nodeid.ComponentID, depth int) error
	walk = func(id nodeid.ComponentID, depth int) error {
		for _, ch := range doc.Children(ctx, id) {
			if ch.Kind != component.ChildComponent {
				continue
			}
			c, ok := doc.Component(ch.ID)
			if !ok {
				continue
			}
			st := componentState{
				Label:     c.Label(),
				Name:      c.Name,
				Depth:     depth,
				Variables: doc.Variables(c.ID),
				Values:    make(map[string]cty.Value),
			}
			for _, name := range st.Variables {
				v, err := doc.GetValue(ctx, c.ID, name)
				if err != nil {
					return fmt.Errorf("reading %s.%s: %w", st.Label, name, err)
				}
				st.Values[name] = v
			}
			out = append(out, st)
			if err := walk(c.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return out, walk(doc.Root(), 0)
}

func writeText(w io.Writer, states []componentState) error {
	for _, st := range states {
		indent := ""
		for range st.Depth {
			indent += "  "
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, st.Label); err != nil {
			return err
		}
		for _, name := range st.Variables {
			if _, err := fmt.Fprintf(w, "%s  %s = %s\n", indent, name, value.Format(st.Values[name])); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeJSON writes one object per named component, keyed by name.
// Unnamed components are left out.
func writeJSON(w io.Writer, states []componentState) error {
	obj := make(map[string]cty.Value)
	for _, st := range states {
		if st.Name == "" {
			continue
		}
		vars := make(map[string]cty.Value, len(st.Values))
		for name, v := range st.Values {
			vars[name] = jsonable(v)
		}
		obj[st.Name] = cty.ObjectVal(vars)
	}
	data, err := ctyjson.SimpleJSONValue{Value: cty.ObjectVal(obj)}.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// jsonable replaces values JSON cannot hold: expressions become their
// canonical text and unresolved values become null.
func jsonable(v cty.Value) cty.Value {
	switch {
	case value.IsUnresolved(v) || value.IsAbsent(v):
		return cty.NullVal(cty.String)
	case value.IsExpression(v):
		return cty.StringVal(value.Format(v))
	case value.IsList(v):
		elems := value.Elements(v)
		out := make([]cty.Value, len(elems))
		for i, e := range elems {
			out[i] = jsonable(e)
		}
		return cty.TupleVal(out)
	}
	return v
}

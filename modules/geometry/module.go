// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package geometry registers the point and rectangle component types.
//
// A rectangle is parametrised by its center, width and height; its
// vertices are derived. Dragging a vertex moves the rectangle: the inverse
// solves for a new center and leaves width and height alone.
package geometry

import (
	"fmt"
	"math"

	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the component types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(point())
	r.Register(rectangle())
}

func point() *registry.ComponentType {
	return &registry.ComponentType{
		Name:            "point",
		DefaultVariable: "xs",
		Variables: map[string]*registry.Definition{
			"xs": {
				Dependencies: map[string]registry.Dependency{
					"xs": registry.Attr("xs"),
					"x":  registry.Attr("x"),
					"y":  registry.Attr("y"),
				},
				Default: value.Point(0, 0),
				Definition: func(v registry.Values) registry.Result {
					if xs := v.Get("xs"); !value.IsAbsent(xs) {
						if _, _, ok := value.AsPoint(xs); !ok {
							return registry.Val(value.Unresolved)
						}
						return registry.Val(xs)
					}
					x, y := v.Get("x"), v.Get("y")
					if value.IsAbsent(x) && value.IsAbsent(y) {
						return registry.UseEssential(value.Point(0, 0))
					}
					return registry.Val(value.List(orZero(x), orZero(y)))
				},
				InverseDefinition: func(req registry.InverseRequest) ([]registry.Instruction, error) {
					x, y, ok := value.AsPoint(req.Desired)
					if !ok {
						return nil, registry.Decline("a point needs two numbers, got %s", value.Format(req.Desired))
					}
					if req.Essential {
						return []registry.Instruction{registry.SetEssential(value.Point(x, y))}, nil
					}
					if !value.IsAbsent(req.Values.Get("xs")) {
						return []registry.Instruction{registry.Forward("xs", value.Point(x, y))}, nil
					}
					var out []registry.Instruction
					for _, c := range []struct {
						name string
						want float64
					}{{"x", x}, {"y", y}} {
						if !value.IsAbsent(req.Values.Get(c.name)) {
							out = append(out, registry.Forward(c.name, value.Number(c.want)))
						} else if c.want != 0 {
							return nil, registry.Decline("point has no %s attribute to move", c.name)
						}
					}
					return out, nil
				},
			},
			"x": coordinate(0),
			"y": coordinate(1),
		},
	}
}

func orZero(v cty.Value) cty.Value {
	if value.IsAbsent(v) {
		return value.Number(0)
	}
	return v
}

// coordinate reads one coordinate of xs; writing it keeps the other one.
func coordinate(i int) *registry.Definition {
	return &registry.Definition{
		Dependencies: map[string]registry.Dependency{"xs": registry.Self("xs")},
		Definition: func(v registry.Values) registry.Result {
			return registry.Val(value.Index(v.Get("xs"), i))
		},
		InverseDefinition: func(req registry.InverseRequest) ([]registry.Instruction, error) {
			if _, ok := value.AsFloat(req.Desired); !ok {
				return nil, registry.Decline("a coordinate must be a number")
			}
			xs, ok := value.Replace(req.Values.Get("xs"), i, req.Desired)
			if !ok {
				return nil, registry.Decline("point has no coordinate %d", i)
			}
			return []registry.Instruction{registry.Forward("xs", xs)}, nil
		},
	}
}

// corners holds the sign of the half-width and half-height offset of each
// vertex from the center.
var corners = [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

func rectangle() *registry.ComponentType {
	t := &registry.ComponentType{
		Name:            "rectangle",
		DefaultVariable: "vertices",
		Variables: map[string]*registry.Definition{
			"center": parameter("center", value.Point(0, 0)),
			"width":  parameter("width", value.Number(1)),
			"height": parameter("height", value.Number(1)),
			"vertices": {
				Dependencies: map[string]registry.Dependency{
					"center": registry.Self("center"),
					"width":  registry.Self("width"),
					"height": registry.Self("height"),
				},
				Definition: func(v registry.Values) registry.Result {
					cx, cy, okC := v.Point("center")
					w, okW := v.Float("width")
					h, okH := v.Float("height")
					if !okC || !okW || !okH {
						return registry.Val(value.Unresolved)
					}
					out := make([]cty.Value, len(corners))
					for i, c := range corners {
						out[i] = value.Point(cx+c[0]*w/2, cy+c[1]*h/2)
					}
					return registry.Val(value.List(out...))
				},
				InverseDefinition: moveVertices,
			},
			"area": {
				Dependencies: map[string]registry.Dependency{
					"width":  registry.Self("width"),
					"height": registry.Self("height"),
				},
				Definition: func(v registry.Values) registry.Result {
					w, _ := v.Float("width")
					h, _ := v.Float("height")
					return registry.Val(value.Number(math.Abs(w * h)))
				},
			},
		},
	}
	for i := range corners {
		t.Variables[fmt.Sprintf("vertex%d", i+1)] = vertex(i)
	}
	return t
}

// parameter is an essential rectangle parameter that an attribute may
// supply instead.
func parameter(attr string, def cty.Value) *registry.Definition {
	return &registry.Definition{
		Dependencies: map[string]registry.Dependency{attr: registry.Attr(attr)},
		Default:      def,
		Definition: func(v registry.Values) registry.Result {
			if a := v.Get(attr); !value.IsAbsent(a) {
				return registry.Val(a)
			}
			return registry.UseEssential(def)
		},
		InverseDefinition: registry.ForwardTo(attr),
	}
}

// moveVertices translates the rectangle so that the first vertex that
// differs from its current position lands on the desired position.
func moveVertices(req registry.InverseRequest) ([]registry.Instruction, error) {
	desired := value.Elements(req.Desired)
	if len(desired) != len(corners) {
		return nil, registry.Decline("a rectangle has %d vertices, got %d", len(corners), len(desired))
	}
	current := value.Elements(req.Current)
	w, okW := req.Values.Float("width")
	h, okH := req.Values.Float("height")
	if !okW || !okH {
		return nil, registry.Decline("rectangle size is unresolved")
	}
	for i, d := range desired {
		if i < len(current) && value.Equal(current[i], d) {
			continue
		}
		x, y, ok := value.AsPoint(d)
		if !ok {
			return nil, registry.Decline("vertex %d is not a point", i+1)
		}
		c := corners[i]
		center := value.Point(x-c[0]*w/2, y-c[1]*h/2)
		return []registry.Instruction{registry.Forward("center", center)}, nil
	}
	return nil, nil
}

func vertex(i int) *registry.Definition {
	return &registry.Definition{
		Dependencies: map[string]registry.Dependency{"vertices": registry.Self("vertices")},
		Definition: func(v registry.Values) registry.Result {
			return registry.Val(value.Index(v.Get("vertices"), i))
		},
		InverseDefinition: func(req registry.InverseRequest) ([]registry.Instruction, error) {
			vertices, ok := value.Replace(req.Values.Get("vertices"), i, req.Desired)
			if !ok {
				return nil, registry.Decline("rectangle vertices are unresolved")
			}
			return []registry.Instruction{registry.Forward("vertices", vertices)}, nil
		},
	}
}

package evaluator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/diagnostics"
	"github.com/specialistvlad/stategrid/internal/essential"
	"github.com/specialistvlad/stategrid/internal/graph"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/sampler"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// NamesKey is the document-level node every name lookup reads.
var NamesKey = nodeid.NewKey(0, registry.NamesVariable)

// Expander is the composite side of the engine: it turns a composite's
// determining values into replacements. It is implemented by the composite
// manager.
type Expander interface {
	// Expand reconciles the replacements of c with the plan computed from v
	// and returns a fingerprint of the resulting replacement set.
	Expand(ctx context.Context, c *component.Component, v registry.Values) cty.Value
	// Replacements returns the current replacement children of a composite.
	Replacements(id nodeid.ComponentID, includeWithheld bool) []component.Child
}

// Config holds the collaborators of an Evaluator.
type Config struct {
	Registry    *registry.Registry
	Arena       *component.Arena
	Graph       *graph.Graph
	Store       essential.Store
	Diagnostics *diagnostics.Collector
	Samplers    sampler.Factory
}

// Evaluator computes and caches state variable values of one document.
type Evaluator struct {
	reg      *registry.Registry
	arena    *component.Arena
	graph    *graph.Graph
	store    essential.Store
	diags    *diagnostics.Collector
	samplers sampler.Factory
	expander Expander

	stack    []nodeid.Key
	onStack  map[nodeid.Key]bool
	circular map[nodeid.Key][]nodeid.Key

	bundles      map[nodeid.Key]registry.Values
	essentialNow map[nodeid.Key]bool
	active       map[nodeid.ComponentID][]component.Child
	sampled      map[nodeid.ComponentID]*samplerSlot
	names        int64
}

type samplerSlot struct {
	s           sampler.Sampler
	size, count int
}

// New creates an evaluator.
func New(cfg Config) *Evaluator {
	if cfg.Samplers == nil {
		cfg.Samplers = sampler.Seeded(0)
	}
	return &Evaluator{
		reg:          cfg.Registry,
		arena:        cfg.Arena,
		graph:        cfg.Graph,
		store:        cfg.Store,
		diags:        cfg.Diagnostics,
		samplers:     cfg.Samplers,
		onStack:      make(map[nodeid.Key]bool),
		circular:     make(map[nodeid.Key][]nodeid.Key),
		bundles:      make(map[nodeid.Key]registry.Values),
		essentialNow: make(map[nodeid.Key]bool),
		active:       make(map[nodeid.ComponentID][]component.Child),
		sampled:      make(map[nodeid.ComponentID]*samplerSlot),
	}
}

// SetExpander wires the composite manager in. The two depend on each other,
// so the expander is attached after both exist.
func (e *Evaluator) SetExpander(x Expander) {
	e.expander = x
}

// Value returns the value of a node, computing it if it is stale.
func (e *Evaluator) Value(ctx context.Context, key nodeid.Key) cty.Value {
	if v, fresh := e.graph.Cached(key); fresh {
		return v
	}
	if e.onStack[key] {
		if _, seen := e.circular[key]; !seen {
			e.circular[key] = e.stackFrom(key)
		}
		return value.Circular
	}

	var c *component.Component
	if key.Component != 0 {
		var ok bool
		if c, ok = e.arena.Lookup(key.Component); !ok {
			return value.Absent
		}
	}
	def := e.definition(ctx, c, key.Variable)
	if def == nil {
		return value.Unresolved
	}

	e.stack = append(e.stack, key)
	e.onStack[key] = true
	v := e.compute(ctx, c, key, def)
	e.stack = e.stack[:len(e.stack)-1]
	delete(e.onStack, key)

	if path, frozen := e.circular[key]; frozen {
		delete(e.circular, key)
		e.reportCycle(ctx, key, path)
		e.freeze(path)
		v = value.Circular
	}
	if key.Component != 0 && !e.arena.Exists(key.Component) {
		// Torn down by a composite while it was being computed.
		return value.Absent
	}
	if e.graph.ProducersFresh(key) {
		e.graph.Store(key, v)
	} else {
		e.graph.StoreStale(key, v)
	}
	ctxlog.FromContext(ctx).Debug("State variable computed.", "key", key.String(), "value", value.Format(v))
	return v
}

func (e *Evaluator) compute(ctx context.Context, c *component.Component, key nodeid.Key, def *registry.Definition) cty.Value {
	switch key.Variable {
	case registry.NamesVariable:
		e.graph.Declare(key, nil)
		return cty.NumberIntVal(e.names)
	case registry.ChildrenVariable:
		return e.computeChildren(ctx, c, key)
	case registry.SampleVariable:
		return e.computeSample(c, key)
	}

	edges := graph.Edges{}
	determined := e.resolveAll(ctx, c, def.DeterminedBy, edges)
	deps := def.Dependencies
	if def.ReturnDependencies != nil {
		deps = def.ReturnDependencies(registry.NewValues(c, e.arena, determined))
	}
	entries := e.resolveAll(ctx, c, deps, edges)
	for name, entry := range determined {
		if _, dup := entries[name]; !dup {
			entries[name] = entry
		}
	}
	diff := e.graph.Declare(key, edges)
	if !diff.Empty() {
		ctxlog.FromContext(ctx).Debug("Dependencies re-declared.", "key", key.String(), "added", len(diff.Added), "removed", len(diff.Removed))
	}

	vals := registry.NewValues(c, e.arena, entries)
	e.bundles[key] = vals
	delete(e.essentialNow, key)

	if def.Definition == nil {
		e.essentialNow[key] = true
		return e.essentialValue(ctx, key, def.Default)
	}
	if !def.HandlesUnresolved {
		for _, name := range vals.Names() {
			if value.IsUnresolved(vals.Get(name)) {
				return value.Unresolved
			}
		}
	}

	res, err := call(key, def.Definition, vals)
	if err != nil {
		e.diags.Add(ctx, "definition:"+key.String(), &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Definition failed",
			Detail:   fmt.Sprintf("Computing %s of %s failed: %v.", key.Variable, c.Label(), err.(*DefinitionError).Cause),
			Extra:    err,
		})
		return value.Unresolved
	}
	if res.UseEssential {
		e.essentialNow[key] = true
		d := res.Default
		if d == cty.NilVal {
			d = def.Default
		}
		return e.essentialValue(ctx, key, d)
	}
	if res.Value == cty.NilVal {
		return value.Unresolved
	}
	return res.Value
}

func call(key nodeid.Key, fn func(registry.Values) registry.Result, vals registry.Values) (res registry.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DefinitionError{Key: key, Cause: r}
		}
	}()
	return fn(vals), nil
}

func (e *Evaluator) essentialValue(ctx context.Context, key nodeid.Key, def cty.Value) cty.Value {
	if v, ok := e.store.Get(ctx, key); ok {
		return v
	}
	if def == cty.NilVal {
		return value.Absent
	}
	return value.Clean(def)
}

func (e *Evaluator) stackFrom(key nodeid.Key) []nodeid.Key {
	for i, k := range e.stack {
		if k == key {
			return append([]nodeid.Key(nil), e.stack[i:]...)
		}
	}
	return []nodeid.Key{key}
}

// freeze caches the sentinel on the members of a cycle until one of their
// edges is invalidated. Members with an outside producer that is not fresh
// are left stale.
func (e *Evaluator) freeze(path []nodeid.Key) {
	members := make(map[nodeid.Key]bool, len(path))
	for _, k := range path {
		members[k] = true
	}
	for k := range members {
		if e.graph.ProducersFreshExcept(k, members) {
			e.graph.Store(k, value.Circular)
		}
	}
}

func (e *Evaluator) reportCycle(ctx context.Context, key nodeid.Key, path []nodeid.Key) {
	if found := e.graph.FindCycle(key); found != nil {
		path = found
	}
	members := make([]string, len(path))
	for i, k := range path {
		members[i] = k.String()
	}
	sort.Strings(members)
	cycle := &CycleError{Path: path}
	e.diags.Add(ctx, "cycle:"+strings.Join(members, ","), &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Definition cycle",
		Detail:   fmt.Sprintf("%s depends on itself (%s); it resolves to a circular value.", key, cycle.Error()),
		Extra:    cycle,
	})
}

// DefinitionOf returns the definition of a node, or nil when the node does
// not exist.
func (e *Evaluator) DefinitionOf(ctx context.Context, key nodeid.Key) *registry.Definition {
	var c *component.Component
	if key.Component != 0 {
		var ok bool
		if c, ok = e.arena.Lookup(key.Component); !ok {
			return nil
		}
	}
	return e.definition(ctx, c, key.Variable)
}

// Dependencies returns the resolved dependency bundle a node was last
// computed from. Inverse resolution reads it to map instructions onto
// producing nodes.
func (e *Evaluator) Dependencies(key nodeid.Key) (registry.Values, bool) {
	v, ok := e.bundles[key]
	return v, ok
}

// IsEssential reports whether a node currently resolves from the essential
// store. It reflects the last computation of the node.
func (e *Evaluator) IsEssential(key nodeid.Key) bool {
	return e.essentialNow[key]
}

// ActiveChildren returns the active children of a component after
// composite expansion.
func (e *Evaluator) ActiveChildren(ctx context.Context, id nodeid.ComponentID) []component.Child {
	e.Value(ctx, nodeid.NewKey(id, registry.ChildrenVariable))
	return append([]component.Child(nil), e.active[id]...)
}

// NamesChanged records that components appeared or disappeared, so every
// name lookup is redone on its next read.
func (e *Evaluator) NamesChanged() []graph.Stale {
	e.names++
	return e.graph.Invalidate(NamesKey)
}

// Forget drops every per-node record of a removed component.
func (e *Evaluator) Forget(id nodeid.ComponentID) {
	for key := range e.bundles {
		if key.Component == id {
			delete(e.bundles, key)
		}
	}
	for key := range e.essentialNow {
		if key.Component == id {
			delete(e.essentialNow, key)
		}
	}
	delete(e.active, id)
	delete(e.sampled, id)
}

// Resample draws a new choice for the sampler of a component. It returns the
// nodes that went stale and a function undoing the resample.
func (e *Evaluator) Resample(ctx context.Context, id nodeid.ComponentID) (undo func() []graph.Stale, stale []graph.Stale, err error) {
	slot := e.sampled[id]
	if slot == nil {
		return nil, nil, fmt.Errorf("component %s has no sampler", id)
	}
	key := nodeid.NewKey(id, registry.SampleVariable)
	previous := slot.s.Value()
	slot.s.Resample()
	ctxlog.FromContext(ctx).Debug("Sampler resampled.", "component", id.String(), "previous", previous, "current", slot.s.Value())
	undo = func() []graph.Stale {
		if r, ok := slot.s.(sampler.Restorer); ok {
			r.Restore(previous)
		}
		return e.graph.Invalidate(key)
	}
	return undo, e.graph.Invalidate(key), nil
}

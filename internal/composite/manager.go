package composite

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/diagnostics"
	"github.com/specialistvlad/stategrid/internal/essential"
	"github.com/specialistvlad/stategrid/internal/evaluator"
	"github.com/specialistvlad/stategrid/internal/graph"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// maxRefreshRounds bounds Refresh. Every round re-expands at least one
// composite, so a document that does not settle within it oscillates.
const maxRefreshRounds = 64

// Config holds the collaborators of a Manager.
type Config struct {
	Registry    *registry.Registry
	Arena       *component.Arena
	Graph       *graph.Graph
	Store       essential.Store
	Evaluator   *evaluator.Evaluator
	Diagnostics *diagnostics.Collector
}

// Manager owns the replacement sets of every composite of a document.
type Manager struct {
	reg   *registry.Registry
	arena *component.Arena
	graph *graph.Graph
	store essential.Store
	eval  *evaluator.Evaluator
	diags *diagnostics.Collector

	states   map[nodeid.ComponentID]*state
	frozen   bool
	deferred map[nodeid.ComponentID]bool
	stale    []graph.Stale
}

type state struct {
	plan  registry.Plan
	valid bool
	epoch int
	slots []slot
}

// slot is the replacement built for one index of a plan.
type slot struct {
	scope    *component.Scope
	children []component.Child
}

// New creates a manager and attaches it to the evaluator.
func New(cfg Config) *Manager {
	m := &Manager{
		reg:      cfg.Registry,
		arena:    cfg.Arena,
		graph:    cfg.Graph,
		store:    cfg.Store,
		eval:     cfg.Evaluator,
		diags:    cfg.Diagnostics,
		states:   make(map[nodeid.ComponentID]*state),
		deferred: make(map[nodeid.ComponentID]bool),
	}
	cfg.Evaluator.SetExpander(m)
	return m
}

// Expand reconciles the replacements of c with the plan computed from its
// determining values and returns a fingerprint of the result.
func (m *Manager) Expand(ctx context.Context, c *component.Component, v registry.Values) cty.Value {
	st := m.states[c.ID]
	if st == nil {
		st = &state{}
		m.states[c.ID] = st
	}
	if m.frozen && st.valid {
		m.deferred[c.ID] = true
		return fingerprint(st, m.arena)
	}

	t, ok := m.reg.Lookup(c.Type)
	if !ok || t.Composite == nil {
		return value.Unresolved
	}
	plan, err := callPlan(t.Composite, v)
	if err != nil {
		expErr := &ExpansionError{Component: c.ID, Type: c.Type, Err: err}
		m.diags.Add(ctx, "expansion:"+c.ID.String()+":"+err.Error(), &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Composite expansion failed",
			Detail:   fmt.Sprintf("The replacements of %s could not be determined: %v. It has no content.", c.Label(), err),
			Extra:    expErr,
		})
		plan = registry.Plan{Mode: registry.Primitive}
	}
	m.reconcile(ctx, c, st, plan)
	return fingerprint(st, m.arena)
}

func callPlan(def *registry.CompositeDef, v registry.Values) (plan registry.Plan, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plan panicked: %v", r)
		}
	}()
	return def.Plan(v)
}

func (m *Manager) reconcile(ctx context.Context, c *component.Component, st *state, plan registry.Plan) {
	logger := ctxlog.FromContext(ctx)
	if !st.valid {
		st.valid = true
		st.epoch = 1
		st.plan = plan
		m.buildAll(c, st)
		logger.Debug("Composite expanded.", "component", c.Label(), "mode", plan.Mode.String(), "count", plan.Count)
		return
	}
	old := st.plan
	if old.Same(plan) {
		return
	}

	switch {
	case old.Template != plan.Template || old.Mode != plan.Mode || plan.Mode == registry.Primitive:
		m.switchTemplate(ctx, c, st, plan)
		logger.Debug("Composite template switched.", "component", c.Label(), "template", plan.Template, "epoch", st.epoch)
	case plan.Mode == registry.Repeat:
		if !itemsAgree(old, plan) {
			m.switchTemplate(ctx, c, st, plan)
			logger.Debug("Composite items reordered, rebuilt.", "component", c.Label(), "epoch", st.epoch)
			return
		}
		m.resize(ctx, c, st, plan)
		logger.Debug("Composite resized.", "component", c.Label(), "from", old.Count, "to", plan.Count)
	case old.Count != plan.Count:
		m.switchTemplate(ctx, c, st, plan)
	default:
		st.plan = plan
		m.setWithheld(st, !plan.Visible)
		logger.Debug("Composite visibility changed.", "component", c.Label(), "visible", plan.Visible)
	}
}

// itemsAgree reports whether the items both plans share positions for are
// equal. A change inside the common prefix is treated as a template switch.
func itemsAgree(old, plan registry.Plan) bool {
	n := min(old.Count, plan.Count)
	for i := 0; i < n; i++ {
		if !value.Equal(old.Item(i), plan.Item(i)) {
			return false
		}
	}
	return true
}

func (m *Manager) switchTemplate(ctx context.Context, c *component.Component, st *state, plan registry.Plan) {
	m.teardownSlots(ctx, st.slots)
	st.slots = nil
	st.epoch++
	st.plan = plan
	m.buildAll(c, st)
}

func (m *Manager) buildAll(c *component.Component, st *state) {
	for i := 0; i < st.plan.Count; i++ {
		st.slots = append(st.slots, m.build(c, st, i))
	}
	m.namesChanged()
}

func (m *Manager) resize(ctx context.Context, c *component.Component, st *state, plan registry.Plan) {
	st.plan = plan
	switch {
	case plan.Count > len(st.slots):
		for i := len(st.slots); i < plan.Count; i++ {
			st.slots = append(st.slots, m.build(c, st, i))
		}
		m.namesChanged()
	case plan.Count < len(st.slots):
		m.teardownSlots(ctx, st.slots[plan.Count:])
		st.slots = slices.Clip(st.slots[:plan.Count])
	}
}

func (m *Manager) build(c *component.Component, st *state, i int) slot {
	s := slot{scope: &component.Scope{
		Composite: c.ID,
		Epoch:     st.epoch,
		Index:     i,
		Item:      st.plan.Item(i),
	}}
	var specs []component.ChildSpec
	switch {
	case st.plan.Build != nil:
		specs = st.plan.Build(i)
	case st.plan.Mode == registry.Primitive:
		for _, lit := range st.plan.Primitives {
			specs = append(specs, component.LitChild(lit))
		}
	}
	withheld := gates(st.plan) && !st.plan.Visible
	for _, cs := range specs {
		switch {
		case cs.Spec != nil:
			child, _ := m.arena.Instantiate(cs.Spec.Clone(), c.ID, s.scope, m.reg.KeepsTemplate)
			child.Withheld = withheld
			s.children = append(s.children, component.Child{Kind: component.ChildComponent, ID: child.ID})
		case cs.Ref != nil:
			s.children = append(s.children, component.Child{Kind: component.ChildReference, Ref: *cs.Ref})
		default:
			s.children = append(s.children, component.Child{Kind: component.ChildLiteral, Literal: cs.Literal})
		}
	}
	return s
}

// gates reports whether a plan's Visible flag applies.
func gates(plan registry.Plan) bool {
	return plan.Mode == registry.Gated || plan.Mode == registry.Alternatives
}

func (m *Manager) setWithheld(st *state, withheld bool) {
	for _, s := range st.slots {
		for _, ch := range s.children {
			if ch.Kind != component.ChildComponent {
				continue
			}
			if c, ok := m.arena.Lookup(ch.ID); ok {
				c.Withheld = withheld
			}
		}
	}
}

func (m *Manager) teardownSlots(ctx context.Context, slots []slot) {
	removed := 0
	for _, s := range slots {
		for _, ch := range s.children {
			if ch.Kind == component.ChildComponent {
				removed += m.remove(ctx, ch.ID)
			}
		}
	}
	if removed > 0 {
		m.namesChanged()
		ctxlog.FromContext(ctx).Debug("Replacements torn down.", "components", removed)
	}
}

// remove tears a component down together with its authored subtree and the
// replacements of any composite inside it. It returns the number of removed
// components.
func (m *Manager) remove(ctx context.Context, id nodeid.ComponentID) int {
	c, ok := m.arena.Lookup(id)
	if !ok {
		return 0
	}
	n := 0
	for _, child := range c.ChildIDs() {
		n += m.remove(ctx, child)
	}
	if st := m.states[id]; st != nil {
		for _, s := range st.slots {
			for _, ch := range s.children {
				if ch.Kind == component.ChildComponent {
					n += m.remove(ctx, ch.ID)
				}
			}
		}
		delete(m.states, id)
		delete(m.deferred, id)
	}

	m.stale = append(m.stale, m.graph.Invalidate(m.graph.Keys(id)...)...)
	m.graph.RemoveComponent(id)
	m.store.DeleteComponent(ctx, id)
	m.eval.Forget(id)
	m.arena.Remove(id)
	return n + 1
}

func (m *Manager) namesChanged() {
	m.stale = append(m.stale, m.eval.NamesChanged()...)
}

// Replacements returns the replacement children of a composite, in slot
// order. Withheld replacements are skipped unless includeWithheld is set.
func (m *Manager) Replacements(id nodeid.ComponentID, includeWithheld bool) []component.Child {
	st := m.states[id]
	if st == nil {
		return nil
	}
	var out []component.Child
	for _, s := range st.slots {
		for _, ch := range s.children {
			if !includeWithheld && ch.Kind == component.ChildComponent {
				if c, ok := m.arena.Lookup(ch.ID); !ok || c.Withheld {
					continue
				}
			}
			out = append(out, ch)
		}
	}
	return out
}

// Epoch returns the replacement generation of a composite, 0 before its
// first expansion.
func (m *Manager) Epoch(id nodeid.ComponentID) int {
	if st := m.states[id]; st != nil {
		return st.epoch
	}
	return 0
}

// Freeze defers every structural change until Unfreeze. Composites whose
// replacements are recomputed in between keep their current set.
func (m *Manager) Freeze() {
	m.frozen = true
}

// Unfreeze lifts Freeze and marks every deferred composite stale.
func (m *Manager) Unfreeze() []graph.Stale {
	m.frozen = false
	ids := make([]nodeid.ComponentID, 0, len(m.deferred))
	for id := range m.deferred {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	clear(m.deferred)
	var out []graph.Stale
	for _, id := range ids {
		out = append(out, m.graph.Invalidate(nodeid.NewKey(id, registry.ReplacementsVariable))...)
	}
	return out
}

// TakeInvalidated returns and forgets the nodes invalidated by teardowns and
// name changes since the previous call.
func (m *Manager) TakeInvalidated() []graph.Stale {
	out := m.stale
	m.stale = nil
	return out
}

// Refresh re-expands every expanded composite whose replacement set is
// stale, until none is.
func (m *Manager) Refresh(ctx context.Context) error {
	for round := 0; round < maxRefreshRounds; round++ {
		ids := make([]nodeid.ComponentID, 0, len(m.states))
		for id := range m.states {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		progressed := false
		for _, id := range ids {
			if _, live := m.states[id]; !live {
				continue
			}
			key := nodeid.NewKey(id, registry.ReplacementsVariable)
			if m.graph.Fresh(key) {
				continue
			}
			m.eval.Value(ctx, key)
			progressed = true
		}
		if !progressed {
			return nil
		}
	}
	err := fmt.Errorf("composite expansion did not settle after %d rounds", maxRefreshRounds)
	m.diags.Add(ctx, "refresh", &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Composite expansion did not settle",
		Detail:   err.Error() + ".",
	})
	return err
}

func fingerprint(st *state, arena *component.Arena) cty.Value {
	children := []cty.Value{}
	for _, s := range st.slots {
		for _, ch := range s.children {
			switch ch.Kind {
			case component.ChildComponent:
				mark := ""
				if c, ok := arena.Lookup(ch.ID); ok && c.Withheld {
					mark = "~"
				}
				children = append(children, value.String(mark+ch.ID.String()))
			case component.ChildReference:
				children = append(children, value.String("&"+ch.Ref.String()))
			default:
				children = append(children, value.String("="+value.Format(ch.Literal)))
			}
		}
	}
	return cty.ObjectVal(map[string]cty.Value{
		"epoch":    value.Int(st.epoch),
		"template": value.String(st.plan.Template),
		"children": value.List(children...),
	})
}

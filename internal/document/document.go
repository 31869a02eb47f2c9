// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package document

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/composite"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/diagnostics"
	"github.com/specialistvlad/stategrid/internal/essential"
	"github.com/specialistvlad/stategrid/internal/evaluator"
	"github.com/specialistvlad/stategrid/internal/events"
	"github.com/specialistvlad/stategrid/internal/graph"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/sampler"
	"github.com/specialistvlad/stategrid/internal/update"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Document is a live, instantiated component tree.
type Document struct {
	mu sync.Mutex

	id         uuid.UUID
	root       nodeid.ComponentID
	registry   *registry.Registry
	arena      *component.Arena
	graph      *graph.Graph
	store      essential.Store
	diags      *diagnostics.Collector
	eval       *evaluator.Evaluator
	composites *composite.Manager
	coord      *update.Coordinator
	collector  events.Collector
	atomic     bool

	buffer      int
	subscribers map[nodeid.ComponentID][]*subscription
	closed      bool
}

type subscription struct {
	ch chan string
}

// New instantiates spec as the root of a new document and expands every
// composite reachable from it.
func New(ctx context.Context, reg *registry.Registry, spec *component.Spec, opts ...Option) (*Document, error) {
	if spec == nil {
		return nil, fmt.Errorf("document has no root component")
	}
	if err := reg.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.samplers == nil {
		o.samplers = sampler.Seeded(o.seed)
	}
	if o.store == nil {
		o.store = essential.NewMemory()
	}
	if o.collector == nil {
		o.collector = events.Discard{}
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	d := &Document{
		id:          id,
		registry:    reg,
		arena:       component.NewArena(),
		graph:       graph.New(),
		store:       o.store,
		diags:       diagnostics.New(),
		collector:   o.collector,
		atomic:      o.atomic,
		buffer:      o.buffer,
		subscribers: make(map[nodeid.ComponentID][]*subscription),
	}
	d.eval = evaluator.New(evaluator.Config{
		Registry:    reg,
		Arena:       d.arena,
		Graph:       d.graph,
		Store:       d.store,
		Diagnostics: d.diags,
		Samplers:    o.samplers,
	})
	d.composites = composite.New(composite.Config{
		Registry:    reg,
		Arena:       d.arena,
		Graph:       d.graph,
		Store:       d.store,
		Evaluator:   d.eval,
		Diagnostics: d.diags,
	})
	d.coord = update.New(update.Config{
		Evaluator:  d.eval,
		Composites: d.composites,
		Graph:      d.graph,
		Store:      d.store,
		Arena:      d.arena,
		Collector:  d.collector,
		Notify:     d.notify,
	})

	root, created := d.arena.Instantiate(spec, 0, nil, reg.KeepsTemplate)
	d.root = root.ID
	logger := ctxlog.FromContext(ctx).With("document", d.id.String())
	logger.Debug("Document instantiated.", "components", len(created))

	d.expand(ctx, d.root)
	if err := d.composites.Refresh(ctx); err != nil {
		logger.Warn("Document did not settle.", "error", err)
	}
	d.composites.TakeInvalidated()
	logger.Debug("Document ready.", "components", d.arena.Len(), "nodes", d.graph.Len(), "diagnostics", d.diags.Len())
	return d, nil
}

// expand walks the active tree so that every composite computes its
// replacements.
func (d *Document) expand(ctx context.Context, id nodeid.ComponentID) {
	for _, ch := range d.eval.ActiveChildren(ctx, id) {
		if ch.Kind == component.ChildComponent {
			d.expand(ctx, ch.ID)
		}
	}
}

// ID identifies the document in logs and events.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Root returns the id of the root component.
func (d *Document) Root() nodeid.ComponentID {
	return d.root
}

// GetValue returns the current value of a state variable. Queued skippable
// updates are applied first.
func (d *Document) GetValue(ctx context.Context, id nodeid.ComponentID, variable string) (cty.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.coord.Flush(ctx)

	key := nodeid.NewKey(id, variable)
	if err := d.check(ctx, key); err != nil {
		return cty.NilVal, err
	}
	return value.Clean(d.eval.Value(ctx, key)), nil
}

// GetByName is GetValue for the component with the given name.
func (d *Document) GetByName(ctx context.Context, name, variable string) (cty.Value, error) {
	id, err := d.Lookup(name)
	if err != nil {
		return cty.NilVal, err
	}
	return d.GetValue(ctx, id, variable)
}

// RequestUpdate asks a state variable to take the desired value. A rejected
// request returns an *update.RejectedError.
func (d *Document) RequestUpdate(ctx context.Context, id nodeid.ComponentID, variable string, desired cty.Value, opts update.Options) (*update.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := nodeid.NewKey(id, variable)
	if !d.arena.Exists(id) {
		return &update.Result{}, fmt.Errorf("component %s: %w", id, ErrNotFound)
	}
	if !d.atomic {
		opts.NonAtomic = true
	}
	return d.coord.RequestUpdate(ctx, key, desired, opts)
}

// Flush applies queued skippable updates and returns the changed nodes.
func (d *Document) Flush(ctx context.Context) []nodeid.Key {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.coord.Flush(ctx)
}

func (d *Document) check(ctx context.Context, key nodeid.Key) error {
	if !d.arena.Exists(key.Component) {
		return fmt.Errorf("component %s: %w", key.Component, ErrNotFound)
	}
	if d.eval.DefinitionOf(ctx, key) == nil {
		return fmt.Errorf("state variable %s: %w", key, ErrNotFound)
	}
	return nil
}

// Lookup returns the id of the only component with the given name.
func (d *Document) Lookup(name string) (nodeid.ComponentID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := d.arena.ByName(name)
	switch len(ids) {
	case 0:
		return 0, fmt.Errorf("component %q: %w", name, ErrNotFound)
	case 1:
		return ids[0], nil
	}
	return 0, fmt.Errorf("component %q matches %d components: %w", name, len(ids), ErrAmbiguous)
}

// Component returns the instantiated component with the given id.
func (d *Document) Component(id nodeid.ComponentID) (*component.Component, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.arena.Lookup(id)
}

// Children returns the active children of a component: composites are
// replaced by their visible replacements.
func (d *Document) Children(ctx context.Context, id nodeid.ComponentID) []component.Child {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.coord.Flush(ctx)
	if !d.arena.Exists(id) {
		return nil
	}
	return d.eval.ActiveChildren(ctx, id)
}

// Variables returns the sorted state variable names a component exposes.
func (d *Document) Variables(id nodeid.ComponentID) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.arena.Lookup(id)
	if !ok {
		return nil
	}
	t, ok := d.registry.Lookup(c.Type)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(t.Variables))
	for name := range t.Variables {
		if !registry.IsEngineVariable(name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Diagnostics returns the author-facing problems found so far, in the
// order they were found.
func (d *Document) Diagnostics() hcl.Diagnostics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.diags.All()
}

// Subscribe returns a channel receiving the names of the component's state
// variables whose value changed, and a function ending the subscription.
// Notifications are dropped when the channel is full.
func (d *Document) Subscribe(id nodeid.ComponentID) (<-chan string, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sub := &subscription{ch: make(chan string, d.buffer)}
	if d.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	d.subscribers[id] = append(d.subscribers[id], sub)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			d.unsubscribe(id, sub)
		})
	}
	return sub.ch, cancel
}

func (d *Document) unsubscribe(id nodeid.ComponentID, sub *subscription) {
	subs := d.subscribers[id]
	i := slices.Index(subs, sub)
	if i < 0 {
		return
	}
	d.subscribers[id] = slices.Delete(subs, i, i+1)
	if len(d.subscribers[id]) == 0 {
		delete(d.subscribers, id)
	}
	close(sub.ch)
}

// notify runs inside an update, with the mutex held.
func (d *Document) notify(ctx context.Context, changed []nodeid.Key) {
	for _, key := range changed {
		for _, sub := range d.subscribers[key.Component] {
			select {
			case sub.ch <- key.Variable:
			default:
				ctxlog.FromContext(ctx).Warn("Subscriber is full, notification dropped.", "key", key.String())
			}
		}
	}
}

// Close ends every subscription and closes the event collector when it
// holds resources.
func (d *Document) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	for id, subs := range d.subscribers {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(d.subscribers, id)
	}
	ctxlog.FromContext(ctx).Debug("Document closed.", "document", d.id.String())
	if c, ok := d.collector.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

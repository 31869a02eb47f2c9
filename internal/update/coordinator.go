// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package update applies write requests to a document by inverse
// resolution.
//
// A request names a target node and a desired value. An essential target
// without an inverse stores the value. Otherwise the target's inverse
// definition turns the desired value into instructions: set my essential
// value, ask a dependency to take a value, or resample. Instructions are
// applied depth first and the first failure rejects the whole request.
// Every essential write goes through a journal; a rejected atomic request
// is rolled back so that no partial state is visible.
//
// After the writes, deferred composite changes are applied, every node that
// was fresh before and went stale is read again, and the nodes whose value
// actually changed are reported to subscribers.
package update

import (
	"context"
	"errors"
	"slices"

	"github.com/specialistvlad/stategrid/internal/component"
	"github.com/specialistvlad/stategrid/internal/composite"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/essential"
	"github.com/specialistvlad/stategrid/internal/evaluator"
	"github.com/specialistvlad/stategrid/internal/events"
	"github.com/specialistvlad/stategrid/internal/graph"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// DefaultSource is the source kind of events whose request named none.
const DefaultSource = "user"

// Options modify a single request. The zero value is an atomic, final,
// immediately applied write.
type Options struct {
	// Transient marks an interaction still in progress. It is applied but
	// emits no event; the next non-transient write of the same target
	// reports the value from before the transient run.
	Transient bool
	// Skippable writes are queued and only the last one per target is
	// applied at the next observation point.
	Skippable bool
	// NonAtomic keeps the writes made before a failure.
	NonAtomic bool
	// Source is recorded as the event source kind.
	Source string
}

// Result describes an applied request.
type Result struct {
	Success bool
	// Changed lists, in key order, the previously observed nodes whose
	// value differs after the request.
	Changed []nodeid.Key
	// Deferred is set for queued skippable writes.
	Deferred bool
}

// Config holds the collaborators of a Coordinator.
type Config struct {
	Evaluator  *evaluator.Evaluator
	Composites *composite.Manager
	Graph      *graph.Graph
	Store      essential.Store
	Arena      *component.Arena
	Collector  events.Collector
	// Notify receives the changed nodes of every request.
	Notify func(ctx context.Context, changed []nodeid.Key)
}

// Coordinator is the only writer of a document's essential store.
type Coordinator struct {
	eval       *evaluator.Evaluator
	composites *composite.Manager
	graph      *graph.Graph
	store      essential.Store
	arena      *component.Arena
	collector  events.Collector
	notify     func(ctx context.Context, changed []nodeid.Key)

	pending   map[nodeid.Key]pendingWrite
	order     []nodeid.Key
	transient map[nodeid.Key]cty.Value
}

type pendingWrite struct {
	desired cty.Value
	opts    Options
}

// New creates a coordinator.
func New(cfg Config) *Coordinator {
	if cfg.Collector == nil {
		cfg.Collector = events.Discard{}
	}
	return &Coordinator{
		eval:       cfg.Evaluator,
		composites: cfg.Composites,
		graph:      cfg.Graph,
		store:      cfg.Store,
		arena:      cfg.Arena,
		collector:  cfg.Collector,
		notify:     cfg.Notify,
		pending:    make(map[nodeid.Key]pendingWrite),
		transient:  make(map[nodeid.Key]cty.Value),
	}
}

// RequestUpdate asks target to take the desired value.
func (c *Coordinator) RequestUpdate(ctx context.Context, target nodeid.Key, desired cty.Value, opts Options) (*Result, error) {
	if opts.Skippable {
		if _, queued := c.pending[target]; !queued {
			c.order = append(c.order, target)
		}
		c.pending[target] = pendingWrite{desired: desired, opts: opts}
		ctxlog.FromContext(ctx).Debug("Skippable update queued.", "target", target.String())
		return &Result{Success: true, Deferred: true}, nil
	}
	flushed := c.Flush(ctx)
	res, err := c.apply(ctx, target, desired, opts)
	res.Changed = mergeKeys(flushed, res.Changed)
	return res, err
}

// Pending reports whether skippable writes are waiting to be applied.
func (c *Coordinator) Pending() bool {
	return len(c.order) > 0
}

// Flush applies the queued skippable writes, the last one per target, in
// the order their targets were first queued. It returns the changed nodes.
// A queued write that is rejected is dropped.
func (c *Coordinator) Flush(ctx context.Context) []nodeid.Key {
	if len(c.order) == 0 {
		return nil
	}
	order, pending := c.order, c.pending
	c.order = nil
	c.pending = make(map[nodeid.Key]pendingWrite)

	var changed []nodeid.Key
	for _, key := range order {
		w := pending[key]
		res, err := c.apply(ctx, key, w.desired, w.opts)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Skippable update dropped.", "target", key.String(), "error", err)
		}
		changed = mergeKeys(changed, res.Changed)
	}
	return changed
}

func (c *Coordinator) apply(ctx context.Context, target nodeid.Key, desired cty.Value, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("target", target.String())
	if c.eval.DefinitionOf(ctx, target) == nil {
		err := &RejectedError{Target: target, Reason: NotFound, Err: errors.New("no such state variable")}
		logger.Warn("Update rejected.", "reason", err.Reason.String())
		return &Result{}, err
	}

	c.composites.TakeInvalidated()
	before := c.eval.Value(ctx, target)
	r := &run{
		c:        c,
		ctx:      ctx,
		journal:  essential.NewJournal(c.store),
		previous: make(map[nodeid.Key]cty.Value),
	}
	logger.Debug("Applying update.", "desired", value.Format(desired))

	c.composites.Freeze()
	err := r.resolve(target, value.Clean(desired), 0)
	switch {
	case err != nil && !opts.NonAtomic:
		restored, rbErr := r.journal.Rollback(ctx)
		if rbErr != nil {
			logger.Error("Rollback incomplete.", "error", rbErr)
		}
		r.invalidate(restored...)
	default:
		r.journal.Commit()
	}
	r.collect(c.composites.Unfreeze())
	if rerr := c.composites.Refresh(ctx); rerr != nil {
		logger.Warn("Composite refresh failed.", "error", rerr)
	}
	r.collect(c.composites.TakeInvalidated())

	changed := r.changed()
	if len(changed) > 0 && c.notify != nil {
		c.notify(ctx, changed)
	}
	if err != nil {
		rej := asRejected(target, err)
		logger.Warn("Update rejected.", "reason", rej.Reason.String(), "error", rej.Err)
		return &Result{Changed: changed}, rej
	}
	c.record(ctx, target, before, opts)
	logger.Debug("Update applied.", "changed", len(changed), "writes", len(r.journal.Keys()))
	return &Result{Success: true, Changed: changed}, nil
}

// asRejected reports a failure against the requested target; failures
// further down are wrapped as Downstream.
func asRejected(target nodeid.Key, err error) *RejectedError {
	var rej *RejectedError
	if !errors.As(err, &rej) {
		return &RejectedError{Target: target, Reason: Declined, Err: err}
	}
	if rej.Target != target {
		return &RejectedError{Target: target, Reason: Downstream, Err: rej}
	}
	return rej
}

func (c *Coordinator) record(ctx context.Context, target nodeid.Key, before cty.Value, opts Options) {
	if opts.Transient {
		if _, running := c.transient[target]; !running {
			c.transient[target] = before
		}
		return
	}
	previous := before
	if start, running := c.transient[target]; running {
		previous = start
		delete(c.transient, target)
	}
	name := ""
	if comp, ok := c.arena.Lookup(target.Component); ok {
		name = comp.Name
	}
	source := opts.Source
	if source == "" {
		source = DefaultSource
	}
	e := events.New(target, name, previous, c.eval.Value(ctx, target), source)
	if err := c.collector.Collect(ctx, e); err != nil {
		ctxlog.FromContext(ctx).Warn("Event collector failed.", "error", err, "event", e.ID.String())
	}
}

// run is the state of one applied request.
type run struct {
	c        *Coordinator
	ctx      context.Context
	journal  *essential.Journal
	previous map[nodeid.Key]cty.Value
}

func (r *run) invalidate(keys ...nodeid.Key) {
	r.collect(r.c.graph.Invalidate(keys...))
}

// collect remembers the value every node held before it first went stale.
func (r *run) collect(stale []graph.Stale) {
	for _, s := range stale {
		if _, seen := r.previous[s.Key]; !seen {
			r.previous[s.Key] = s.Previous
		}
	}
}

// changed reads every invalidated node of a live component again and
// returns the state variables whose value differs.
func (r *run) changed() []nodeid.Key {
	keys := make([]nodeid.Key, 0, len(r.previous))
	for k := range r.previous {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	var out []nodeid.Key
	for _, k := range keys {
		if k.Component != 0 && !r.c.arena.Exists(k.Component) {
			continue
		}
		now := r.c.eval.Value(r.ctx, k)
		if registry.IsEngineVariable(k.Variable) {
			continue
		}
		if !value.Equal(now, r.previous[k]) {
			out = append(out, k)
		}
	}
	return out
}

func mergeKeys(a, b []nodeid.Key) []nodeid.Key {
	if len(a) == 0 {
		return b
	}
	seen := make(map[nodeid.Key]bool, len(a)+len(b))
	var out []nodeid.Key
	for _, k := range append(slices.Clone(a), b...) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	slices.SortFunc(out, compareKeys)
	return out
}

func compareKeys(a, b nodeid.Key) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

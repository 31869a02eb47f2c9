package graph

import (
	"slices"

	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[nodeid.Key]*node),
	}
}

// Ensure adds a stale node for key if none exists.
func (g *Graph) Ensure(key nodeid.Key) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.ensure(key)
}

func (g *Graph) ensure(key nodeid.Key) *node {
	n, ok := g.nodes[key]
	if !ok {
		n = &node{
			key:        key,
			deps:       make(Edges),
			dependents: make(map[nodeid.Key]struct{}),
		}
		g.nodes[key] = n
	}
	return n
}

// Has reports whether a node exists.
func (g *Graph) Has(key nodeid.Key) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[key]
	return ok
}

// Cached returns the cached value of a node and whether it is fresh.
func (g *Graph) Cached(key nodeid.Key) (cty.Value, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[key]
	if !ok || !n.fresh {
		return cty.NilVal, false
	}
	return n.value, true
}

// Fresh reports whether a node holds a fresh value.
func (g *Graph) Fresh(key nodeid.Key) bool {
	_, fresh := g.Cached(key)
	return fresh
}

// Store caches a value and marks the node fresh.
func (g *Graph) Store(key nodeid.Key, v cty.Value) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	n := g.ensure(key)
	n.value = v
	n.fresh = true
}

// Declare replaces the edge set of key. Producers are created on demand.
// Registrations at producers that are still read are left untouched.
func (g *Graph) Declare(key nodeid.Key, edges Edges) Diff {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	n := g.ensure(key)
	var diff Diff
	for producer, kind := range edges {
		old, existed := n.deps[producer]
		switch {
		case !existed:
			diff.Added = append(diff.Added, producer)
		case old != kind:
			diff.Retagged = append(diff.Retagged, producer)
		default:
			continue
		}
		n.deps[producer] = kind
		g.ensure(producer).dependents[key] = struct{}{}
	}
	for producer := range n.deps {
		if _, keep := edges[producer]; keep {
			continue
		}
		diff.Removed = append(diff.Removed, producer)
		delete(n.deps, producer)
		if p, ok := g.nodes[producer]; ok {
			delete(p.dependents, key)
		}
	}
	sortKeys(diff.Added)
	sortKeys(diff.Removed)
	sortKeys(diff.Retagged)
	return diff
}

// Invalidate marks the given nodes and every transitive consumer stale. It
// returns the nodes that were fresh before the call, in key order. Values
// are never recomputed here.
func (g *Graph) Invalidate(keys ...nodeid.Key) []Stale {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	var out []Stale
	visited := make(map[nodeid.Key]bool)
	queue := slices.Clone(keys)
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if visited[key] {
			continue
		}
		visited[key] = true
		n, ok := g.nodes[key]
		if !ok {
			continue
		}
		if n.fresh {
			out = append(out, Stale{Key: key, Previous: n.value})
			n.fresh = false
		}
		for dependent := range n.dependents {
			if !visited[dependent] {
				queue = append(queue, dependent)
			}
		}
	}
	slices.SortFunc(out, func(a, b Stale) int { return compareKeys(a.Key, b.Key) })
	return out
}

// RemoveComponent drops every node of a component and every edge touching
// them. Consumers outside the component keep their remaining edges; callers
// invalidate them first. It returns the removed keys.
func (g *Graph) RemoveComponent(id nodeid.ComponentID) []nodeid.Key {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	var removed []nodeid.Key
	for key, n := range g.nodes {
		if key.Component != id {
			continue
		}
		for producer := range n.deps {
			if p, ok := g.nodes[producer]; ok {
				delete(p.dependents, key)
			}
		}
		for dependent := range n.dependents {
			if d, ok := g.nodes[dependent]; ok {
				delete(d.deps, key)
			}
		}
		removed = append(removed, key)
	}
	for _, key := range removed {
		delete(g.nodes, key)
	}
	sortKeys(removed)
	return removed
}

// Keys returns the keys of every node of a component.
func (g *Graph) Keys(id nodeid.ComponentID) []nodeid.Key {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	var out []nodeid.Key
	for key := range g.nodes {
		if key.Component == id {
			out = append(out, key)
		}
	}
	sortKeys(out)
	return out
}

// Dependents returns the consumers of a node.
func (g *Graph) Dependents(key nodeid.Key) []nodeid.Key {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[key]
	if !ok {
		return nil
	}
	out := make([]nodeid.Key, 0, len(n.dependents))
	for d := range n.dependents {
		out = append(out, d)
	}
	sortKeys(out)
	return out
}

// Dependencies returns a copy of the edge set of a node.
func (g *Graph) Dependencies(key nodeid.Key) Edges {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[key]
	if !ok {
		return nil
	}
	out := make(Edges, len(n.deps))
	for k, v := range n.deps {
		out[k] = v
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
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

func sortKeys(keys []nodeid.Key) {
	slices.SortFunc(keys, compareKeys)
}

// ProducersFresh reports whether every producer of key holds a fresh value.
// A node computed while one of its producers was invalidated under it must
// not be cached as fresh. Presence edges carry no value and are skipped.
func (g *Graph) ProducersFresh(key nodeid.Key) bool {
	return g.ProducersFreshExcept(key, nil)
}

// ProducersFreshExcept is ProducersFresh ignoring the producers in skip.
func (g *Graph) ProducersFreshExcept(key nodeid.Key, skip map[nodeid.Key]bool) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[key]
	if !ok {
		return true
	}
	for producer, kind := range n.deps {
		if kind == EdgePresence || skip[producer] {
			continue
		}
		if p, ok := g.nodes[producer]; !ok || !p.fresh {
			return false
		}
	}
	return true
}

// StoreStale caches a value without marking the node fresh, so that the
// next read recomputes it.
func (g *Graph) StoreStale(key nodeid.Key, v cty.Value) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	n := g.ensure(key)
	n.value = v
	n.fresh = false
}

package graph

import (
	"github.com/specialistvlad/stategrid/internal/nodeid"
)

// FindCycle looks for a cycle reachable from start along dependency edges.
// It returns the cycle as a path whose last element reads the first, or nil.
func (g *Graph) FindCycle(start nodeid.Key) []nodeid.Key {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three sets of nodes:
	// permanent: fully visited and not part of a cycle.
	// temporary: on the current recursion stack.
	// unvisited: all other nodes.
	permanent := make(map[nodeid.Key]bool)
	temporary := make(map[nodeid.Key]bool)
	var stack []nodeid.Key

	var visit func(key nodeid.Key) []nodeid.Key
	visit = func(key nodeid.Key) []nodeid.Key {
		if permanent[key] {
			return nil
		}
		if temporary[key] {
			for i, k := range stack {
				if k == key {
					return append([]nodeid.Key(nil), stack[i:]...)
				}
			}
			return nil
		}
		n, ok := g.nodes[key]
		if !ok {
			return nil
		}
		temporary[key] = true
		stack = append(stack, key)

		producers := make([]nodeid.Key, 0, len(n.deps))
		for p := range n.deps {
			producers = append(producers, p)
		}
		sortKeys(producers)
		for _, p := range producers {
			if cycle := visit(p); cycle != nil {
				return cycle
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, key)
		permanent[key] = true
		return nil
	}
	return visit(start)
}

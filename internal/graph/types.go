package graph

import (
	"sync"

	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// EdgeKind tags how a consumer uses a producer.
type EdgeKind int

const (
	// EdgeValue reads a single value.
	EdgeValue EdgeKind = iota
	// EdgeArray reads one element of a whole array of values.
	EdgeArray
	// EdgePresence reads whether an attribute exists.
	EdgePresence
	// EdgeMembership reads the membership of a child list.
	EdgeMembership
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeValue:
		return "value"
	case EdgeArray:
		return "array"
	case EdgePresence:
		return "presence"
	case EdgeMembership:
		return "membership"
	}
	return "unknown"
}

// Edges is the edge set of one consumer: producer key to edge kind.
type Edges map[nodeid.Key]EdgeKind

// Diff is the result of re-declaring a node's edges.
type Diff struct {
	Added    []nodeid.Key
	Removed  []nodeid.Key
	Retagged []nodeid.Key
}

// Empty reports whether the declaration changed nothing.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Retagged) == 0
}

// Stale is a node that went from fresh to stale, with the value it held.
type Stale struct {
	Key      nodeid.Key
	Previous cty.Value
}

// Graph is the dependency graph of one document.
type Graph struct {
	mutex sync.RWMutex
	nodes map[nodeid.Key]*node
}

type node struct {
	key        nodeid.Key
	deps       Edges
	dependents map[nodeid.Key]struct{}
	fresh      bool
	value      cty.Value
}

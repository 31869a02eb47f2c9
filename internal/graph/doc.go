// Package graph stores the dependency graph of a document's state variables.
//
// # What the Graph Holds
//
// Every node is one state variable, keyed by nodeid.Key. A node records:
//   - the producers it reads, each tagged with an EdgeKind,
//   - the consumers that read it,
//   - its cached value and whether that value is fresh.
//
// The graph never computes anything. The evaluator asks it for cached values
// and re-declares a node's edges every time it recomputes the node; the
// update coordinator and the composite manager invalidate nodes after writes
// and structural changes.
//
// # Staleness and Values
//
// Staleness is pushed, values are pulled:
//
//	  write / teardown                     read
//	        │                                │
//	        ▼                                ▼
//	┌───────────────┐   stale flag   ┌───────────────┐
//	│  Invalidate   │ ─────────────▶ │   consumers   │  recomputed only
//	│ (producer)    │   transitive   │   (lazy)      │  when next read
//	└───────────────┘                └───────────────┘
//
// A fresh node only reads fresh producers, so Invalidate reports exactly the
// nodes whose cached value stopped being trustworthy, together with that
// value. The coordinator uses it to find out what actually changed.
//
// # Re-declaration
//
// Declare replaces a node's edge set with a new one and returns the
// difference. Producers that are still read keep their registration, so a
// node whose dependencies did not change leaves the graph untouched.
//
// # Thread-Safety
//
// All methods are safe for concurrent use. A document serialises its API
// calls anyway; the lock protects readers such as renderers holding a
// Graph reference.
package graph

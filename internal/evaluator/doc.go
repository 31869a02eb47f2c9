// Package evaluator computes state variable values lazily and memoizes them
// in the dependency graph.
//
// Reading a stale node runs its definition in two phases: the DeterminedBy
// dependencies are resolved and handed to ReturnDependencies, then every
// returned dependency is resolved recursively, the node's edges are
// re-declared in the graph and the definition is called with the resolved
// bundle. Essential variables are read from the essential store, falling
// back to their default.
//
// Besides the variables of its component type, every component exposes a
// few engine variables: one node per authored attribute (`@name`), its
// active children after composite expansion (`__children`) and, for
// composites, its replacement set (`__replacements`).
//
// A node that re-enters itself while being computed resolves to the circular
// sentinel; the cycle is reported once as a diagnostic.
package evaluator

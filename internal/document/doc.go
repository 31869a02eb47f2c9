// Package document is the public handle of one live document.
//
// A Document owns everything the engine keeps for one instantiated tree:
// the component arena, the dependency graph, the essential store, the
// evaluator, the composite manager and the update coordinator. Nothing is
// global; two documents built from the same spec and seed are independent
// and behave identically.
//
// All methods serialise on one mutex, so a document is safe for concurrent
// use but only ever runs one read or update at a time.
package document

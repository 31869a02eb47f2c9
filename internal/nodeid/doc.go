/*
Package nodeid holds the identifiers of the state-variable engine.

A Key names one state variable node, the pair (ComponentID, variable). The
dependency graph, the essential store and the evaluator are indexed by Key.

An Address is an authored reference such as `rect1.vertex1`,
`list1[1].value` or `rect1.vertex1[0]`. The index after the component picks
one of a composite's replacements; the index after the variable picks an
element of a list value. The evaluator resolves addresses to keys on every
read, so a reference follows a composite's replacements as they change.
*/
package nodeid

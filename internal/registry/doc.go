// Package registry maps component type names to the definitions of their
// state variables.
//
// A ComponentType lists, per state variable, how its dependencies are
// declared (possibly depending on other state variables), the pure function
// deriving its value and an optional inverse. Component type packages under
// modules/ register themselves through the Module interface; the registry is
// validated once before any document is built from it.
package registry

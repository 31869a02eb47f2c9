// Package expr parses, analyzes and evaluates user-entered expressions.
//
// Expressions use HCL expression syntax. Parsing failures are reported as
// errors and evaluation failures as unresolved values; neither is fatal to
// the document.
package expr

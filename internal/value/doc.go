// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package value defines the payload carried by every state variable.
//
// A value is a cty.Value. The engine relies on a handful of conventions on
// top of cty:
//
//   - Unresolved is cty.DynamicVal. Any value that is not wholly known is
//     unresolved: it models "cannot currently be computed" (for example a
//     malformed user entry) and propagates silently through dependents.
//   - Circular is an unresolved value carrying the circular mark. It is the
//     sentinel a node freezes at when its definition depends on itself.
//   - Lists are tuples, so elements may be heterogeneous. Points are lists
//     of two numbers.
//   - Symbolic expressions are values of the ExprType capsule type and
//     compare structurally through their canonical rendering.
//   - Absent is a null of dynamic type, used for missing attributes.
package value

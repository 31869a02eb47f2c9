// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package composite manages the replacement subtrees of composite
// components.
//
// A composite's `__replacements` node reads the composite's determining
// variables. Computing it asks the component type for a Plan and reconciles
// the current replacement set with it:
//
//	plan unchanged                 nothing happens; same instances, same epoch
//	visibility only (gated, case)  instances kept, their Withheld flag flips
//	repeat grows or shrinks        matching prefix kept, tail built or torn down
//	template switch or reorder     everything torn down, new epoch
//	primitive                      literal replacements rebuilt freely
//
// Tearing a replacement down drops its graph nodes and essential values and
// removes it from the arena; consumers that referenced it observe absent
// values on their next read.
package composite

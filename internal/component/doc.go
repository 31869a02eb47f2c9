// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package component holds the component tree of a document.
//
// Components live in an Arena indexed by id. Every cross reference (parent,
// children, references by name) is an id lookup through the arena, so a
// component removed by its composite simply stops resolving.
package component

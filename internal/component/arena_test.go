// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package component

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Spec {
	return New("document").Append(
		SpecChild(New("number").Named("a").With("default", value.Number(1))),
		SpecChild(New("section").Append(
			SpecChild(New("text").Named("t")),
			LitChild(value.String("hello")),
			RefChild(*nodeid.MustParse("a.value")),
		)),
	)
}

func TestArena_InstantiateDepthFirst(t *testing.T) {
	a := NewArena()
	root, created := a.Instantiate(sampleTree(), 0, nil, nil)

	require.Equal(t, nodeid.ComponentID(1), root.ID)
	if diff := cmp.Diff([]nodeid.ComponentID{1, 2, 3, 4}, created); diff != "" {
		t.Errorf("creation order mismatch (-want +got):\n%s", diff)
	}

	section, ok := a.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, "section", section.Type)
	assert.Equal(t, nodeid.ComponentID(1), section.Parent)
	require.Len(t, section.Children, 3)
	assert.Equal(t, ChildComponent, section.Children[0].Kind)
	assert.Equal(t, ChildLiteral, section.Children[1].Kind)
	assert.Equal(t, ChildReference, section.Children[2].Kind)
	assert.Equal(t, "a.value", section.Children[2].Ref.String())
}

func TestArena_KeepsTemplate(t *testing.T) {
	a := NewArena()
	spec := New("case").Append(SpecChild(New("text")))
	c, created := a.Instantiate(spec, 0, nil, func(s *Spec) bool { return s.Type == "case" })

	assert.Len(t, created, 1)
	assert.Empty(t, c.Children)
	require.Len(t, c.Template, 1)
	assert.Equal(t, "text", c.Template[0].Spec.Type)
}

func TestArena_RemoveSubtree(t *testing.T) {
	a := NewArena()
	a.Instantiate(sampleTree(), 0, nil, nil)

	removed := a.Remove(3)
	assert.Equal(t, []nodeid.ComponentID{4, 3}, removed, "children are removed before parents")
	assert.False(t, a.Exists(4))
	assert.Empty(t, a.ByName("t"))
	assert.Equal(t, []nodeid.ComponentID{1, 2}, a.IDs())

	assert.Empty(t, a.Remove(42), "removing an unknown id is a no-op")
}

func TestArena_ResolveNameScoped(t *testing.T) {
	a := NewArena()
	doc, _ := a.Instantiate(New("document").Append(
		SpecChild(New("repeat").Named("list1")),
		SpecChild(New("number").Named("n")),
	), 0, nil, nil)
	repeatID := doc.Children[0].ID

	scope0 := &Scope{Composite: repeatID, Index: 0}
	scope1 := &Scope{Composite: repeatID, Index: 1}
	item0, _ := a.Instantiate(New("group").Append(SpecChild(New("number").Named("n")), SpecChild(New("text").Named("label"))), repeatID, scope0, nil)
	item1, _ := a.Instantiate(New("group").Append(SpecChild(New("number").Named("n"))), repeatID, scope1, nil)

	id, ok := a.ResolveName(item0.Children[1].ID, "n")
	require.True(t, ok)
	assert.Equal(t, item0.Children[0].ID, id, "sibling in the same replacement wins")

	id, ok = a.ResolveName(item1.ID, "n")
	require.True(t, ok)
	assert.Equal(t, item1.Children[0].ID, id)

	id, ok = a.ResolveName(doc.ID, "n")
	require.True(t, ok)
	assert.Equal(t, doc.Children[1].ID, id, "document scope sees the unscoped name")

	id, ok = a.ResolveName(doc.ID, "label")
	require.True(t, ok, "a unique name resolves from anywhere")
	assert.Equal(t, item0.Children[1].ID, id)

	_, ok = a.ResolveName(doc.ID, "missing")
	assert.False(t, ok)
}

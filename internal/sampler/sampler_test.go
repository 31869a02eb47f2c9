package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeded_Deterministic(t *testing.T) {
	a := Seeded(42)(7, 5, 2)
	b := Seeded(42)(7, 5, 2)
	require.Equal(t, a.Value(), b.Value(), "same seed and component give the same choice")

	a.Resample()
	b.Resample()
	assert.Equal(t, a.Value(), b.Value())
}

func TestUniform_Distinct(t *testing.T) {
	s := Seeded(1)(1, 4, 4)
	got := s.Value()
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, got, "choosing every option is a permutation")
}

func TestUniform_Restore(t *testing.T) {
	s := Seeded(9)(3, 10, 1)
	before := s.Value()
	s.Resample()
	s.(Restorer).Restore(before)
	assert.Equal(t, before, s.Value())
}

func TestUniform_Empty(t *testing.T) {
	assert.Empty(t, Seeded(1)(1, 0, 1).Value())
}

func TestFixed(t *testing.T) {
	f := &Fixed{Choices: [][]int{{0}, {2}}}
	assert.Equal(t, []int{0}, f.Value())
	f.Resample()
	assert.Equal(t, []int{2}, f.Value())
	f.Resample()
	assert.Equal(t, []int{0}, f.Value(), "choices cycle")
	f.Restore([]int{2})
	assert.Equal(t, []int{2}, f.Value())
}

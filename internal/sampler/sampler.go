// Package sampler provides the randomized-selection collaborator used by
// selection components.
//
// The engine only needs a handle that yields the current choice and can be
// told to resample. The default implementation picks uniformly with a PCG
// generator seeded from the document seed and the component id, so the same
// document and the same sequence of updates always produce the same choices.
package sampler

import (
	"math/rand/v2"
	"slices"

	"github.com/specialistvlad/stategrid/internal/nodeid"
)

// Sampler yields a choice of option indexes and can draw a new one.
type Sampler interface {
	Value() []int
	Resample()
}

// Restorer is implemented by samplers whose choice can be put back, which
// lets a failed update undo a resample.
type Restorer interface {
	Restore(choice []int)
}

// Factory creates the sampler of a component choosing count of size
// options.
type Factory func(id nodeid.ComponentID, size, count int) Sampler

// Seeded returns the default factory.
func Seeded(seed uint64) Factory {
	return func(id nodeid.ComponentID, size, count int) Sampler {
		return NewUniform(rand.New(rand.NewPCG(seed, uint64(id))), size, count)
	}
}

// Uniform picks count distinct indexes out of size uniformly at random. When
// count exceeds size, indexes repeat.
type Uniform struct {
	rng     *rand.Rand
	size    int
	count   int
	current []int
}

// NewUniform creates a sampler and draws its first choice.
func NewUniform(rng *rand.Rand, size, count int) *Uniform {
	u := &Uniform{rng: rng, size: size, count: count}
	u.Resample()
	return u
}

// Value returns a copy of the current choice.
func (u *Uniform) Value() []int {
	return slices.Clone(u.current)
}

// Resample draws a new choice.
func (u *Uniform) Resample() {
	if u.size <= 0 || u.count <= 0 {
		u.current = nil
		return
	}
	if u.count <= u.size {
		u.current = u.rng.Perm(u.size)[:u.count]
		return
	}
	u.current = make([]int, u.count)
	for i := range u.current {
		u.current[i] = u.rng.IntN(u.size)
	}
}

// Restore puts back a previous choice.
func (u *Uniform) Restore(choice []int) {
	u.current = slices.Clone(choice)
}

// Fixed is a sampler that cycles through predetermined choices; tests use
// it to make selections predictable.
type Fixed struct {
	Choices [][]int
	pos     int
}

// Value returns the current predetermined choice.
func (f *Fixed) Value() []int {
	if len(f.Choices) == 0 {
		return nil
	}
	return slices.Clone(f.Choices[f.pos%len(f.Choices)])
}

// Resample advances to the next choice.
func (f *Fixed) Resample() {
	f.pos++
}

// Restore moves back to the given choice if it is one of the choices.
func (f *Fixed) Restore(choice []int) {
	for i, c := range f.Choices {
		if slices.Equal(c, choice) {
			f.pos = i
			return
		}
	}
}

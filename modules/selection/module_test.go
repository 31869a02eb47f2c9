package selection

import (
	"testing"

	"github.com/specialistvlad/stategrid/internal/document"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/registry"
	"github.com/specialistvlad/stategrid/internal/sampler"
	"github.com/specialistvlad/stategrid/internal/testutil"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/specialistvlad/stategrid/modules/basic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const colors = `
text "shown" {
  select "s" {
    option {
      content = ["red"]
    }
    option {
      content = ["green"]
    }
    option {
      content = ["blue"]
    }
  }
}
`

func newRegistry() *registry.Registry {
	return registry.New().Use(&basic.Module{}, &Module{})
}

func fixed(choices ...[]int) document.Option {
	return document.WithSamplers(func(nodeid.ComponentID, int, int) sampler.Sampler {
		return &sampler.Fixed{Choices: choices}
	})
}

func TestSelect_ShowsTheChosenOption(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), colors, fixed([]int{0}, []int{2}))
	testutil.AssertValue(t, h, "s", "number_of_options", value.Int(3))
	testutil.AssertValue(t, h, "s", "selected_indices", value.List(value.Int(1)))
	testutil.AssertValue(t, h, "shown", "value", value.String("red"))

	res := h.MustSet(t, "s", "selected_indices", value.List(value.Int(1)))
	assert.NotEmpty(t, res.Changed)
	testutil.AssertValue(t, h, "s", "selected_indices", value.List(value.Int(3)))
	testutil.AssertValue(t, h, "shown", "value", value.String("blue"))
}

func TestSelect_SeveralOptions(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
text "shown" {
  select "s" {
    number_to_select = 2
    option {
      content = ["a"]
    }
    option {
      content = ["b"]
    }
    option {
      content = ["c"]
    }
  }
}
`, fixed([]int{2, 0}))
	testutil.AssertValue(t, h, "s", "selected_indices", value.List(value.Int(3), value.Int(1)))
	testutil.AssertValue(t, h, "shown", "value", value.String("ca"))
}

func TestSelect_SeedIsDeterministic(t *testing.T) {
	src := `
select "s" {
  number_to_select = 2
  option {
    content = [1]
  }
  option {
    content = [2]
  }
  option {
    content = [3]
  }
  option {
    content = [4]
  }
  option {
    content = [5]
  }
}
`
	a := testutil.NewDocument(t, newRegistry(), src, document.WithSeed(7))
	b := testutil.NewDocument(t, newRegistry(), src, document.WithSeed(7))

	first := a.Get(t, "s", "selected_indices")
	require.True(t, value.Equal(first, b.Get(t, "s", "selected_indices")))

	picked := value.Elements(first)
	require.Len(t, picked, 2)
	seen := map[int]bool{}
	for _, p := range picked {
		n, ok := value.AsInt(p)
		require.True(t, ok)
		assert.True(t, n >= 1 && n <= 5, "index %d out of range", n)
		seen[n] = true
	}
	assert.Len(t, seen, 2, "choices are distinct")

	a.MustSet(t, "s", "selected_indices", first)
	b.MustSet(t, "s", "selected_indices", first)
	assert.True(t, value.Equal(a.Get(t, "s", "selected_indices"), b.Get(t, "s", "selected_indices")))
}

func TestSelect_NoOptions(t *testing.T) {
	h := testutil.NewDocument(t, newRegistry(), `
text "shown" {
  select "s" {}
}
`)
	testutil.AssertValue(t, h, "s", "selected_indices", value.List())
	testutil.AssertValue(t, h, "shown", "value", value.String(""))
}

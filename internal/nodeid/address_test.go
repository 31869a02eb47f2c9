package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		raw     string
		want    Address
		wantErr bool
	}{
		{raw: "rect1", want: Address{Component: "rect1", Replica: NoIndex, Element: NoIndex}},
		{raw: "rect1.vertex1", want: Address{Component: "rect1", Replica: NoIndex, Variable: "vertex1", Element: NoIndex}},
		{raw: "list1[0].value", want: Address{Component: "list1", Replica: 0, Variable: "value", Element: NoIndex}},
		{raw: "rect1.vertex1[1]", want: Address{Component: "rect1", Replica: NoIndex, Variable: "vertex1", Element: 1}},
		{raw: "text-1[3]", want: Address{Component: "text-1", Replica: 3, Element: NoIndex}},
		{raw: "", wantErr: true},
		{raw: "a.b.c", wantErr: true},
		{raw: "a..b", wantErr: true},
		{raw: "a.b[x]", wantErr: true},
		{raw: "1abc", wantErr: true},
		{raw: "-", wantErr: true},
		{raw: "a[1", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			addr, err := Parse(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, *addr)
			assert.Equal(t, tc.raw, addr.String(), "parsing and printing agree")
		})
	}
}

func TestAddress_Indexes(t *testing.T) {
	addr := MustParse("list1[2].value")
	assert.True(t, addr.HasReplica())
	assert.False(t, addr.HasElement())

	bare := ComponentAddress("p")
	assert.Equal(t, "p", bare.String())
	bare.Element = 4
	assert.Equal(t, "p", bare.String(), "an element needs a variable")
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("a..b") })
}

func TestKey(t *testing.T) {
	k := NewKey(12, "width")
	assert.Equal(t, "#12.width", k.String())
	assert.True(t, NewKey(1, "z").Less(NewKey(2, "a")))
	assert.True(t, NewKey(2, "a").Less(NewKey(2, "b")))
	assert.False(t, k.Less(k))
}

package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsObject(t *testing.T) {
	assert.True(t, IsObject(map[string]any{"a": 1}))
	assert.True(t, IsObject(map[string]any{}))

	assert.False(t, IsObject(nil))
	assert.False(t, IsObject([]any{1, 2}))
	assert.False(t, IsObject("string"))
	assert.False(t, IsObject(42.0))
	assert.False(t, IsObject(map[string]any(nil)))
}

func TestToSlice_NativeSlice(t *testing.T) {
	in := []any{"a", "b"}

	out, err := ToSlice(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestToSlice_ArrayLike(t *testing.T) {
	out, err := ToSlice(map[string]any{
		"length": 3.0,
		"0":      "first",
		"1":      "second",
		"2":      "third",
	})

	require.NoError(t, err)
	assert.Equal(t, []any{"first", "second", "third"}, out)
}

func TestToSlice_ArrayLikeMissingIndex(t *testing.T) {
	out, err := ToSlice(map[string]any{
		"length": 2.0,
		"0":      "only",
	})

	require.NoError(t, err)
	assert.Equal(t, []any{"only", nil}, out)
}

func TestToSlice_NotConvertible(t *testing.T) {
	cases := []any{
		"string",
		42.0,
		nil,
		map[string]any{"a": 1},
		map[string]any{"length": "3"},
		map[string]any{"length": -1.0},
		map[string]any{"length": 1.5},
	}

	for _, c := range cases {
		_, err := ToSlice(c)
		assert.ErrorIs(t, err, ErrNotConvertible, "case %v", c)
	}
}

func TestDeepClone_Isolation(t *testing.T) {
	orig := map[string]any{
		"nested": map[string]any{"value": "before"},
		"list":   []any{1.0, 2.0},
	}

	cloned, err := DeepClone(orig)
	require.NoError(t, err)

	m, ok := cloned.(map[string]any)
	require.True(t, ok)
	m["nested"].(map[string]any)["value"] = "after"

	assert.Equal(t, "before", orig["nested"].(map[string]any)["value"])
}

func TestDeepClone_Unserializable(t *testing.T) {
	_, err := DeepClone(make(chan int))
	require.Error(t, err)
}

func TestReverseString(t *testing.T) {
	assert.Equal(t, "", ReverseString(""))
	assert.Equal(t, "a", ReverseString("a"))
	assert.Equal(t, "cba", ReverseString("abc"))
	assert.Equal(t, "語単", ReverseString("単語"))
}

package inmemory

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssociativeArray(t *testing.T) {
	a := NewAssociativeArray[string, int]()

	_, ok := a.Get("x")
	require.False(t, ok)

	a.Set("x", 1)
	a.Set("y", 2)
	a.Set("x", 3)

	v, ok := a.Get("x")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, a.Len())

	assert.True(t, a.Delete("y"))
	assert.False(t, a.Delete("y"))
	assert.Equal(t, map[string]int{"x": 3}, maps.Collect(a.Seq))
}

func TestAssociativeArrayClone(t *testing.T) {
	a := NewAssociativeArray[string, int]()
	a.Set("x", 1)

	c := a.Clone()
	a.Set("x", 2)
	a.Set("y", 3)

	assert.Equal(t, map[string]int{"x": 1}, maps.Collect(c.Seq))
	assert.Equal(t, 1, c.Len())
}

func TestAssociativeArraySnapshotRestore(t *testing.T) {
	a := NewAssociativeArray[int, string]()
	a.Set(1, "a")
	a.Set(2, "b")

	snap := a.Snapshot()
	a.Clear()
	assert.Zero(t, a.Len())

	a.Restore(snap)
	assert.Equal(t, map[int]string{1: "a", 2: "b"}, maps.Collect(a.Seq))

	snap[3] = "c"
	assert.Equal(t, 2, a.Len())
}

package collections

import (
	"context"
	"maps"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blackdeer1524/rcmock/src/transactions"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

func dictContent[K comparable, V any](
	t *testing.T,
	coord *transactions.Coordinator,
	d *Dictionary[K, V],
) map[K]V {
	t.Helper()
	ctx := context.Background()

	tx := coord.Begin()
	defer func() { require.NoError(t, tx.Commit(ctx)) }()

	entries, err := d.Enumerate(ctx, tx)
	require.NoError(t, err)
	return maps.Collect(entries)
}

func seedDictionary(t *testing.T, coord *transactions.Coordinator, d *Dictionary[string, int]) {
	t.Helper()
	ctx := context.Background()

	tx := coord.Begin()
	require.NoError(t, d.Add(ctx, tx, "a", 1))
	require.NoError(t, d.Add(ctx, tx, "b", 2))
	require.NoError(t, tx.Commit(ctx))
}

func TestDictionaryAdd(t *testing.T) {
	ctx := context.Background()
	coord, _ := newTestCoordinator(t)
	d := NewDictionary[string, int]("d")
	seedDictionary(t, coord, d)

	tx := coord.Begin()
	err := d.Add(ctx, tx, "a", 10)
	require.ErrorIs(t, err, ErrKeyExists)

	added, err := d.TryAdd(ctx, tx, "b", 20)
	require.NoError(t, err)
	assert.False(t, added)

	added, err = d.TryAdd(ctx, tx, "c", 3)
	require.NoError(t, err)
	assert.True(t, added)

	ok, err := d.ContainsKey(ctx, tx, "c")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, dictContent(t, coord, d))
}

func TestDictionaryAbortUndoesEveryOperation(t *testing.T) {
	ctx := context.Background()
	coord, _ := newTestCoordinator(t)
	d := NewDictionary[string, int]("d")
	seedDictionary(t, coord, d)

	tx := coord.Begin()
	require.NoError(t, d.Add(ctx, tx, "c", 3))
	require.NoError(t, d.Set(ctx, tx, "a", 100))
	require.NoError(t, d.Set(ctx, tx, "e", 5))

	v, err := d.AddOrUpdate(ctx, tx, "b", 0, func(_ string, old int) int { return old * 10 })
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	updated, err := d.TryUpdate(ctx, tx, "c", 30, 3, func(a, b int) bool { return a == b })
	require.NoError(t, err)
	assert.True(t, updated)

	removed, err := d.TryRemove(ctx, tx, "a")
	require.NoError(t, err)
	assert.Equal(t, 100, removed.Unwrap())

	require.NoError(t, d.Clear(ctx, tx))
	require.NoError(t, d.Set(ctx, tx, "z", 26))

	count, err := d.Count(ctx, tx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, tx.Abort(ctx))

	assert.Equal(t, map[string]int{"a": 1, "b": 2}, dictContent(t, coord, d))
}

func TestDictionaryCommit(t *testing.T) {
	ctx := context.Background()
	coord, _ := newTestCoordinator(t)
	d := NewDictionary[string, int]("d")
	seedDictionary(t, coord, d)

	tx := coord.Begin()
	v, err := d.AddOrUpdate(ctx, tx, "x", 7, func(string, int) int { return -1 })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	updated, err := d.TryUpdate(ctx, tx, "a", 11, 999, func(a, b int) bool { return a == b })
	require.NoError(t, err)
	assert.False(t, updated)

	removed, err := d.TryRemove(ctx, tx, "missing")
	require.NoError(t, err)
	assert.True(t, removed.IsNone())

	removed, err = d.TryRemove(ctx, tx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, removed.Unwrap())
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, map[string]int{"a": 1, "x": 7}, dictContent(t, coord, d))
}

func TestDictionaryReadsShareTheLock(t *testing.T) {
	ctx := context.Background()
	coord, locks := newTestCoordinator(t)
	d := NewDictionary[string, int]("d")
	seedDictionary(t, coord, d)

	t1 := coord.Begin()
	t2 := coord.Begin()

	v, err := d.TryGetValue(ctx, t1, "a", WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 1, v.Unwrap())

	v, err = d.TryGetValue(ctx, t2, "zzz", WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, v.IsNone())

	assert.Len(t, locks.Holders("d"), 2)

	err = d.Set(ctx, t2, "a", 2, WithTimeout(30*time.Millisecond))
	require.ErrorIs(t, err, txns.ErrLockTimeout)

	require.NoError(t, t1.Commit(ctx))
	require.NoError(t, d.Set(ctx, t2, "a", 2))
	require.NoError(t, t2.Commit(ctx))

	assert.Equal(t, map[string]int{"a": 2, "b": 2}, dictContent(t, coord, d))
}

func TestDictionaryEnumerateIsSnapshot(t *testing.T) {
	ctx := context.Background()
	coord, _ := newTestCoordinator(t)
	d := NewDictionary[string, int]("d")
	seedDictionary(t, coord, d)

	tx := coord.Begin()
	entries, err := d.Enumerate(ctx, tx)
	require.NoError(t, err)

	require.NoError(t, d.Set(ctx, tx, "a", 100))
	require.NoError(t, d.Set(ctx, tx, "c", 3))

	assert.Equal(t, map[string]int{"a": 1, "b": 2}, maps.Collect(entries))
	require.NoError(t, tx.Commit(ctx))
}

func TestDictionaryInterfaceValues(t *testing.T) {
	ctx := context.Background()
	coord, _ := newTestCoordinator(t)
	d := NewDictionary[int, any]("d")

	seed := coord.Begin()
	require.NoError(t, d.Set(ctx, seed, 1, nil))
	require.NoError(t, seed.Commit(ctx))

	tx := coord.Begin()
	require.NoError(t, d.Set(ctx, tx, 1, "x"))
	require.NoError(t, tx.Abort(ctx))

	assert.Equal(t, map[int]any{1: nil}, dictContent(t, coord, d))
}

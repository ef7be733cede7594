package statemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blackdeer1524/rcmock/src/collections"
	"github.com/Blackdeer1524/rcmock/src/pkg/common"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

func TestGetOrAddReturnsSameCollection(t *testing.T) {
	m := New()

	q1, err := GetOrAddQueue[string](m, "jobs")
	require.NoError(t, err)
	q2, err := GetOrAddQueue[string](m, "jobs")
	require.NoError(t, err)
	assert.Same(t, q1, q2)

	d, err := GetOrAddDictionary[string, int](m, "index")
	require.NoError(t, err)
	assert.Equal(t, "index", d.Name())

	assert.Equal(t, []string{"index", "jobs"}, m.Names())

	c, ok := m.TryGet("jobs")
	require.True(t, ok)
	assert.Same(t, q1, c.(*collections.Queue[string]))

	_, ok = m.TryGet("missing")
	assert.False(t, ok)
}

func TestGetOrAddTypeMismatch(t *testing.T) {
	m := New()

	_, err := GetOrAddQueue[string](m, "jobs")
	require.NoError(t, err)

	_, err = GetOrAddQueue[int](m, "jobs")
	require.ErrorIs(t, err, ErrCollectionTypeMismatch)

	_, err = GetOrAddDictionary[string, string](m, "jobs")
	require.ErrorIs(t, err, ErrCollectionTypeMismatch)
}

func TestGetOrAddEmptyName(t *testing.T) {
	m := New()

	_, err := GetOrAddQueue[int](m, "")
	require.ErrorIs(t, err, ErrEmptyName)
	assert.Empty(t, m.Names())
}

func TestCollectionsShareTheLockTable(t *testing.T) {
	ctx := context.Background()
	m := New(WithLockTimeout(50 * time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, m.LockManager().DefaultTimeout())

	q, err := GetOrAddQueue[int](m, "jobs")
	require.NoError(t, err)

	t1 := m.CreateTransaction()
	require.NoError(t, q.Enqueue(ctx, t1, 1))

	t2 := m.CreateTransaction()
	err = q.Enqueue(ctx, t2, 2)
	require.ErrorIs(t, err, txns.ErrLockTimeout)

	assert.ElementsMatch(t, []common.TxnID{t1.ID(), t2.ID()}, m.Coordinator().Active())

	require.NoError(t, t1.Commit(ctx))
	require.NoError(t, t2.Abort(ctx))
	assert.Zero(t, m.LockManager().Len())
	assert.Empty(t, m.Coordinator().Active())
}

func TestWithIDSource(t *testing.T) {
	ids := common.NewMockTxnIDSource(t)
	ids.On("NextTxnID").Return(common.TxnID(9)).Once()

	m := New(WithIDSource(ids))
	assert.Equal(t, common.TxnID(9), m.CreateTransaction().ID())
}

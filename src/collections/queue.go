package collections

import (
	"context"
	"iter"
	"slices"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
	"github.com/Blackdeer1524/rcmock/src/pkg/optional"
	"github.com/Blackdeer1524/rcmock/src/storage/datastructures/inmemory"
	"github.com/Blackdeer1524/rcmock/src/transactions"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

const (
	queueOpEnqueue transactions.UndoOp = iota + 1
	queueOpDequeue
	queueOpClear
)

// Queue is a FIFO queue whose operations run inside transactions. Reads
// lock the queue in Default mode, mutations in Update mode. Mutations made
// by a transaction that aborts are undone.
type Queue[T any] struct {
	transacted
	items *inmemory.Deque[T]
}

var _ transactions.Compensator = &Queue[int]{}

func NewQueue[T any](name string, opts ...Option) *Queue[T] {
	q := &Queue[T]{
		items: inmemory.NewDeque[T](),
	}
	q.init(name, collectOptions(opts))
	return q
}

// Enqueue appends item to the tail of the queue.
func (q *Queue[T]) Enqueue(
	ctx context.Context,
	tx *transactions.Txn,
	item T,
	opts ...OpOption,
) error {
	if err := q.lock(ctx, tx, txns.LockModeUpdate, collectOpOptions(opts)); err != nil {
		return err
	}

	q.latch.Lock()
	defer q.latch.Unlock()

	q.items.PushBack(item)
	r := transactions.UndoRecord{Target: q, Op: queueOpEnqueue}
	if err := tx.RegisterUndo(r); err != nil {
		assert.NoError(q.undo(r))
		return errors.Wrapf(err, "enqueue to %q", q.name)
	}
	return nil
}

// TryDequeue removes and returns the head of the queue, if there is one.
func (q *Queue[T]) TryDequeue(
	ctx context.Context,
	tx *transactions.Txn,
	opts ...OpOption,
) (optional.Optional[T], error) {
	if err := q.lock(ctx, tx, txns.LockModeUpdate, collectOpOptions(opts)); err != nil {
		return optional.None[T](), err
	}

	q.latch.Lock()
	defer q.latch.Unlock()

	item, ok := q.items.PopFront()
	if !ok {
		return optional.None[T](), nil
	}

	r := transactions.UndoRecord{Target: q, Op: queueOpDequeue, Value: item}
	if err := tx.RegisterUndo(r); err != nil {
		assert.NoError(q.undo(r))
		return optional.None[T](), errors.Wrapf(err, "dequeue from %q", q.name)
	}
	return optional.Some(item), nil
}

// TryPeek returns the head of the queue without removing it.
func (q *Queue[T]) TryPeek(
	ctx context.Context,
	tx *transactions.Txn,
	opts ...OpOption,
) (optional.Optional[T], error) {
	o := collectOpOptions(opts)
	if err := q.lock(ctx, tx, readMode(o), o); err != nil {
		return optional.None[T](), err
	}

	q.latch.RLock()
	defer q.latch.RUnlock()

	item, ok := q.items.PeekFront()
	if !ok {
		return optional.None[T](), nil
	}
	return optional.Some(item), nil
}

func (q *Queue[T]) Count(
	ctx context.Context,
	tx *transactions.Txn,
	opts ...OpOption,
) (int64, error) {
	o := collectOpOptions(opts)
	if err := q.lock(ctx, tx, readMode(o), o); err != nil {
		return 0, err
	}

	q.latch.RLock()
	defer q.latch.RUnlock()

	return int64(q.items.Len()), nil
}

// Enumerate returns the items of the queue, head first, as of the call.
func (q *Queue[T]) Enumerate(
	ctx context.Context,
	tx *transactions.Txn,
	opts ...OpOption,
) (iter.Seq[T], error) {
	o := collectOpOptions(opts)
	if err := q.lock(ctx, tx, readMode(o), o); err != nil {
		return nil, err
	}

	q.latch.RLock()
	defer q.latch.RUnlock()

	return slices.Values(q.items.Snapshot()), nil
}

// Clear removes every item. An abort brings all of them back.
func (q *Queue[T]) Clear(
	ctx context.Context,
	tx *transactions.Txn,
	opts ...OpOption,
) error {
	if err := q.lock(ctx, tx, txns.LockModeUpdate, collectOpOptions(opts)); err != nil {
		return err
	}

	q.latch.Lock()
	defer q.latch.Unlock()

	snapshot := q.items.Snapshot()
	q.items.Clear()

	r := transactions.UndoRecord{Target: q, Op: queueOpClear, Value: snapshot}
	if err := tx.RegisterUndo(r); err != nil {
		assert.NoError(q.undo(r))
		return errors.Wrapf(err, "clear %q", q.name)
	}
	return nil
}

// Compensate reverses one of the queue's own undo records.
func (q *Queue[T]) Compensate(r transactions.UndoRecord) error {
	q.latch.Lock()
	defer q.latch.Unlock()

	q.log.Debugw("compensating",
		zap.String("collection", q.name),
		zap.Uint8("op", uint8(r.Op)),
	)
	return q.undo(r)
}

// undo expects the latch to be held.
func (q *Queue[T]) undo(r transactions.UndoRecord) error {
	switch r.Op {
	case queueOpEnqueue:
		if _, ok := q.items.PopBack(); !ok {
			return errors.Errorf("queue %q: undo enqueue on an empty queue", q.name)
		}
	case queueOpDequeue:
		q.items.PushFront(valueOf[T](r.Value))
	case queueOpClear:
		q.items.Restore(valueOf[[]T](r.Value))
	default:
		return errors.Errorf("queue %q: unknown undo op %d", q.name, r.Op)
	}
	return nil
}

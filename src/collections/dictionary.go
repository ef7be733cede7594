package collections

import (
	"context"
	"iter"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
	"github.com/Blackdeer1524/rcmock/src/pkg/optional"
	"github.com/Blackdeer1524/rcmock/src/storage/datastructures/inmemory"
	"github.com/Blackdeer1524/rcmock/src/transactions"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

const (
	// the key was inserted: delete it
	dictOpDelete transactions.UndoOp = iota + 1
	// the key was overwritten or removed: put the old value back
	dictOpRestore
	dictOpClear
)

// Dictionary is a key-value map whose operations run inside transactions.
// It follows the same locking and undo rules as Queue.
type Dictionary[K comparable, V any] struct {
	transacted
	entries *inmemory.AssociativeArray[K, V]
}

var _ transactions.Compensator = &Dictionary[string, int]{}

func NewDictionary[K comparable, V any](name string, opts ...Option) *Dictionary[K, V] {
	d := &Dictionary[K, V]{
		entries: inmemory.NewAssociativeArray[K, V](),
	}
	d.init(name, collectOptions(opts))
	return d
}

// put sets key to value and registers how to take it back. The latch must be
// held for writing.
func (d *Dictionary[K, V]) put(tx *transactions.Txn, key K, value V) error {
	old, existed := d.entries.Get(key)
	d.entries.Set(key, value)

	r := transactions.UndoRecord{Target: d, Op: dictOpDelete, Key: key}
	if existed {
		r.Op = dictOpRestore
		r.Value = old
	}

	if err := tx.RegisterUndo(r); err != nil {
		assert.NoError(d.undo(r))
		return errors.Wrapf(err, "dictionary %q", d.name)
	}
	return nil
}

// Add inserts key. It fails with ErrKeyExists if key is present.
func (d *Dictionary[K, V]) Add(
	ctx context.Context,
	tx *transactions.Txn,
	key K,
	value V,
	opts ...OpOption,
) error {
	added, err := d.TryAdd(ctx, tx, key, value, opts...)
	if err != nil {
		return err
	}
	if !added {
		return errors.Wrapf(ErrKeyExists, "dictionary %q: key %v", d.name, key)
	}
	return nil
}

// TryAdd inserts key unless it is present and reports whether it did.
func (d *Dictionary[K, V]) TryAdd(
	ctx context.Context,
	tx *transactions.Txn,
	key K,
	value V,
	opts ...OpOption,
) (bool, error) {
	if err := d.lock(ctx, tx, txns.LockModeUpdate, collectOpOptions(opts)); err != nil {
		return false, err
	}

	d.latch.Lock()
	defer d.latch.Unlock()

	if _, ok := d.entries.Get(key); ok {
		return false, nil
	}
	if err := d.put(tx, key, value); err != nil {
		return false, err
	}
	return true, nil
}

// Set inserts or overwrites key.
func (d *Dictionary[K, V]) Set(
	ctx context.Context,
	tx *transactions.Txn,
	key K,
	value V,
	opts ...OpOption,
) error {
	if err := d.lock(ctx, tx, txns.LockModeUpdate, collectOpOptions(opts)); err != nil {
		return err
	}

	d.latch.Lock()
	defer d.latch.Unlock()

	return d.put(tx, key, value)
}

// AddOrUpdate inserts addValue if key is absent, otherwise stores the result
// of update applied to the current value. It returns the stored value.
func (d *Dictionary[K, V]) AddOrUpdate(
	ctx context.Context,
	tx *transactions.Txn,
	key K,
	addValue V,
	update func(K, V) V,
	opts ...OpOption,
) (V, error) {
	if err := d.lock(ctx, tx, txns.LockModeUpdate, collectOpOptions(opts)); err != nil {
		var zero V
		return zero, err
	}

	d.latch.Lock()
	defer d.latch.Unlock()

	value := addValue
	if current, ok := d.entries.Get(key); ok {
		value = update(key, current)
	}
	if err := d.put(tx, key, value); err != nil {
		var zero V
		return zero, err
	}
	return value, nil
}

// TryUpdate replaces the value of key with newValue if the current value
// equals comparison.
func (d *Dictionary[K, V]) TryUpdate(
	ctx context.Context,
	tx *transactions.Txn,
	key K,
	newValue V,
	comparison V,
	equal func(V, V) bool,
	opts ...OpOption,
) (bool, error) {
	if err := d.lock(ctx, tx, txns.LockModeUpdate, collectOpOptions(opts)); err != nil {
		return false, err
	}

	d.latch.Lock()
	defer d.latch.Unlock()

	current, ok := d.entries.Get(key)
	if !ok || !equal(current, comparison) {
		return false, nil
	}
	if err := d.put(tx, key, newValue); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Dictionary[K, V]) TryGetValue(
	ctx context.Context,
	tx *transactions.Txn,
	key K,
	opts ...OpOption,
) (optional.Optional[V], error) {
	o := collectOpOptions(opts)
	if err := d.lock(ctx, tx, readMode(o), o); err != nil {
		return optional.None[V](), err
	}

	d.latch.RLock()
	defer d.latch.RUnlock()

	v, ok := d.entries.Get(key)
	if !ok {
		return optional.None[V](), nil
	}
	return optional.Some(v), nil
}

func (d *Dictionary[K, V]) ContainsKey(
	ctx context.Context,
	tx *transactions.Txn,
	key K,
	opts ...OpOption,
) (bool, error) {
	v, err := d.TryGetValue(ctx, tx, key, opts...)
	if err != nil {
		return false, err
	}
	return v.IsSome(), nil
}

// TryRemove deletes key and returns the value it had.
func (d *Dictionary[K, V]) TryRemove(
	ctx context.Context,
	tx *transactions.Txn,
	key K,
	opts ...OpOption,
) (optional.Optional[V], error) {
	if err := d.lock(ctx, tx, txns.LockModeUpdate, collectOpOptions(opts)); err != nil {
		return optional.None[V](), err
	}

	d.latch.Lock()
	defer d.latch.Unlock()

	old, ok := d.entries.Get(key)
	if !ok {
		return optional.None[V](), nil
	}
	d.entries.Delete(key)

	r := transactions.UndoRecord{Target: d, Op: dictOpRestore, Key: key, Value: old}
	if err := tx.RegisterUndo(r); err != nil {
		assert.NoError(d.undo(r))
		return optional.None[V](), errors.Wrapf(err, "dictionary %q", d.name)
	}
	return optional.Some(old), nil
}

func (d *Dictionary[K, V]) Count(
	ctx context.Context,
	tx *transactions.Txn,
	opts ...OpOption,
) (int64, error) {
	o := collectOpOptions(opts)
	if err := d.lock(ctx, tx, readMode(o), o); err != nil {
		return 0, err
	}

	d.latch.RLock()
	defer d.latch.RUnlock()

	return int64(d.entries.Len()), nil
}

// Enumerate returns the entries as of the call, in no particular order.
func (d *Dictionary[K, V]) Enumerate(
	ctx context.Context,
	tx *transactions.Txn,
	opts ...OpOption,
) (iter.Seq2[K, V], error) {
	o := collectOpOptions(opts)
	if err := d.lock(ctx, tx, readMode(o), o); err != nil {
		return nil, err
	}

	d.latch.RLock()
	defer d.latch.RUnlock()

	return d.entries.Clone().Seq, nil
}

func (d *Dictionary[K, V]) Clear(
	ctx context.Context,
	tx *transactions.Txn,
	opts ...OpOption,
) error {
	if err := d.lock(ctx, tx, txns.LockModeUpdate, collectOpOptions(opts)); err != nil {
		return err
	}

	d.latch.Lock()
	defer d.latch.Unlock()

	snapshot := d.entries.Snapshot()
	d.entries.Clear()

	r := transactions.UndoRecord{Target: d, Op: dictOpClear, Value: snapshot}
	if err := tx.RegisterUndo(r); err != nil {
		assert.NoError(d.undo(r))
		return errors.Wrapf(err, "dictionary %q", d.name)
	}
	return nil
}

func (d *Dictionary[K, V]) Compensate(r transactions.UndoRecord) error {
	d.latch.Lock()
	defer d.latch.Unlock()

	d.log.Debugw("compensating",
		zap.String("collection", d.name),
		zap.Uint8("op", uint8(r.Op)),
	)
	return d.undo(r)
}

// undo expects the latch to be held.
func (d *Dictionary[K, V]) undo(r transactions.UndoRecord) error {
	switch r.Op {
	case dictOpDelete:
		key := valueOf[K](r.Key)
		if !d.entries.Delete(key) {
			return errors.Errorf("dictionary %q: undo insert of missing key %v", d.name, key)
		}
	case dictOpRestore:
		d.entries.Set(valueOf[K](r.Key), valueOf[V](r.Value))
	case dictOpClear:
		d.entries.Restore(valueOf[map[K]V](r.Value))
	default:
		return errors.Errorf("dictionary %q: unknown undo op %d", d.name, r.Op)
	}
	return nil
}

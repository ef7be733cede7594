package collections

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src"
	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
	"github.com/Blackdeer1524/rcmock/src/transactions"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

// ErrKeyExists is returned by Dictionary.Add for a key that is present.
var ErrKeyExists = errors.New("key already exists")

// transacted is the part every collection shares. The collection name is the
// key it is locked under, so locking is per collection.
//
// The logical lock decides which transaction may touch the store; latch
// only serializes the physical access of the goroutines that are allowed to,
// e.g. two readers holding Default locks, or an abort replaying undo records.
type transacted struct {
	name string
	log  src.Logger

	latch sync.RWMutex
}

func (c *transacted) init(name string, o options) {
	assert.Assert(name != "", "collection name is empty")
	c.name = name
	c.log = o.log
}

func (c *transacted) Name() string {
	return c.name
}

// lock makes tx hold the collection in lockMode. The lock stays with tx until
// it commits or aborts.
func (c *transacted) lock(
	ctx context.Context,
	tx *transactions.Txn,
	lockMode txns.LockMode,
	o opOptions,
) error {
	assert.Assert(tx != nil, "collection %q: nil transaction", c.name)

	if !tx.IsActive() {
		return errors.Wrapf(
			transactions.ErrTxnNotActive,
			"collection %q: txn %d",
			c.name,
			tx.ID(),
		)
	}

	if err := tx.Acquire(ctx, c.name, lockMode, o.timeout); err != nil {
		c.log.Debugw("lock not acquired",
			zap.String("collection", c.name),
			zap.Uint64("txn_id", uint64(tx.ID())),
			zap.Stringer("mode", lockMode),
			zap.Error(err),
		)
		return errors.Wrapf(err, "collection %q", c.name)
	}
	return nil
}

// readMode is the mode reads lock with unless the caller asked for another.
func readMode(o opOptions) txns.LockMode {
	return o.lockMode.ValueOr(txns.LockModeDefault)
}

// valueOf unpacks an undo record payload. A nil payload is the zero value,
// which is what a nil interface-typed item is stored as.
func valueOf[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return assert.Cast[T](v)
}

package transactions

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
	"github.com/Blackdeer1524/rcmock/src/pkg/common"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

// Txn is the context of one logical unit of work. It remembers the locks the
// transaction took and how to undo every mutation it made. A Txn reaches
// exactly one terminal state and is never reused.
type Txn struct {
	id        common.TxnID
	startedAt time.Time
	coord     *Coordinator

	mu     sync.Mutex
	status Status
	undo   undoLog
	locks  map[string]txns.LockMode
}

func newTxn(id common.TxnID, coord *Coordinator) *Txn {
	return &Txn{
		id:        id,
		startedAt: time.Now(),
		coord:     coord,
		status:    StatusActive,
		locks:     map[string]txns.LockMode{},
	}
}

func (t *Txn) ID() common.TxnID {
	return t.id
}

func (t *Txn) StartedAt() time.Time {
	return t.startedAt
}

func (t *Txn) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.status
}

func (t *Txn) IsActive() bool {
	return t.Status() == StatusActive
}

// UndoLen returns the number of registered undo records.
func (t *Txn) UndoLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.undo.len()
}

// HeldLocks returns the objects the transaction locked and the strongest
// mode it asked for on each.
func (t *Txn) HeldLocks() map[string]txns.LockMode {
	t.mu.Lock()
	defer t.mu.Unlock()

	return maps.Clone(t.locks)
}

func (t *Txn) notActiveErr(op string) error {
	return errors.Wrapf(ErrTxnNotActive, "%s: txn %d is %s", op, t.id, t.status)
}

// Acquire locks objectID for the transaction. The lock is held until the
// transaction commits or aborts.
func (t *Txn) Acquire(
	ctx context.Context,
	objectID string,
	lockMode txns.LockMode,
	timeout time.Duration,
) error {
	if !t.IsActive() {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.notActiveErr("acquire")
	}

	if err := t.coord.locks.Acquire(ctx, t.id, objectID, lockMode, timeout); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusActive {
		// the transaction ended while we were waiting: drop whatever the
		// lock table still has for it
		t.coord.locks.ReleaseAll(t.id)
		return t.notActiveErr("acquire")
	}

	if held, ok := t.locks[objectID]; ok {
		lockMode = held.Stronger(lockMode)
	}
	t.locks[objectID] = lockMode

	return nil
}

// RegisterUndo appends r to the undo log. The record is replayed only if the
// transaction aborts.
func (t *Txn) RegisterUndo(r UndoRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusActive {
		return t.notActiveErr("register undo")
	}

	t.undo.append(r)
	return nil
}

// RegisterAbortAction appends an opaque compensating action to the undo log.
func (t *Txn) RegisterAbortAction(action func()) error {
	assert.Assert(action != nil, "nil abort action")
	return t.RegisterUndo(callbackRecord(action))
}

// Commit discards the undo log and releases every lock of the transaction.
func (t *Txn) Commit(ctx context.Context) error {
	_, span := t.coord.tracer.Start(ctx, "txn.commit")
	defer span.End()
	span.SetAttributes(attribute.Int64("txn.id", int64(t.id)))

	t.mu.Lock()
	if t.status != StatusActive {
		err := t.notActiveErr("commit")
		t.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction is not active")
		return err
	}

	t.status = StatusCommitted
	discarded := t.undo.drain()
	t.mu.Unlock()

	span.SetAttributes(attribute.Int("txn.undo_records", len(discarded)))
	t.coord.finish(t)

	t.coord.log.Debugw("transaction committed",
		zap.Uint64("txn_id", uint64(t.id)),
		zap.Int("undo_records", len(discarded)),
		zap.Duration("duration", time.Since(t.startedAt)),
	)
	return nil
}

// Abort replays the undo log in reverse order, then releases every lock of
// the transaction. A compensation that fails leaves the collections in an
// unknown state, so it panics.
func (t *Txn) Abort(ctx context.Context) error {
	_, span := t.coord.tracer.Start(ctx, "txn.abort")
	defer span.End()
	span.SetAttributes(attribute.Int64("txn.id", int64(t.id)))

	t.mu.Lock()
	if t.status != StatusActive {
		err := t.notActiveErr("abort")
		t.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction is not active")
		return err
	}

	t.status = StatusAborted
	records := t.undo.drain()
	t.mu.Unlock()

	span.SetAttributes(attribute.Int("txn.undo_records", len(records)))

	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if err := r.Target.Compensate(r); err != nil {
			t.coord.log.Errorw("compensation failed",
				zap.Uint64("txn_id", uint64(t.id)),
				zap.Int("record", i),
				zap.Uint8("op", uint8(r.Op)),
				zap.Error(err),
			)
			assert.NoErrorf(err, "txn %d: compensating record %d", t.id, i)
		}
	}

	t.coord.finish(t)

	t.coord.log.Debugw("transaction aborted",
		zap.Uint64("txn_id", uint64(t.id)),
		zap.Int("undo_records", len(records)),
		zap.Duration("duration", time.Since(t.startedAt)),
	)
	return nil
}

// Close aborts the transaction unless it already reached a terminal state.
func (t *Txn) Close(ctx context.Context) error {
	if !t.IsActive() {
		return nil
	}

	err := t.Abort(ctx)
	if errors.Is(err, ErrTxnNotActive) {
		// lost a race against a concurrent Commit or Abort
		return nil
	}
	return err
}

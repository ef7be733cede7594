package txns

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src"
	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
	"github.com/Blackdeer1524/rcmock/src/pkg/common"
)

// DefaultLockTimeout is used by requests that don't specify a positive
// timeout.
const DefaultLockTimeout = 4 * time.Second

type managerOptions struct {
	log            src.Logger
	defaultTimeout time.Duration
	meterProvider  metric.MeterProvider
}

type ManagerOption func(*managerOptions)

func WithLogger(log src.Logger) ManagerOption {
	return func(o *managerOptions) {
		o.log = log
	}
}

func WithDefaultTimeout(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.defaultTimeout = d
		}
	}
}

func WithMeterProvider(p metric.MeterProvider) ManagerOption {
	return func(o *managerOptions) {
		o.meterProvider = p
	}
}

// Manager is the lock table of a process: it maps every locked object to its
// holders and FIFO wait queue. The logical locks it hands out are scoped to
// transactions and only go away through Release or ReleaseAll.
type Manager[ObjectIDType comparable] struct {
	log            src.Logger
	defaultTimeout time.Duration
	metrics        *lockMetrics

	tableGuard    sync.Mutex
	entries       map[ObjectIDType]*lockEntry
	lockedObjects map[common.TxnID]map[ObjectIDType]struct{}
}

func NewManager[ObjectIDType comparable](opts ...ManagerOption) *Manager[ObjectIDType] {
	o := managerOptions{
		log:            zap.NewNop().Sugar(),
		defaultTimeout: DefaultLockTimeout,
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Manager[ObjectIDType]{
		log:            o.log,
		defaultTimeout: o.defaultTimeout,
		metrics:        newLockMetrics(o.meterProvider),

		entries:       map[ObjectIDType]*lockEntry{},
		lockedObjects: map[common.TxnID]map[ObjectIDType]struct{}{},
	}
}

func (m *Manager[ObjectIDType]) DefaultTimeout() time.Duration {
	return m.defaultTimeout
}

// Acquire grants txnID a lock on objectID in lockMode, waiting for at most
// timeout (the manager's default if timeout <= 0).
//
// The request is granted right away when the object is unlocked, when the
// transaction already holds an equal or stronger mode, or when the mode is
// compatible with every other holder and nobody is queued before it.
// Otherwise the caller is suspended until the request reaches the head of the
// queue and becomes compatible, the timeout elapses (ErrLockTimeout) or ctx
// is done (ErrLockCanceled). A failed request leaves no trace in the table.
func (m *Manager[ObjectIDType]) Acquire(
	ctx context.Context,
	txnID common.TxnID,
	objectID ObjectIDType,
	lockMode LockMode,
	timeout time.Duration,
) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(ErrLockCanceled, "txn %d on %v: %v", txnID, objectID, err)
	}

	if timeout <= 0 {
		timeout = m.defaultTimeout
	}

	r := m.tryAcquire(txnID, objectID, lockMode)
	if r == nil {
		m.metrics.granted(ctx, lockMode, 0)
		return nil
	}

	m.metrics.queued(ctx, lockMode)
	m.log.Debugw("lock request queued",
		zap.Uint64("txn_id", uint64(txnID)),
		zap.Any("object_id", objectID),
		zap.Stringer("lock_mode", lockMode),
		zap.Bool("upgrade", r.isUpgrade),
	)

	return m.wait(ctx, objectID, r, timeout)
}

// tryAcquire grants the lock if possible and returns nil. Otherwise it
// enqueues a request and returns it.
func (m *Manager[ObjectIDType]) tryAcquire(
	txnID common.TxnID,
	objectID ObjectIDType,
	lockMode LockMode,
) *txnQueueEntry {
	m.tableGuard.Lock()
	defer m.tableGuard.Unlock()

	entry, ok := m.entries[objectID]
	if !ok {
		entry = newLockEntry()
		m.entries[objectID] = entry
	}

	held, isHolder := entry.holders[txnID]
	if isHolder && lockMode.WeakerOrEqual(held) {
		return nil
	}

	// Holders don't queue behind requests that are waiting for them.
	if entry.compatibleWithHolders(txnID, lockMode) &&
		(isHolder || entry.waiters.Len() == 0) {
		entry.grant(txnID, lockMode)
		m.track(txnID, objectID)
		return nil
	}

	r := &txnQueueEntry{
		txnID:     txnID,
		lockMode:  lockMode,
		isUpgrade: isHolder,
		enqueued:  time.Now(),
		notifier:  make(chan struct{}),
	}
	entry.enqueue(r)

	return r
}

func (m *Manager[ObjectIDType]) wait(
	ctx context.Context,
	objectID ObjectIDType,
	r *txnQueueEntry,
	timeout time.Duration,
) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var cause error
	select {
	case <-r.notifier:
		m.metrics.granted(ctx, r.lockMode, time.Since(r.enqueued))
		return nil
	case <-timer.C:
		cause = ErrLockTimeout
	case <-ctx.Done():
		cause = ErrLockCanceled
	}

	if !m.abandon(objectID, r) {
		// the grant won the race against the timer or the context
		m.metrics.granted(ctx, r.lockMode, time.Since(r.enqueued))
		return nil
	}

	waited := time.Since(r.enqueued)
	m.metrics.gaveUp(ctx, r.lockMode, cause, waited)
	m.log.Debugw("lock request abandoned",
		zap.Uint64("txn_id", uint64(r.txnID)),
		zap.Any("object_id", objectID),
		zap.Stringer("lock_mode", r.lockMode),
		zap.Duration("waited", waited),
		zap.Error(cause),
	)

	if cause == ErrLockCanceled {
		return errors.Wrapf(cause, "txn %d on %v in %s mode: %v",
			r.txnID, objectID, r.lockMode, context.Cause(ctx))
	}
	return errors.Wrapf(cause, "txn %d on %v in %s mode after %s",
		r.txnID, objectID, r.lockMode, timeout)
}

// abandon removes a request that gave up. It returns false if the request
// had been granted in the meantime, in which case the lock is kept.
func (m *Manager[ObjectIDType]) abandon(objectID ObjectIDType, r *txnQueueEntry) bool {
	m.tableGuard.Lock()
	defer m.tableGuard.Unlock()

	if r.isGranted {
		return false
	}

	entry, ok := m.entries[objectID]
	assert.Assert(ok, "waiting on an object %v that has no lock entry", objectID)

	entry.remove(r)
	// the request may have been the one blocking its followers
	m.processBatch(objectID, entry)

	return true
}

// processBatch grants what the queue head allows and drops the entry once
// nobody holds or waits for the object.
func (m *Manager[ObjectIDType]) processBatch(objectID ObjectIDType, entry *lockEntry) {
	for _, r := range entry.processBatch() {
		m.track(r.txnID, objectID)
	}

	if entry.isUnlocked() {
		delete(m.entries, objectID)
	}
}

func (m *Manager[ObjectIDType]) track(txnID common.TxnID, objectID ObjectIDType) {
	locked, ok := m.lockedObjects[txnID]
	if !ok {
		locked = map[ObjectIDType]struct{}{}
		m.lockedObjects[txnID] = locked
	}
	locked[objectID] = struct{}{}
}

// Release drops the lock txnID holds on objectID.
// Panics if the transaction doesn't hold it.
func (m *Manager[ObjectIDType]) Release(txnID common.TxnID, objectID ObjectIDType) {
	m.tableGuard.Lock()
	defer m.tableGuard.Unlock()

	locked, ok := m.lockedObjects[txnID]
	assert.Assert(ok, "txn %d holds no locks", txnID)

	_, ok = locked[objectID]
	assert.Assert(ok, "txn %d doesn't hold a lock on %v", txnID, objectID)

	delete(locked, objectID)
	if len(locked) == 0 {
		delete(m.lockedObjects, txnID)
	}

	m.release(txnID, objectID)
}

// ReleaseAll drops every lock held by txnID and wakes up whoever can proceed.
// Releasing a transaction without locks is a no-op.
func (m *Manager[ObjectIDType]) ReleaseAll(txnID common.TxnID) {
	m.tableGuard.Lock()
	defer m.tableGuard.Unlock()

	locked := m.lockedObjects[txnID]
	delete(m.lockedObjects, txnID)

	for objectID := range locked {
		m.release(txnID, objectID)
	}
}

func (m *Manager[ObjectIDType]) release(txnID common.TxnID, objectID ObjectIDType) {
	entry, ok := m.entries[objectID]
	assert.Assert(ok, "releasing txn %d on the unlocked object %v", txnID, objectID)

	_, ok = entry.holders[txnID]
	assert.Assert(ok, "txn %d is not a holder of %v", txnID, objectID)

	delete(entry.holders, txnID)
	m.processBatch(objectID, entry)
}

// HeldBy returns the objects txnID holds and the modes it holds them in.
func (m *Manager[ObjectIDType]) HeldBy(txnID common.TxnID) map[ObjectIDType]LockMode {
	m.tableGuard.Lock()
	defer m.tableGuard.Unlock()

	held := make(map[ObjectIDType]LockMode, len(m.lockedObjects[txnID]))
	for objectID := range m.lockedObjects[txnID] {
		held[objectID] = m.entries[objectID].holders[txnID]
	}
	return held
}

// Holders returns a copy of the holder set of objectID.
func (m *Manager[ObjectIDType]) Holders(objectID ObjectIDType) map[common.TxnID]LockMode {
	m.tableGuard.Lock()
	defer m.tableGuard.Unlock()

	entry, ok := m.entries[objectID]
	if !ok {
		return map[common.TxnID]LockMode{}
	}
	return maps.Clone(entry.holders)
}

// GrantedMode returns the strongest mode objectID is locked in, and false if
// it is unlocked.
func (m *Manager[ObjectIDType]) GrantedMode(objectID ObjectIDType) (LockMode, bool) {
	m.tableGuard.Lock()
	defer m.tableGuard.Unlock()

	entry, ok := m.entries[objectID]
	if !ok || len(entry.holders) == 0 {
		return LockModeDefault, false
	}
	return entry.grantedMode(), true
}

// Waiters returns the number of queued requests on objectID.
func (m *Manager[ObjectIDType]) Waiters(objectID ObjectIDType) int {
	m.tableGuard.Lock()
	defer m.tableGuard.Unlock()

	entry, ok := m.entries[objectID]
	if !ok {
		return 0
	}
	return entry.waiters.Len()
}

// Len returns the number of objects that are locked or waited for.
func (m *Manager[ObjectIDType]) Len() int {
	m.tableGuard.Lock()
	defer m.tableGuard.Unlock()

	return len(m.entries)
}

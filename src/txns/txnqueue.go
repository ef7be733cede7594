package txns

import (
	"container/list"
	"time"

	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
	"github.com/Blackdeer1524/rcmock/src/pkg/common"
)

// txnQueueEntry is a pending lock request. notifier is closed exactly once,
// when the request is granted.
type txnQueueEntry struct {
	txnID     common.TxnID
	lockMode  LockMode
	isUpgrade bool
	enqueued  time.Time

	notifier  chan struct{}
	isGranted bool
	elem      *list.Element
}

// lockEntry is the state of a single locked object: who holds it in which
// mode and who waits for it. Every method requires the manager's table
// guard to be held.
type lockEntry struct {
	holders map[common.TxnID]LockMode
	waiters *list.List // of *txnQueueEntry, FIFO
}

func newLockEntry() *lockEntry {
	return &lockEntry{
		holders: map[common.TxnID]LockMode{},
		waiters: list.New(),
	}
}

// grantedMode is the strongest mode among the current holders.
func (e *lockEntry) grantedMode() LockMode {
	granted := LockModeDefault
	for _, m := range e.holders {
		granted = granted.Stronger(m)
	}
	return granted
}

// compatibleWithHolders reports whether txnID may hold lockMode next to
// every other holder. A transaction never conflicts with itself.
func (e *lockEntry) compatibleWithHolders(txnID common.TxnID, lockMode LockMode) bool {
	for holderID, held := range e.holders {
		if holderID == txnID {
			continue
		}
		if !held.Compatible(lockMode) {
			return false
		}
	}
	return true
}

func (e *lockEntry) grant(txnID common.TxnID, lockMode LockMode) {
	if held, ok := e.holders[txnID]; ok {
		lockMode = held.Stronger(lockMode)
	}
	e.holders[txnID] = lockMode
}

// enqueue puts plain requests at the tail. Upgrades go in front of every
// plain request but after upgrades that are already pending: a holder that
// waits behind a request which waits for that very holder would never be
// woken up.
func (e *lockEntry) enqueue(r *txnQueueEntry) {
	if !r.isUpgrade {
		r.elem = e.waiters.PushBack(r)
		return
	}

	for el := e.waiters.Front(); el != nil; el = el.Next() {
		if !el.Value.(*txnQueueEntry).isUpgrade {
			r.elem = e.waiters.InsertBefore(r, el)
			return
		}
	}
	r.elem = e.waiters.PushBack(r)
}

func (e *lockEntry) remove(r *txnQueueEntry) {
	assert.Assert(!r.isGranted, "removing granted request of txn %d", r.txnID)
	e.waiters.Remove(r.elem)
	r.elem = nil
}

// processBatch grants the longest FIFO prefix of waiters that is compatible
// with the holders: either a single UPDATE request or a contiguous run of
// DEFAULT ones. It stops at the first request that can't be granted, so a
// waiter is never overtaken by a later one.
func (e *lockEntry) processBatch() []*txnQueueEntry {
	var granted []*txnQueueEntry

	for el := e.waiters.Front(); el != nil; {
		r := el.Value.(*txnQueueEntry)
		if !e.compatibleWithHolders(r.txnID, r.lockMode) {
			break
		}

		next := el.Next()
		e.waiters.Remove(el)
		r.elem = nil

		e.grant(r.txnID, r.lockMode)
		r.isGranted = true
		close(r.notifier) // grants the lock to the waiting transaction

		granted = append(granted, r)
		el = next
	}

	return granted
}

func (e *lockEntry) isUnlocked() bool {
	return len(e.holders) == 0 && e.waiters.Len() == 0
}

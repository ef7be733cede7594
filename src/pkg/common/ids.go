package common

import "sync/atomic"

/* a monotonically increasing counter. It is guaranteed to be unique between
 * transactions of a single process.
 * WARN: it is meaningless across processes */
type TxnID uint64

// NilTxnID is never handed out by a TxnIDSource.
const NilTxnID TxnID = 0

// TxnIDSource supplies identifiers for freshly begun transactions.
type TxnIDSource interface {
	NextTxnID() TxnID
}

type CounterTxnIDSource struct {
	last atomic.Uint64
}

var _ TxnIDSource = &CounterTxnIDSource{}

// NewCounterTxnIDSource returns a source whose first identifier is after+1.
func NewCounterTxnIDSource(after TxnID) *CounterTxnIDSource {
	s := &CounterTxnIDSource{}
	s.last.Store(uint64(after))

	return s
}

func (s *CounterTxnIDSource) NextTxnID() TxnID {
	return TxnID(s.last.Add(1))
}

package transactions

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/Blackdeer1524/rcmock/src/pkg/common"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

var (
	// ErrTxnNotActive is returned by operations on a committed or aborted
	// transaction.
	ErrTxnNotActive = errors.New("transaction is not active")

	// ErrTxnNotFound is returned when joining an unknown transaction.
	ErrTxnNotFound = errors.New("transaction not found")
)

type Status int

const (
	StatusActive Status = iota
	StatusCommitted
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusCommitted:
		return "COMMITTED"
	case StatusAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// LockManager is the part of the lock table transactions talk to.
// *txns.Manager[string] implements it.
type LockManager interface {
	Acquire(
		ctx context.Context,
		txnID common.TxnID,
		objectID string,
		lockMode txns.LockMode,
		timeout time.Duration,
	) error
	Release(txnID common.TxnID, objectID string)
	ReleaseAll(txnID common.TxnID)
}

var _ LockManager = &txns.Manager[string]{}

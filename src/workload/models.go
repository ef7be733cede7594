package workload

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

const (
	QueueName  = "workload.items"
	LedgerName = "workload.ledger"

	ledgerEnqueued = "enqueued"
	ledgerDequeued = "dequeued"
)

type Config struct {
	Workers           int
	Transactions      int
	OpsPerTransaction int
	// AbortRatio is the share of transactions that abort on purpose after
	// doing their work.
	AbortRatio  float64
	LockTimeout time.Duration
	Seed        uint64
}

func (c Config) Validate() error {
	switch {
	case c.Workers <= 0:
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	case c.Transactions < 0:
		return errors.Errorf("transactions must not be negative, got %d", c.Transactions)
	case c.OpsPerTransaction <= 0:
		return errors.Errorf("ops per transaction must be positive, got %d", c.OpsPerTransaction)
	case c.AbortRatio < 0 || c.AbortRatio > 1:
		return errors.Errorf("abort ratio must be within [0, 1], got %v", c.AbortRatio)
	}
	return nil
}

// Stats describes a finished run. Enqueued and Dequeued count the effects
// of committed transactions only.
type Stats struct {
	RunID    uuid.UUID
	Started  time.Time
	Duration time.Duration

	Committed    int64
	Aborted      int64
	LockTimeouts int64

	Enqueued   int64
	Dequeued   int64
	FinalCount int64

	// LedgerEnqueued and LedgerDequeued are the counters the transactions
	// kept in the ledger dictionary next to the queue.
	LedgerEnqueued int64
	LedgerDequeued int64
}

// Consistent reports whether the queue content agrees with what the
// committed transactions did.
func (s Stats) Consistent() bool {
	return s.FinalCount == s.Enqueued-s.Dequeued &&
		s.LedgerEnqueued == s.Enqueued &&
		s.LedgerDequeued == s.Dequeued
}

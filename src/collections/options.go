package collections

import (
	"time"

	"go.uber.org/zap"

	"github.com/Blackdeer1524/rcmock/src"
	"github.com/Blackdeer1524/rcmock/src/pkg/optional"
	"github.com/Blackdeer1524/rcmock/src/txns"
)

type options struct {
	log src.Logger
}

// Option configures a collection at construction.
type Option func(*options)

func WithLogger(log src.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func collectOptions(opts []Option) options {
	o := options{
		log: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type opOptions struct {
	timeout  time.Duration
	lockMode optional.Optional[txns.LockMode]
}

// OpOption tunes a single collection operation.
type OpOption func(*opOptions)

// WithTimeout bounds the time an operation waits for its lock. A
// non-positive timeout means the lock manager default.
func WithTimeout(d time.Duration) OpOption {
	return func(o *opOptions) {
		o.timeout = d
	}
}

// WithLockMode overrides the lock mode of a read. It is ignored by
// mutations, which always lock for update.
func WithLockMode(m txns.LockMode) OpOption {
	return func(o *opOptions) {
		o.lockMode = optional.Some(m)
	}
}

func collectOpOptions(opts []OpOption) opOptions {
	o := opOptions{
		lockMode: optional.None[txns.LockMode](),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

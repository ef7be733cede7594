package txns

import "github.com/go-faster/errors"

var (
	// ErrLockTimeout is returned when a waiter could not be granted its lock
	// before its timeout elapsed.
	ErrLockTimeout = errors.New("lock request timed out")

	// ErrLockCanceled is returned when the waiter's context was done before
	// the lock was granted.
	ErrLockCanceled = errors.New("lock request canceled")
)

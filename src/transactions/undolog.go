package transactions

import (
	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
)

// UndoOp tags a reversible operation. Its meaning is private to the
// Compensator that registered the record.
type UndoOp uint8

// Compensator reverses the operations it recorded. Compensate must restore
// the state that preceded the operation and is never expected to fail: an
// error is treated as a broken invariant.
type Compensator interface {
	Compensate(r UndoRecord) error
}

// UndoRecord describes how to reverse a single mutation.
type UndoRecord struct {
	Target Compensator
	Op     UndoOp
	Key    any
	Value  any
}

const undoOpCallback UndoOp = 0

type callbackCompensator struct{}

func (callbackCompensator) Compensate(r UndoRecord) error {
	assert.Assert(r.Op == undoOpCallback, "unexpected undo op %d", r.Op)
	assert.Cast[func()](r.Value)()
	return nil
}

// callbackRecord wraps an opaque abort action into a record.
func callbackRecord(action func()) UndoRecord {
	return UndoRecord{
		Target: callbackCompensator{},
		Op:     undoOpCallback,
		Value:  action,
	}
}

// undoLog is append-only while the transaction runs and is drained once.
type undoLog struct {
	records []UndoRecord
}

func (l *undoLog) append(r UndoRecord) {
	assert.Assert(r.Target != nil, "undo record without a target")
	l.records = append(l.records, r)
}

func (l *undoLog) len() int {
	return len(l.records)
}

// drain hands the records over in the order they were appended and leaves
// the log empty.
func (l *undoLog) drain() []UndoRecord {
	records := l.records
	l.records = nil
	return records
}

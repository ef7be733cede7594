package txns

import (
	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
)

type TaggedType[T any] struct{ v T } // this trick forbids casting one lock mode to another

// LockMode is the access intent a transaction declares on a collection.
// The zero value is LockModeDefault.
type LockMode TaggedType[uint8]

var (
	// LockModeDefault is the shared (read) intent.
	LockModeDefault LockMode = LockMode{0}
	// LockModeUpdate is the exclusive (write) intent.
	LockModeUpdate LockMode = LockMode{1}
)

// Compatible reports whether two different transactions may hold m and
// other on the same object at the same time.
func (m LockMode) Compatible(other LockMode) bool {
	return m == LockModeDefault && other == LockModeDefault
}

// WeakerOrEqual reports whether holding other already covers a request for m.
func (m LockMode) WeakerOrEqual(other LockMode) bool {
	return m.v <= other.v
}

// Upgradable reports whether a holder of m may ask for `to` as an upgrade.
func (m LockMode) Upgradable(to LockMode) bool {
	return m.v < to.v
}

// Stronger returns the stronger of the two modes.
func (m LockMode) Stronger(other LockMode) LockMode {
	if m.v >= other.v {
		return m
	}
	return other
}

func (m LockMode) String() string {
	switch m {
	case LockModeDefault:
		return "DEFAULT"
	case LockModeUpdate:
		return "UPDATE"
	}

	assert.Unreachable("unknown lock mode ", m.v)
	return ""
}

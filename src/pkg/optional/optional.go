package optional

import (
	"fmt"

	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
)

type optionalTagT int

const (
	optionalNoneTag optionalTagT = iota
	optionalSomeTag
)

// Optional is a value that may be absent. It is what the try-operations of
// the collections hand back instead of a (value, ok) pair.
type Optional[T any] struct {
	tag   optionalTagT
	value T
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{
		tag:   optionalSomeTag,
		value: value,
	}
}

func None[T any]() Optional[T] {
	return Optional[T]{
		tag: optionalNoneTag,
	}
}

func (opt Optional[T]) Expect(msg string) T {
	assert.Assert(opt.tag != optionalNoneTag, msg)
	return opt.value
}

func (opt Optional[T]) Unwrap() T {
	assert.Assert(opt.tag != optionalNoneTag, "unwrapping an empty optional")
	return opt.value
}

// Get returns the value and whether it is present.
func (opt Optional[T]) Get() (T, bool) {
	return opt.value, opt.tag == optionalSomeTag
}

func (opt Optional[T]) ValueOr(fallback T) T {
	if opt.tag == optionalNoneTag {
		return fallback
	}
	return opt.value
}

func (opt Optional[T]) IsNone() bool {
	return opt.tag == optionalNoneTag
}

func (opt Optional[T]) IsSome() bool {
	return opt.tag == optionalSomeTag
}

func (opt Optional[T]) String() string {
	if opt.IsNone() {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", opt.value)
}

package assert

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// fail panics with a message that points at the frame `skip` levels above fail.
func fail(skip int, message string) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		file = "unknown"
		line = 0
	}

	if message == "" {
		panic(fmt.Sprintf("Assertion failed at %s:%d\n", filepath.Base(file), line))
	}

	panic(fmt.Sprintf(
		"Assertion failed: %s at %s:%d\n",
		message,
		filepath.Base(file),
		line,
	))
}

// Assert panics unless condition holds. The optional args are a format
// string followed by its operands.
func Assert(condition bool, args ...any) bool {
	if condition {
		return true
	}

	if len(args) == 0 {
		fail(2, "")
	}

	format, ok := args[0].(string)
	if !ok {
		fail(2, fmt.Sprint(args...))
	}
	fail(2, fmt.Sprintf(format, args[1:]...))

	return false
}

func NoError(err error) {
	if err != nil {
		fail(2, fmt.Sprintf("expected no error, got: %v", err))
	}
}

// NoErrorf panics with the formatted message followed by err.
func NoErrorf(err error, format string, args ...any) {
	if err != nil {
		fail(2, fmt.Sprintf(format, args...)+": "+err.Error())
	}
}

// Unreachable marks code paths that broken invariants are the only way into.
func Unreachable(args ...any) {
	if len(args) == 0 {
		fail(2, "unreachable")
	}
	fail(2, "unreachable: "+fmt.Sprint(args...))
}

// Cast attempts to cast the provided value 'data' to the specified
// type 'T'. If the cast is not possible, it triggers an assertion failure.
//
// Example usage:
//
//	value := Cast[int](someAnyValue)
func Cast[T any](data any) T {
	castedData, ok := data.(T)
	if !ok {
		var zero T
		fail(2, fmt.Sprintf("couldn't cast %T to %T", data, zero))
	}

	return castedData
}

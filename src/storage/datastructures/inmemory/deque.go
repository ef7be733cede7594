package inmemory

import "slices"

// Deque is a double-ended queue of values. It is not safe for concurrent
// use: the owning collection serializes access.
type Deque[T any] struct {
	data []T
}

func NewDeque[T any]() *Deque[T] {
	return &Deque[T]{
		data: make([]T, 0),
	}
}

func (d *Deque[T]) Len() int {
	return len(d.data)
}

func (d *Deque[T]) PushBack(v T) {
	d.data = append(d.data, v)
}

func (d *Deque[T]) PushFront(v T) {
	d.data = slices.Insert(d.data, 0, v)
}

func (d *Deque[T]) PopFront() (T, bool) {
	var zero T
	if len(d.data) == 0 {
		return zero, false
	}

	v := d.data[0]
	d.data[0] = zero
	d.data = d.data[1:]
	return v, true
}

func (d *Deque[T]) PopBack() (T, bool) {
	var zero T
	if len(d.data) == 0 {
		return zero, false
	}

	last := len(d.data) - 1
	v := d.data[last]
	d.data[last] = zero
	d.data = d.data[:last]
	return v, true
}

func (d *Deque[T]) PeekFront() (T, bool) {
	if len(d.data) == 0 {
		var zero T
		return zero, false
	}
	return d.data[0], true
}

// Snapshot returns a copy of the content, front first.
func (d *Deque[T]) Snapshot() []T {
	return slices.Clone(d.data)
}

// Restore replaces the content with items. The deque keeps its own copy.
func (d *Deque[T]) Restore(items []T) {
	d.data = slices.Clone(items)
	if d.data == nil {
		d.data = make([]T, 0)
	}
}

func (d *Deque[T]) Clear() {
	d.data = make([]T, 0)
}

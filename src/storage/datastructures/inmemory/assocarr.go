package inmemory

import "maps"

type AssociativeArray[K comparable, V any] struct {
	data map[K]V
}

func NewAssociativeArray[K comparable, V any]() *AssociativeArray[K, V] {
	return &AssociativeArray[K, V]{
		data: make(map[K]V),
	}
}

func (a *AssociativeArray[K, V]) Get(k K) (V, bool) {
	v, ok := a.data[k]

	return v, ok
}

func (a *AssociativeArray[K, V]) Set(k K, v V) {
	a.data[k] = v
}

// Delete removes k and reports whether it was present.
func (a *AssociativeArray[K, V]) Delete(k K) bool {
	_, ok := a.data[k]
	delete(a.data, k)

	return ok
}

func (a *AssociativeArray[K, V]) Len() int {
	return len(a.data)
}

func (a *AssociativeArray[K, V]) Snapshot() map[K]V {
	return maps.Clone(a.data)
}

// Clone returns an independent copy of the array.
func (a *AssociativeArray[K, V]) Clone() *AssociativeArray[K, V] {
	return &AssociativeArray[K, V]{
		data: maps.Clone(a.data),
	}
}

func (a *AssociativeArray[K, V]) Restore(data map[K]V) {
	a.data = maps.Clone(data)
	if a.data == nil {
		a.data = make(map[K]V)
	}
}

func (a *AssociativeArray[K, V]) Clear() {
	clear(a.data)
}

func (a *AssociativeArray[K, V]) Seq(yield func(K, V) bool) {
	for k, v := range a.data {
		if !yield(k, v) {
			break
		}
	}
}

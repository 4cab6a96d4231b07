package sequence

import (
	"iter"
)

// Iterator is a generic, immutable, chainable iterator for any type T.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From creates a new Iterator from a slice of T.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// FromSeq wraps an existing iter.Seq.
func FromSeq[T any](seq iter.Seq[T]) *Iterator[T] {
	return &Iterator[T]{seq: seq}
}

// Seq returns the underlying sequence function for the iterator.
func (i *Iterator[T]) Seq() iter.Seq[T] {
	return i.seq
}

// Collect exhausts the iterator and returns a slice of all elements.
func (i *Iterator[T]) Collect() []T {
	var out []T
	for v := range i.seq {
		out = append(out, v)
	}
	return out
}

// Fold reduces the iterator into an accumulator of another type.
func Fold[T, A any](i *Iterator[T], init A, fn func(A, T) A) A {
	acc := init
	for v := range i.seq {
		acc = fn(acc, v)
	}
	return acc
}

// Map lazily transforms every element.
func Map[T, R any](i *Iterator[T], fn func(T) R) *Iterator[R] {
	return &Iterator[R]{
		seq: func(yield func(R) bool) {
			for v := range i.seq {
				if !yield(fn(v)) {
					return
				}
			}
		},
	}
}

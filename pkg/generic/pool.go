package generic

import "sync"

type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// SlicePool hands out reusable slices. Slices come back with length zero.
type SlicePool[T any] struct {
	pool *Pool[*[]T]
}

func NewSlicePool[T any](capacity int) *SlicePool[T] {
	return &SlicePool[T]{
		pool: NewPool(func() *[]T {
			s := make([]T, 0, capacity)
			return &s
		}),
	}
}

func (p *SlicePool[T]) Get() *[]T {
	s := p.pool.Get()
	*s = (*s)[:0]
	return s
}

func (p *SlicePool[T]) Put(s *[]T) {
	p.pool.Put(s)
}

// Package pool wraps sync.Pool with a typed API.
package pool

import "sync"

// Resetter is implemented by pooled values that must be cleared before reuse.
type Resetter interface {
	Reset()
}

type Pool[T any] struct {
	p sync.Pool
}

// New returns a pool that allocates with fn when empty.
func New[T any](fn func() T) *Pool[T] {
	return &Pool[T]{p: sync.Pool{New: func() any { return fn() }}}
}

// Get returns a pooled value, allocating one if needed.
func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

// Put resets v when it implements Resetter and returns it to the pool.
func (p *Pool[T]) Put(v T) {
	if r, ok := any(v).(Resetter); ok {
		r.Reset()
	}
	p.p.Put(v)
}

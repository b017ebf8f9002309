// Package flight coalesces concurrent calls for the same key and remembers
// successful results for a while.
package flight

import (
	"errors"
	"sync"
	"time"
	"weak"
)

// ErrPanicked is returned to callers that waited on a call whose function
// panicked.
var ErrPanicked = errors.New("flight: call panicked")

type Cache[K comparable, V any] struct {
	// finished holds completed results. Each entry keeps a strong reference
	// until its deadline passes, after which only the weak pointer remains.
	finished map[K]*entry[V]
	pending  map[K]*job[V]
	mu       sync.Mutex

	// ttl <= 0 means the strong reference is never dropped.
	ttl time.Duration
	now func() time.Time
}

type entry[V any] struct {
	w        weak.Pointer[V]
	strong   *V
	deadline time.Time // zero => infinite
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

// New returns a cache that holds results strongly for ttl.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		finished: make(map[K]*entry[V]),
		pending:  make(map[K]*job[V]),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Do returns the remembered value for k, waits for an in-flight call for k,
// or runs fn. Errors are shared with concurrent callers but not remembered.
// The second result reports whether the value came from the cache or
// another caller's call.
func (c *Cache[K, V]) Do(k K, fn func() (V, error)) (V, bool, error) {
	c.mu.Lock()
	if v, ok := c.load(k); ok {
		c.mu.Unlock()
		return v, true, nil
	}
	if j, ok := c.pending[k]; ok {
		c.mu.Unlock()
		<-j.done
		return j.val, true, j.err
	}
	j := &job[V]{done: make(chan struct{})}
	c.pending[k] = j
	c.mu.Unlock()

	c.run(k, j, fn)
	return j.val, false, j.err
}

// run calls fn and releases waiters even if fn panics. Waiters of a
// panicking call receive ErrPanicked; the panic continues in the caller.
func (c *Cache[K, V]) run(k K, j *job[V], fn func() (V, error)) {
	completed := false
	defer func() {
		c.mu.Lock()
		if !completed {
			j.err = ErrPanicked
		} else if j.err == nil {
			c.store(k, j.val)
		}
		delete(c.pending, k)
		close(j.done)
		c.mu.Unlock()
	}()
	j.val, j.err = fn()
	completed = true
}

// Forget drops any remembered value for k.
func (c *Cache[K, V]) Forget(k K) {
	c.mu.Lock()
	delete(c.finished, k)
	c.mu.Unlock()
}

// Len reports the number of remembered entries, including ones whose value
// may already have been collected.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.finished)
}

// load must be called with mu held.
func (c *Cache[K, V]) load(k K) (V, bool) {
	var zero V
	e, ok := c.finished[k]
	if !ok {
		return zero, false
	}
	if e.strong != nil && !e.deadline.IsZero() && c.now().After(e.deadline) {
		e.strong = nil
	}
	vp := e.w.Value()
	if vp == nil {
		delete(c.finished, k)
		return zero, false
	}
	return *vp, true
}

// store must be called with mu held.
func (c *Cache[K, V]) store(k K, val V) {
	// Dedicated heap cell so the weak pointer refers to a stable address.
	v := new(V)
	*v = val

	e := &entry[V]{w: weak.Make(v), strong: v}
	if c.ttl > 0 {
		e.deadline = c.now().Add(c.ttl)
	}
	c.finished[k] = e
}

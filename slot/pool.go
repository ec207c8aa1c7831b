// Package slot provides a bounded pool of reusable objects.
//
// The engine borrows one execution slot per submission and releases it
// after the terminal outcome. A released slot is reset before it becomes
// visible to the next borrower, so no state from a previous submission
// leaks into the next one.
package slot

import "sync"

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 10

// Pool is a fixed-capacity LIFO stack of idle objects guarded by one mutex.
// It is safe for concurrent use.
type Pool[T any] struct {
	mu     sync.Mutex
	idle   []T
	newFn  func() T
	reset  func(T)
	allocs int
}

// New creates a pool that keeps at most capacity idle objects. newFn builds
// an object when the pool is empty; reset, if non-nil, clears an object on
// release.
func New[T any](capacity int, newFn func() T, reset func(T)) *Pool[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool[T]{
		idle:  make([]T, 0, capacity),
		newFn: newFn,
		reset: reset,
	}
}

// Borrow pops the most recently released object, or builds a new one.
func (p *Pool[T]) Borrow() T {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		v := p.idle[n-1]
		var zero T
		p.idle[n-1] = zero
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return v
	}
	p.allocs++
	p.mu.Unlock()
	return p.newFn()
}

// Release resets v and keeps it for reuse if there is room. It reports
// whether v was kept; a discarded object is left to the garbage collector.
func (p *Pool[T]) Release(v T) bool {
	if p.reset != nil {
		p.reset(v)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle) == cap(p.idle) {
		return false
	}
	p.idle = append(p.idle, v)
	return true
}

// Idle returns the number of objects waiting to be borrowed.
func (p *Pool[T]) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Capacity returns the maximum number of idle objects kept.
func (p *Pool[T]) Capacity() int { return cap(p.idle) }

// Allocated returns how many objects newFn has built.
func (p *Pool[T]) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocs
}

package dispose

import (
	"sync"
	"sync/atomic"
)

// Disposable is an entity owning resources that can be torn down exactly once.
// Dispose must be idempotent: the second and subsequent calls are no-ops.
type Disposable interface {
	// Dispose releases the entity's resources. Safe to call multiple times.
	Dispose()

	// Disposed reports whether Dispose has been called.
	Disposed() bool
}

// Flag is an embeddable one-shot disposal flag. The zero value is ready to
// use. MarkDisposed returns true exactly once, letting owners guard their
// teardown logic:
//
//	type conn struct {
//	    dispose.Flag
//	}
//
//	func (c *conn) Dispose() {
//	    if !c.MarkDisposed() {
//	        return
//	    }
//	    c.release()
//	}
type Flag struct {
	disposed atomic.Bool
}

// MarkDisposed flips the flag and reports whether this call was the first.
func (f *Flag) MarkDisposed() bool {
	return f.disposed.CompareAndSwap(false, true)
}

// Disposed reports whether the flag has been set.
func (f *Flag) Disposed() bool {
	return f.disposed.Load()
}

// Func adapts a plain function into a Disposable. The function runs at most
// once, on the first Dispose call.
func Func(fn func()) Disposable {
	return &funcDisposable{fn: fn}
}

type funcDisposable struct {
	Flag
	fn func()
}

func (d *funcDisposable) Dispose() {
	if !d.MarkDisposed() {
		return
	}
	if d.fn != nil {
		d.fn()
	}
}

// Bag owns a set of Disposables and cascades its own disposal to all of them.
// Members are disposed in reverse of the order they were added, mirroring
// defer semantics. The zero value is ready to use.
//
// Example:
//
//	var bag dispose.Bag
//	bag.Add(userHandle)
//	bag.Add(ordersHandle)
//	defer bag.Dispose()
type Bag struct {
	mu       sync.Mutex
	members  []Disposable
	disposed bool
}

// Add registers d for cascaded disposal. If the bag is already disposed, d is
// disposed immediately instead of being retained.
func (b *Bag) Add(d Disposable) {
	if d == nil {
		return
	}

	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		d.Dispose()
		return
	}
	b.members = append(b.members, d)
	b.mu.Unlock()
}

// Dispose disposes every member in reverse-add order. Idempotent.
func (b *Bag) Dispose() {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	b.disposed = true
	members := b.members
	b.members = nil
	b.mu.Unlock()

	for i := len(members) - 1; i >= 0; i-- {
		members[i].Dispose()
	}
}

// Disposed reports whether the bag has been disposed.
func (b *Bag) Disposed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disposed
}

// Size returns the number of members currently held.
func (b *Bag) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.members)
}

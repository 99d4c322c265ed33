package broadcast

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrBroadcasterClosed is returned when broadcasting on a closed broadcaster.
	ErrBroadcasterClosed = errors.New("broadcaster is closed")

	// ErrSubscriberClosed indicates operations on a closed subscriber.
	ErrSubscriberClosed = errors.New("subscriber is closed")
)

// Message wraps a broadcast payload.
type Message[T any] struct {
	Data T
	Err  error
}

// Broadcaster delivers messages to all current subscribers.
type Broadcaster[T any] interface {
	// Broadcast sends msg to every active subscriber. Delivery is
	// non-blocking: subscribers with full buffers miss the message.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Subscribe registers a new subscriber. The subscription is removed
	// automatically when ctx is canceled or the subscriber is closed.
	Subscribe(ctx context.Context) Subscriber[T]

	// Close shuts down the broadcaster and all its subscribers. Idempotent.
	Close() error
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the channel messages arrive on. The channel is closed
	// when the subscriber or its broadcaster closes.
	Receive() <-chan Message[T]

	// Close unregisters the subscriber and closes its channel. Idempotent.
	Close() error
}

// MemoryBroadcaster is an in-process Broadcaster backed by per-subscriber
// buffered channels. Slow subscribers drop messages rather than blocking the
// broadcast, so one stalled consumer cannot stall the rest.
type MemoryBroadcaster[T any] struct {
	mu      sync.RWMutex
	subs    map[*memorySubscriber[T]]struct{}
	bufSize int
	closed  bool
}

// NewMemoryBroadcaster creates a broadcaster whose subscribers each buffer up
// to bufSize messages. A bufSize below 1 defaults to 1.
func NewMemoryBroadcaster[T any](bufSize int) *MemoryBroadcaster[T] {
	if bufSize < 1 {
		bufSize = 1
	}
	return &MemoryBroadcaster[T]{
		subs:    make(map[*memorySubscriber[T]]struct{}),
		bufSize: bufSize,
	}
}

// Broadcast implements Broadcaster. Messages are delivered best-effort to
// every subscriber; full buffers drop.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBroadcasterClosed
	}

	for sub := range b.subs {
		select {
		case sub.ch <- msg:
		default:
			// Subscriber buffer full; drop rather than block the broadcast.
		}
	}
	return nil
}

// Subscribe implements Broadcaster. The returned subscriber is detached when
// ctx is canceled.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := &memorySubscriber[T]{
		ch:     make(chan Message[T], b.bufSize),
		parent: b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.closed = true
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			_ = sub.Close()
		}()
	}

	return sub
}

// Close implements Broadcaster.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for sub := range subs {
		sub.closeLocal()
	}
	return nil
}

type memorySubscriber[T any] struct {
	ch     chan Message[T]
	parent *MemoryBroadcaster[T]
	mu     sync.Mutex
	closed bool
}

func (s *memorySubscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *memorySubscriber[T]) Close() error {
	if s.parent != nil {
		s.parent.mu.Lock()
		if !s.parent.closed {
			delete(s.parent.subs, s)
		}
		s.parent.mu.Unlock()
	}
	s.closeLocal()
	return nil
}

// closeLocal closes the channel exactly once without touching the parent's
// subscriber map. Called either from Close or from the broadcaster's Close
// while it drains its map.
func (s *memorySubscriber[T]) closeLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

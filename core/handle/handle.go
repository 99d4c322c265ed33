package handle

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/pierremrtn/chassis/core/asyncstate"
	"github.com/pierremrtn/chassis/core/mediator"
)

// Handle binds one query message to a live AsyncState stream. It owns the
// current state, re-dispatches the query on Refresh, folds watch emissions
// into state transitions, and guarantees that stale or post-disposal results
// never mutate state or notify observers.
//
// A Handle begins in Loading with no value and moves through states as
// results arrive. Every asynchronous result is checked against a monotonic
// sequence counter and the disposed flag at the point of application; results
// that lost the race are discarded silently.
//
// Handles are safe for concurrent use. Disposing a Handle never disposes the
// Mediator or the underlying handler.
type Handle[T any] struct {
	id       string
	mediator *mediator.Mediator
	query    any
	logger   *slog.Logger
	hasRead  bool
	hasWatch bool

	// ctx bounds all dispatches issued by this handle for its lifetime.
	ctx context.Context

	// notifyMu serializes result application so observers see transitions in
	// exactly the order they were accepted.
	notifyMu sync.Mutex

	mu          sync.Mutex
	state       asyncstate.AsyncState[T]
	seq         uint64
	watchGen    uint64
	disposed    bool
	cancelWatch context.CancelFunc
	listeners   map[int]func(asyncstate.AsyncState[T])
	nextListen  int
}

// Option configures a Handle.
type Option[T any] func(*Handle[T])

// WithLogger configures structured logging for handle lifecycle events.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(h *Handle[T]) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func newHandle[T any](ctx context.Context, m *mediator.Mediator, query any, hasRead, hasWatch bool, opts ...Option[T]) *Handle[T] {
	h := &Handle[T]{
		id:        uuid.New().String(),
		mediator:  m,
		query:     query,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		hasRead:   hasRead,
		hasWatch:  hasWatch,
		ctx:       ctx,
		state:     asyncstate.Loading[T](),
		listeners: make(map[int]func(asyncstate.AsyncState[T])),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.logger = h.logger.With(
		slog.String("handle_id", h.id),
		slog.String("query", mediator.MessageNameOf(query)))

	return h
}

// NewRead creates a Handle bound to a read query and issues the initial
// dispatch. The state moves Loading -> (Data | Error); Refresh re-issues the
// read. ctx bounds every dispatch for the handle's lifetime.
//
// Example:
//
//	h := handle.NewRead[User](ctx, m, GetUser{ID: id})
//	defer h.Dispose()
//
//	remove := h.Listen(func(s asyncstate.AsyncState[User]) { render(s) })
//	defer remove()
func NewRead[T any](ctx context.Context, m *mediator.Mediator, query any, opts ...Option[T]) *Handle[T] {
	h := newHandle(ctx, m, query, true, false, opts...)
	h.startRead()
	return h
}

// NewWatch creates a Handle bound to a watch query and subscribes to its
// sequence. Successful emissions become Data, failed emissions become Error
// without ending the subscription; the handle keeps listening until the
// upstream terminates, Refresh resubscribes, or the handle is disposed.
func NewWatch[T any](ctx context.Context, m *mediator.Mediator, query any, opts ...Option[T]) *Handle[T] {
	h := newHandle(ctx, m, query, false, true, opts...)
	h.startWatch()
	return h
}

// NewReadWatch creates a Handle combining both bindings for the same query
// type: the initial value arrives via the read path, continuous updates via
// the watch path, folded into one state stream. A watch emission supersedes
// any read still in flight, so a slow initial read can never clobber fresher
// streamed data.
func NewReadWatch[T any](ctx context.Context, m *mediator.Mediator, query any, opts ...Option[T]) *Handle[T] {
	h := newHandle(ctx, m, query, true, true, opts...)
	h.startRead()
	h.startWatch()
	return h
}

// ID returns the handle's correlation ID used in its log records.
func (h *Handle[T]) ID() string {
	return h.id
}

// State returns the current AsyncState snapshot.
func (h *Handle[T]) State() asyncstate.AsyncState[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Listen registers an observer notified once per accepted state transition.
// Observers are not called for discarded stale results and never after
// disposal. The current state is not replayed on subscribe; read it with
// State. The returned function removes the observer and is idempotent.
func (h *Handle[T]) Listen(fn func(asyncstate.AsyncState[T])) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed || fn == nil {
		return func() {}
	}

	id := h.nextListen
	h.nextListen++
	h.listeners[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// Refresh re-runs the handle's binding. For read-backed handles it re-issues
// the read, moving the state to Loading while preserving the current value.
// For watch-only handles it tears down the subscription and subscribes anew.
// Refresh on a disposed handle is a no-op.
func (h *Handle[T]) Refresh() {
	if h.hasRead {
		h.startRead()
		return
	}
	h.transitionToLoading()
	h.startWatch()
}

// Dispose tears the handle down: the active subscription is canceled,
// observers are dropped, and any in-flight results arriving later are
// silently discarded. Idempotent; never affects the Mediator or handlers.
func (h *Handle[T]) Dispose() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	cancel := h.cancelWatch
	h.cancelWatch = nil
	h.listeners = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	h.logger.Debug("handle disposed")
}

// Disposed reports whether Dispose has been called.
func (h *Handle[T]) Disposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}

// startRead transitions to Loading and issues one read dispatch tagged with
// the next sequence number. The completion is applied only if that number is
// still the newest when it arrives.
func (h *Handle[T]) startRead() {
	h.notifyMu.Lock()
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		h.notifyMu.Unlock()
		return
	}

	h.seq++
	seq := h.seq
	h.commitLocked(h.state.ToLoading())

	go func() {
		value, err := mediator.Read[T](h.ctx, h.mediator, h.query)
		h.applyRead(seq, value, err)
	}()
}

// transitionToLoading is the Loading excursion for watch-only refreshes.
func (h *Handle[T]) transitionToLoading() {
	h.notifyMu.Lock()
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		h.notifyMu.Unlock()
		return
	}
	h.commitLocked(h.state.ToLoading())
}

// applyRead folds a read completion into the state unless a newer dispatch
// has been issued or the handle is disposed.
func (h *Handle[T]) applyRead(seq uint64, value T, err error) {
	h.notifyMu.Lock()
	h.mu.Lock()
	if h.disposed || seq != h.seq {
		h.mu.Unlock()
		h.notifyMu.Unlock()
		h.logger.Debug("stale read result discarded", slog.Uint64("seq", seq))
		return
	}

	if err != nil {
		h.commitLocked(h.state.ToError(err))
		return
	}
	h.commitLocked(h.state.ToData(value))
}

// startWatch opens a new subscription generation, canceling the previous one
// if present. Emissions from an old generation are discarded on arrival.
func (h *Handle[T]) startWatch() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}

	h.watchGen++
	gen := h.watchGen
	prevCancel := h.cancelWatch
	ctx, cancel := context.WithCancel(h.ctx)
	h.cancelWatch = cancel
	h.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}

	go h.runWatch(ctx, gen)
}

// runWatch subscribes and pumps emissions into the state until the upstream
// terminates or the subscription is canceled.
func (h *Handle[T]) runWatch(ctx context.Context, gen uint64) {
	stream, err := mediator.Watch[T](ctx, h.mediator, h.query)
	if err != nil {
		h.applyEmission(gen, mediator.Emission[T]{Err: err})
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-stream:
			if !ok {
				h.logger.Debug("watch sequence terminated", slog.Uint64("generation", gen))
				return
			}
			h.applyEmission(gen, e)
		}
	}
}

// applyEmission folds one watched emission into the state, in arrival order,
// unless the subscription generation is stale or the handle is disposed. An
// accepted emission also supersedes any read still in flight: streamed data
// is fresher than whatever that read will return.
func (h *Handle[T]) applyEmission(gen uint64, e mediator.Emission[T]) {
	h.notifyMu.Lock()
	h.mu.Lock()
	if h.disposed || gen != h.watchGen {
		h.mu.Unlock()
		h.notifyMu.Unlock()
		h.logger.Debug("stale emission discarded", slog.Uint64("generation", gen))
		return
	}

	h.seq++

	if e.Err != nil {
		h.commitLocked(h.state.ToError(e.Err))
		return
	}
	h.commitLocked(h.state.ToData(e.Value))
}

// commitLocked stores the new state, releases both locks, and notifies
// observers in registration order. Callers must hold notifyMu then mu; both
// are released here. Observer callbacks run outside mu, so reading State or
// calling Dispose from an observer is safe; calling Refresh from an observer
// must be done from a new goroutine because notifyMu is still held.
func (h *Handle[T]) commitLocked(next asyncstate.AsyncState[T]) {
	h.state = next
	ids := make([]int, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]func(asyncstate.AsyncState[T]), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, h.listeners[id])
	}
	h.mu.Unlock()

	h.logger.Debug("state transition", slog.String("state", next.String()))

	for _, fn := range listeners {
		fn(next)
	}
	h.notifyMu.Unlock()
}

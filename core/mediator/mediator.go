package mediator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
)

// Mediator is the central broker routing messages to their handlers. It keeps
// three independent namespaces (commands, read queries, watch queries), each
// keyed by the exact concrete type of the message. Two structurally identical
// message types are never routed to the same entry.
//
// A Mediator is ordinary shared state: construct one per application scope,
// register all handlers during bootstrap, then treat it as read-only for
// dispatch. Registration is guarded by a lock so tests can swap handlers, but
// concurrent registration racing with dispatch is not a supported pattern.
//
// Example:
//
//	m := mediator.New(mediator.WithLogger(logger))
//	mediator.RegisterCommand(m, createUserHandler)
//	mediator.RegisterRead(m, getUserHandler)
//
//	user, err := mediator.Read[User](ctx, m, GetUser{ID: id})
type Mediator struct {
	mu         sync.RWMutex
	commands   map[reflect.Type]*entry
	reads      map[reflect.Type]*entry
	watches    map[reflect.Type]*entry
	middleware []Middleware
	logger     *slog.Logger
}

// Option configures a Mediator.
type Option func(*Mediator)

// WithLogger configures structured logging for broker operations.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mediator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMiddleware sets middleware applied to every handler invocation, in the
// order provided. Middleware must be configured at construction time.
func WithMiddleware(middleware ...Middleware) Option {
	return func(m *Mediator) {
		m.middleware = middleware
	}
}

// New creates a Mediator with the given options.
func New(opts ...Option) *Mediator {
	m := &Mediator{
		commands: make(map[reflect.Type]*entry),
		reads:    make(map[reflect.Type]*entry),
		watches:  make(map[reflect.Type]*entry),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// namespace identifies one of the three independent handler registries.
type namespace string

const (
	nsCommand namespace = "command"
	nsRead    namespace = "read"
	nsWatch   namespace = "watch"
)

// entry binds one concrete message type to its handler invocation. It carries
// the human-readable message name for logs and errors.
type entry struct {
	name string
	fn   func(ctx context.Context, msg any) (any, error)
}

func (e *entry) MessageName() string {
	return e.name
}

func (e *entry) Invoke(ctx context.Context, msg any) (any, error) {
	return e.fn(ctx, msg)
}

// register inserts an entry under key in the given namespace. Re-registering
// the same message type overwrites the previous binding silently: last
// registration wins, so applications and tests can swap implementations. The
// replacement is surfaced as a warning log only, never an error.
func (m *Mediator) register(ns namespace, key reflect.Type, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table := m.table(ns)
	if _, exists := table[key]; exists {
		m.logger.Warn("handler replaced",
			slog.String("namespace", string(ns)),
			slog.String("message", e.name))
	}
	table[key] = e
}

func (m *Mediator) table(ns namespace) map[reflect.Type]*entry {
	switch ns {
	case nsCommand:
		return m.commands
	case nsRead:
		return m.reads
	default:
		return m.watches
	}
}

// resolve looks up the handler for key in the given namespace and returns it
// with middleware applied.
func (m *Mediator) resolve(ns namespace, key reflect.Type) (Invoker, error) {
	m.mu.RLock()
	e, exists := m.table(ns)[key]
	middleware := m.middleware
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s (%s namespace)", ErrHandlerNotFound, messageName(key), ns)
	}

	var inv Invoker = e
	if len(middleware) > 0 {
		inv = chainMiddleware(inv, middleware)
	}
	return inv, nil
}

// dispatch resolves msg in the given namespace and invokes its handler with
// message metadata attached to the context. Handler panics are converted to
// errors; handler failures propagate unchanged.
func (m *Mediator) dispatch(ns namespace, ctx context.Context, msg any) (any, error) {
	inv, err := m.resolve(ns, reflect.TypeOf(msg))
	if err != nil {
		return nil, err
	}

	ctx = WithMessageName(ctx, inv.MessageName())

	m.logger.DebugContext(ctx, "message dispatched",
		slog.String("namespace", string(ns)),
		slog.String("message", inv.MessageName()))

	return safeInvoke(inv, ctx, msg)
}

// Run resolves cmd in the command namespace and executes its handler,
// returning the handler's result or its failure unchanged. Commands are
// fire-and-await; the broker adds no retry or recovery.
//
// Use the generic package-level Run for a typed result.
func (m *Mediator) Run(ctx context.Context, cmd any) (any, error) {
	return m.dispatch(nsCommand, ctx, cmd)
}

// Read resolves query in the read namespace and executes its one-shot
// handler. Use the generic package-level Read for a typed result.
func (m *Mediator) Read(ctx context.Context, query any) (any, error) {
	return m.dispatch(nsRead, ctx, query)
}

// Watch resolves query in the watch namespace and invokes its continuous
// handler. The result holds the handler's emission channel; the broker
// performs no buffering, so subscription semantics are whatever the handler
// provides. Use the generic package-level Watch to receive the channel with
// its element type intact.
func (m *Mediator) Watch(ctx context.Context, query any) (any, error) {
	return m.dispatch(nsWatch, ctx, query)
}

// Package mediator provides a type-safe in-process message broker separating
// state-mutating commands from one-shot and continuous data queries.
//
// Messages are plain values; their exact concrete type is their routing
// identity. The broker keeps three independent namespaces, each mapping one
// message type to exactly one handler:
//
//   - commands: Run executes an action and yields a result (may fail)
//   - read queries: Read resolves a one-shot value
//   - watch queries: Watch resolves a continuous sequence of emissions
//
// # Quick Start
//
//	type GetUser struct{ ID string }
//
//	m := mediator.New()
//	mediator.RegisterRead(m, mediator.ReadFunc[GetUser, User](
//	    func(ctx context.Context, q GetUser) (User, error) {
//	        return repo.Find(ctx, q.ID)
//	    },
//	))
//
//	user, err := mediator.Read[User](ctx, m, GetUser{ID: "42"})
//
// Dispatching a message type with no registered handler fails with
// ErrHandlerNotFound, naming the type and namespace. Handler failures
// propagate to the caller unchanged: the broker adds no retry, wrapping, or
// recovery beyond converting handler panics to errors.
//
// # Registration
//
// Registration is last-write-wins: binding a second handler to the same
// message type in the same namespace silently replaces the first and logs a
// warning. This is deliberate, so tests and staged bootstraps can swap
// implementations without ceremony. A combined ReadWatchHandler registers
// into both query namespaces in one RegisterReadWatch call.
//
// Register everything during application bootstrap, then dispatch freely from
// any goroutine. The registry is lock-guarded, but handler registration
// racing with dispatch is not a supported usage pattern.
//
// # Watch Queries
//
// A watch handler returns a receive-only channel of Emission values. Each
// element either carries a value or an error; an error element does not
// terminate the sequence. The broker passes the channel through untouched:
// buffering, replay, and teardown semantics belong to the handler and its
// data source. Handlers backed by the broadcast package get non-blocking
// fan-out for free.
//
// # Middleware and Decorators
//
// Cross-cutting behavior attaches at two levels. Broker middleware wraps
// every invocation in all three namespaces:
//
//	m := mediator.New(
//	    mediator.WithMiddleware(mediator.LoggingMiddleware(logger)),
//	)
//
// Typed decorators wrap one operation at registration time, for per-handler
// concerns like retries and timeouts:
//
//	fn := mediator.ApplyDecorators(loadDashboard,
//	    mediator.Retry[LoadDashboard, Dashboard](3),
//	    mediator.Timeout[LoadDashboard, Dashboard](5*time.Second),
//	)
//	mediator.RegisterRead(m, mediator.ReadFunc[LoadDashboard, Dashboard](fn))
//
// See the handle package for binding a query to a live, disposable,
// refreshable view of its result.
package mediator

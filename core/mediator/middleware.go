package mediator

import (
	"context"
	"log/slog"
	"time"
)

// Invoker is one resolved handler invocation as seen by middleware. The
// broker's registry entries implement it; middleware wraps it.
type Invoker interface {
	// MessageName returns the name of the message type this invocation is
	// bound to, for logging and metrics.
	MessageName() string

	// Invoke executes the handler with the given message.
	Invoke(ctx context.Context, msg any) (any, error)
}

// Middleware wraps an Invoker to add cross-cutting behavior such as logging,
// metrics, or tracing. Middleware applies to all three namespaces.
type Middleware func(next Invoker) Invoker

// InvokerFunc adapts a name and function into an Invoker, for middleware
// implementations.
func InvokerFunc(name string, fn func(ctx context.Context, msg any) (any, error)) Invoker {
	return &invokerFunc{name: name, fn: fn}
}

type invokerFunc struct {
	name string
	fn   func(ctx context.Context, msg any) (any, error)
}

func (i *invokerFunc) MessageName() string {
	return i.name
}

func (i *invokerFunc) Invoke(ctx context.Context, msg any) (any, error) {
	return i.fn(ctx, msg)
}

// chainMiddleware applies middleware in order: the first middleware in the
// slice becomes the outermost wrapper and executes first.
func chainMiddleware(inv Invoker, middleware []Middleware) Invoker {
	for i := len(middleware) - 1; i >= 0; i-- {
		inv = middleware[i](inv)
	}
	return inv
}

// LoggingMiddleware returns middleware that logs every handler invocation
// with its message name, duration, and outcome.
//
// Example:
//
//	m := mediator.New(
//	    mediator.WithMiddleware(mediator.LoggingMiddleware(logger)),
//	)
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Invoker) Invoker {
		return InvokerFunc(next.MessageName(), func(ctx context.Context, msg any) (any, error) {
			start := time.Now()
			name := next.MessageName()

			result, err := next.Invoke(ctx, msg)
			duration := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "message handling failed",
					slog.String("message", name),
					slog.Duration("duration", duration),
					slog.String("error", err.Error()))
				return result, err
			}

			logger.DebugContext(ctx, "message handled",
				slog.String("message", name),
				slog.Duration("duration", duration))

			return result, nil
		})
	}
}

package mediator

import (
	"context"
	"fmt"
	"time"
)

// Operation is one typed handler function, the unit decorators compose over.
// CommandFunc and ReadFunc are Operations with their interface hats on.
type Operation[M, R any] func(ctx context.Context, msg M) (R, error)

// Decorator wraps an Operation to add behavior around a single handler,
// independent of broker middleware. Decorators compose at registration time:
//
//	mediator.RegisterRead(m, mediator.ReadFunc[GetUser, User](
//	    mediator.ApplyDecorators(getUser,
//	        mediator.Retry[GetUser, User](3),
//	        mediator.Timeout[GetUser, User](2*time.Second),
//	    ),
//	))
type Decorator[M, R any] func(Operation[M, R]) Operation[M, R]

// ApplyDecorators applies decorators to fn in order: the first decorator in
// the list becomes the outermost wrapper and executes first.
func ApplyDecorators[M, R any](fn Operation[M, R], decorators ...Decorator[M, R]) Operation[M, R] {
	for i := len(decorators) - 1; i >= 0; i-- {
		fn = decorators[i](fn)
	}
	return fn
}

// Retry retries a failing operation up to maxRetries additional times with no
// delay. Returns the last error if every attempt fails. Context cancellation
// stops further attempts.
func Retry[M, R any](maxRetries int) Decorator[M, R] {
	return func(next Operation[M, R]) Operation[M, R] {
		return func(ctx context.Context, msg M) (R, error) {
			var zero R
			var lastErr error

			for attempt := 0; attempt <= maxRetries; attempt++ {
				if attempt > 0 && ctx.Err() != nil {
					return zero, ctx.Err()
				}

				result, err := next(ctx, msg)
				if err == nil {
					return result, nil
				}
				lastErr = err
			}

			return zero, fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
		}
	}
}

// Backoff retries a failing operation with exponentially increasing delays,
// starting at initialDelay and capped at maxDelay.
func Backoff[M, R any](maxRetries int, initialDelay, maxDelay time.Duration) Decorator[M, R] {
	return func(next Operation[M, R]) Operation[M, R] {
		return func(ctx context.Context, msg M) (R, error) {
			var zero R
			var lastErr error
			delay := initialDelay

			for attempt := 0; attempt <= maxRetries; attempt++ {
				if attempt > 0 {
					select {
					case <-ctx.Done():
						return zero, ctx.Err()
					case <-time.After(delay):
					}

					// Cap exponential growth to prevent unbounded waits.
					delay *= 2
					if delay > maxDelay {
						delay = maxDelay
					}
				}

				result, err := next(ctx, msg)
				if err == nil {
					return result, nil
				}
				lastErr = err
			}

			return zero, fmt.Errorf("failed after %d retries with backoff: %w", maxRetries, lastErr)
		}
	}
}

// Timeout bounds a single operation's execution time. The wrapped operation
// must respect context cancellation; the decorator returns as soon as the
// deadline passes either way.
func Timeout[M, R any](timeout time.Duration) Decorator[M, R] {
	return func(next Operation[M, R]) Operation[M, R] {
		return func(ctx context.Context, msg M) (R, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type outcome struct {
				result R
				err    error
			}

			done := make(chan outcome, 1)
			go func() {
				r, err := next(ctx, msg)
				done <- outcome{result: r, err: err}
			}()

			select {
			case o := <-done:
				return o.result, o.err
			case <-ctx.Done():
				var zero R
				return zero, fmt.Errorf("handler timeout after %s: %w", timeout, ctx.Err())
			}
		}
	}
}

package mediator

import "context"

// Emission is one element of a watched sequence. A failed element carries Err
// and leaves Value at its zero; it does not terminate the sequence, which is
// expected to keep producing unless the upstream itself closes the channel.
type Emission[R any] struct {
	Value R
	Err   error
}

// CommandHandler executes a state-mutating command of type C and yields a
// result of type R. There is exactly one command handler per command type.
type CommandHandler[C, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// ReadHandler resolves a one-shot query of type Q to a value of type R.
type ReadHandler[Q, R any] interface {
	Read(ctx context.Context, query Q) (R, error)
}

// WatchHandler resolves a continuous query of type Q to a sequence of
// emissions. The returned channel stays open for as long as the underlying
// source produces; closing it terminates the sequence for all consumers of
// this subscription.
type WatchHandler[Q, R any] interface {
	Watch(ctx context.Context, query Q) (<-chan Emission[R], error)
}

// ReadWatchHandler composes both retrieval capabilities for the same query
// type: an initial one-shot read plus a continuous watch.
type ReadWatchHandler[Q, R any] interface {
	ReadHandler[Q, R]
	WatchHandler[Q, R]
}

// CommandFunc adapts a function to the CommandHandler interface.
//
// Example:
//
//	handler := mediator.CommandFunc[CreateUser, string](func(ctx context.Context, cmd CreateUser) (string, error) {
//	    return repo.Insert(ctx, cmd.Email)
//	})
//	mediator.RegisterCommand(m, handler)
type CommandFunc[C, R any] func(ctx context.Context, cmd C) (R, error)

func (f CommandFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// ReadFunc adapts a function to the ReadHandler interface.
type ReadFunc[Q, R any] func(ctx context.Context, query Q) (R, error)

func (f ReadFunc[Q, R]) Read(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

// WatchFunc adapts a function to the WatchHandler interface.
type WatchFunc[Q, R any] func(ctx context.Context, query Q) (<-chan Emission[R], error)

func (f WatchFunc[Q, R]) Watch(ctx context.Context, query Q) (<-chan Emission[R], error) {
	return f(ctx, query)
}

// ReadWatchFunc bundles two function values into a ReadWatchHandler. This is
// the convenience form for combined handlers that have no state of their own.
type ReadWatchFunc[Q, R any] struct {
	ReadFn  func(ctx context.Context, query Q) (R, error)
	WatchFn func(ctx context.Context, query Q) (<-chan Emission[R], error)
}

func (f ReadWatchFunc[Q, R]) Read(ctx context.Context, query Q) (R, error) {
	return f.ReadFn(ctx, query)
}

func (f ReadWatchFunc[Q, R]) Watch(ctx context.Context, query Q) (<-chan Emission[R], error) {
	return f.WatchFn(ctx, query)
}

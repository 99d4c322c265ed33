package mediator

import (
	"context"
	"fmt"
	"reflect"
)

// RegisterCommand binds h to the command type C in m's command namespace.
// Panics if h is nil: a nil handler is a bootstrap bug, not a runtime
// condition. Re-registering C replaces the previous binding (last wins).
//
// Example:
//
//	mediator.RegisterCommand(m, mediator.CommandFunc[CreateUser, string](
//	    func(ctx context.Context, cmd CreateUser) (string, error) {
//	        return repo.Insert(ctx, cmd.Email)
//	    },
//	))
func RegisterCommand[C, R any](m *Mediator, h CommandHandler[C, R]) {
	if h == nil {
		panic(fmt.Sprintf("mediator: nil command handler for %s", messageName(reflect.TypeOf((*C)(nil)).Elem())))
	}

	key := reflect.TypeOf((*C)(nil)).Elem()
	m.register(nsCommand, key, &entry{
		name: messageName(key),
		fn: func(ctx context.Context, msg any) (any, error) {
			return h.Handle(ctx, msg.(C))
		},
	})
}

// RegisterRead binds h to the query type Q in m's read namespace.
func RegisterRead[Q, R any](m *Mediator, h ReadHandler[Q, R]) {
	if h == nil {
		panic(fmt.Sprintf("mediator: nil read handler for %s", messageName(reflect.TypeOf((*Q)(nil)).Elem())))
	}

	key := reflect.TypeOf((*Q)(nil)).Elem()
	m.register(nsRead, key, &entry{
		name: messageName(key),
		fn: func(ctx context.Context, msg any) (any, error) {
			return h.Read(ctx, msg.(Q))
		},
	})
}

// RegisterWatch binds h to the query type Q in m's watch namespace.
func RegisterWatch[Q, R any](m *Mediator, h WatchHandler[Q, R]) {
	if h == nil {
		panic(fmt.Sprintf("mediator: nil watch handler for %s", messageName(reflect.TypeOf((*Q)(nil)).Elem())))
	}

	key := reflect.TypeOf((*Q)(nil)).Elem()
	m.register(nsWatch, key, &entry{
		name: messageName(key),
		fn: func(ctx context.Context, msg any) (any, error) {
			return h.Watch(ctx, msg.(Q))
		},
	})
}

// RegisterReadWatch binds a combined handler to the query type Q in both the
// read and watch namespaces under the same key, in one call.
//
// Example:
//
//	mediator.RegisterReadWatch(m, mediator.ReadWatchFunc[Prices, []Price]{
//	    ReadFn:  repo.Snapshot,
//	    WatchFn: repo.Stream,
//	})
func RegisterReadWatch[Q, R any](m *Mediator, h ReadWatchHandler[Q, R]) {
	if h == nil {
		panic(fmt.Sprintf("mediator: nil read-watch handler for %s", messageName(reflect.TypeOf((*Q)(nil)).Elem())))
	}

	RegisterRead[Q, R](m, h)
	RegisterWatch[Q, R](m, h)
}

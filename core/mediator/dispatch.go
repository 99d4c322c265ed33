package mediator

import (
	"context"
	"fmt"
	"reflect"
)

// Run dispatches cmd through m's command namespace and asserts the result to
// R. Returns the handler's failure unchanged, or ErrInvalidResultType when R
// does not match the handler's declared result type.
//
// Example:
//
//	id, err := mediator.Run[string](ctx, m, CreateUser{Email: email})
func Run[R any](ctx context.Context, m *Mediator, cmd any) (R, error) {
	return assertResult[R](m.Run(ctx, cmd))
}

// Read dispatches query through m's read namespace and asserts the result to R.
//
// Example:
//
//	user, err := mediator.Read[User](ctx, m, GetUser{ID: id})
func Read[R any](ctx context.Context, m *Mediator, query any) (R, error) {
	return assertResult[R](m.Read(ctx, query))
}

// Watch dispatches query through m's watch namespace and returns the
// handler's emission channel with its element type intact. The channel is the
// handler's own subscription; the broker neither buffers nor re-emits.
//
// Example:
//
//	stream, err := mediator.Watch[[]Price](ctx, m, WatchPrices{Symbol: "AAPL"})
//	for e := range stream {
//	    ...
//	}
func Watch[R any](ctx context.Context, m *Mediator, query any) (<-chan Emission[R], error) {
	v, err := m.Watch(ctx, query)
	if err != nil {
		return nil, err
	}

	ch, ok := v.(<-chan Emission[R])
	if !ok {
		return nil, fmt.Errorf("%w: got %T, want <-chan Emission[%s]",
			ErrInvalidResultType, v, reflect.TypeOf((*R)(nil)).Elem())
	}
	if ch == nil {
		return nil, ErrNilSubscription
	}
	return ch, nil
}

// assertResult narrows an untyped dispatch result to R, passing dispatch
// errors through untouched.
func assertResult[R any](v any, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	r, ok := v.(R)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %s", ErrInvalidResultType, v, reflect.TypeOf((*R)(nil)).Elem())
	}
	return r, nil
}

package mediator

import "errors"

var (
	// ErrHandlerNotFound is returned when a message is dispatched against a
	// type that has no registered handler in the relevant namespace.
	ErrHandlerNotFound = errors.New("no handler registered for message type")

	// ErrInvalidResultType is returned by the typed dispatch helpers when a
	// handler's result cannot be asserted to the requested type.
	ErrInvalidResultType = errors.New("handler result does not match requested type")

	// ErrNilSubscription is returned when a watch handler returns a nil
	// channel without an error.
	ErrNilSubscription = errors.New("watch handler returned nil subscription")
)

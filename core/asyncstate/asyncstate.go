package asyncstate

import "fmt"

// Status identifies which variant an AsyncState currently holds.
type Status int

const (
	// StatusLoading indicates the computation is in flight.
	StatusLoading Status = iota
	// StatusData indicates the computation produced a value.
	StatusData
	// StatusError indicates the computation failed.
	StatusError
)

// String returns the lowercase status name for logging.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusData:
		return "data"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// AsyncState is an immutable snapshot of one asynchronous computation's
// lifecycle. It is always exactly one of three variants: Loading, Data, or
// Error. Loading and Error may carry the last successful value so that
// consumers can keep displaying stale-but-valid content while a refresh is
// in flight or has failed.
//
// New states are produced by the transition methods (ToLoading, ToData,
// ToError); an existing state is never mutated in place. The zero value is
// Loading with no carried value.
//
// Example:
//
//	s := asyncstate.Loading[string]()
//	s = s.ToData("hello")   // Data("hello")
//	s = s.ToLoading()       // Loading, Value() still ("hello", true)
//	s = s.ToError(err)      // Error(err), Value() still ("hello", true)
//	s = s.ToData("world")   // Data("world"), error discarded
type AsyncState[T any] struct {
	status   Status
	value    T
	hasValue bool
	err      error
}

// Loading returns a Loading state with no carried value. This is the initial
// state of every handle before its first completion or emission arrives.
func Loading[T any]() AsyncState[T] {
	return AsyncState[T]{status: StatusLoading}
}

// Data returns a Data state holding value.
func Data[T any](value T) AsyncState[T] {
	return AsyncState[T]{status: StatusData, value: value, hasValue: true}
}

// Err returns an Error state with no carried value.
func Err[T any](err error) AsyncState[T] {
	return AsyncState[T]{status: StatusError, err: err}
}

// ToLoading transitions to Loading, carrying forward the current value if one
// exists (either from Data or from a value already carried by Loading/Error).
// Used when a refresh begins.
func (s AsyncState[T]) ToLoading() AsyncState[T] {
	return AsyncState[T]{
		status:   StatusLoading,
		value:    s.value,
		hasValue: s.hasValue,
	}
}

// ToData transitions to Data holding value. Any carried error or previous
// value is dropped: a successful result fully replaces stale data.
func (s AsyncState[T]) ToData(value T) AsyncState[T] {
	return Data(value)
}

// ToError transitions to Error, preserving the current value if one exists so
// that consumers can keep showing the last good result alongside the error.
func (s AsyncState[T]) ToError(err error) AsyncState[T] {
	return AsyncState[T]{
		status:   StatusError,
		value:    s.value,
		hasValue: s.hasValue,
		err:      err,
	}
}

// Status reports which variant the state currently holds.
func (s AsyncState[T]) Status() Status {
	return s.status
}

// Value returns the current or carried value. The boolean is true for Data,
// and for Loading/Error states that carry a value from a previous Data.
func (s AsyncState[T]) Value() (T, bool) {
	return s.value, s.hasValue
}

// MustValue returns the current or carried value and panics if none exists.
// Intended for tests and call sites that have already checked HasValue.
func (s AsyncState[T]) MustValue() T {
	if !s.hasValue {
		panic("asyncstate: no value present")
	}
	return s.value
}

// Err returns the error for Error states, nil otherwise.
func (s AsyncState[T]) Err() error {
	if s.status != StatusError {
		return nil
	}
	return s.err
}

// IsLoading reports whether the state is Loading.
func (s AsyncState[T]) IsLoading() bool {
	return s.status == StatusLoading
}

// HasValue reports whether a value is available, either current (Data) or
// carried over (Loading/Error after a previous Data).
func (s AsyncState[T]) HasValue() bool {
	return s.hasValue
}

// HasError reports whether the state is Error.
func (s AsyncState[T]) HasError() bool {
	return s.status == StatusError
}

// String renders the state for logging and test failure messages.
func (s AsyncState[T]) String() string {
	switch s.status {
	case StatusData:
		return fmt.Sprintf("Data(%v)", s.value)
	case StatusError:
		if s.hasValue {
			return fmt.Sprintf("Error(%v, previous=%v)", s.err, s.value)
		}
		return fmt.Sprintf("Error(%v)", s.err)
	default:
		if s.hasValue {
			return fmt.Sprintf("Loading(previous=%v)", s.value)
		}
		return "Loading"
	}
}

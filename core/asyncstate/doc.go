// Package asyncstate provides an immutable three-state value (loading, data,
// error) modeling the lifecycle of one asynchronous computation.
//
// The type is designed for UI-facing state: while a refresh is loading or has
// failed, the last successful value is carried forward so consumers never have
// to replace valid content with a spinner ("anti-flicker"). Transitions are
// pure functions producing new values; states are never mutated in place.
//
// # State Machine
//
// Exactly one of three variants at any instant:
//
//   - Loading: computation in flight, optionally carrying the previous value
//   - Data: computation succeeded, always carrying a concrete value
//   - Error: computation failed, optionally carrying the previous value
//
// Transitions are total over all three inputs:
//
//   - ToLoading: any state -> Loading, carrying the current value forward
//   - ToData: any state -> Data, dropping any carried error or previous value
//   - ToError: any state -> Error, preserving the last good value
//
// # Usage
//
//	state := asyncstate.Loading[User]()
//
//	// refresh begins
//	state = state.ToLoading()
//
//	// refresh completes
//	user, err := repo.Get(ctx, id)
//	if err != nil {
//	    state = state.ToError(err)
//	} else {
//	    state = state.ToData(user)
//	}
//
//	if v, ok := state.Value(); ok {
//	    render(v) // current or last-good value
//	}
//
// # Concurrency
//
// AsyncState values are immutable and safe to share across goroutines. Owners
// that replace a state in a shared field must provide their own
// synchronization; see the handle package.
package asyncstate

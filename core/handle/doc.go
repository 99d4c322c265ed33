// Package handle binds a query dispatched through the mediator to a live,
// disposable, observable AsyncState stream with refresh and anti-flicker
// semantics.
//
// A Handle is the piece UI code holds on to: it starts in Loading, applies
// read completions and watch emissions as state transitions, keeps the last
// good value visible through loading and error excursions, and guarantees
// that once disposed nothing ever mutates its state or calls its observers
// again.
//
// # Bindings
//
// Three constructors cover the retrieval shapes:
//
//   - NewRead: one-shot query; Refresh re-dispatches it
//   - NewWatch: continuous query; emissions stream into the state
//   - NewReadWatch: initial value via read, live updates via watch
//
// # Race Rules
//
// Every read dispatch is tagged with a strictly increasing sequence number at
// issue time. A completion is applied only if its number is still the highest
// issued; anything older is discarded without a state change or notification.
// Two overlapping Refresh calls therefore always settle on the newer
// dispatch's outcome, even when the older one finishes last.
//
// Watch subscriptions carry a generation number with the same role: after a
// resubscribe or Dispose, emissions from the previous subscription are
// dropped on arrival. Within one subscription, emissions apply in the order
// received. In a read-and-watch handle an accepted emission also supersedes
// any read still in flight.
//
// # Usage
//
//	h := handle.NewReadWatch[[]Order](ctx, m, OpenOrders{Account: acc})
//	defer h.Dispose()
//
//	remove := h.Listen(func(s asyncstate.AsyncState[[]Order]) {
//	    if v, ok := s.Value(); ok {
//	        render(v) // stays populated while refreshing or errored
//	    }
//	})
//	defer remove()
//
//	h.Refresh() // Loading(previous kept) -> Data | Error
//
// Observers are notified once per accepted transition, in registration
// order, and never after disposal. The initial state is not replayed to new
// observers; read it with State. Observers may read State and may Dispose
// the handle, but a Refresh triggered from inside an observer callback must
// be launched in its own goroutine.
//
// Handles compose with the dispose package for cascaded teardown:
//
//	var bag dispose.Bag
//	bag.Add(ordersHandle)
//	bag.Add(profileHandle)
//	defer bag.Dispose()
package handle

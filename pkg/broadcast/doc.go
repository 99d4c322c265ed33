// Package broadcast provides a generic in-memory pub/sub primitive with
// non-blocking delivery and automatic subscriber cleanup.
//
// A Broadcaster fans messages out to every active Subscriber over buffered
// channels. Delivery is best-effort: when a subscriber's buffer is full the
// message is dropped for that subscriber, so one slow consumer never blocks
// the producer or its peers.
//
// # Usage
//
//	b := broadcast.NewMemoryBroadcaster[Price](64)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	go func() {
//	    for msg := range sub.Receive() {
//	        render(msg.Data)
//	    }
//	}()
//
//	b.Broadcast(ctx, broadcast.Message[Price]{Data: latest})
//
// Messages carry an optional Err field so a producer can surface a failed
// emission without tearing down the stream; consumers decide how to react.
//
// Subscriptions are removed automatically when their context is canceled.
// Closing a broadcaster closes every subscriber channel; all close operations
// are idempotent and safe for concurrent use.
package broadcast

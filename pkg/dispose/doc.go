// Package dispose provides a one-shot resource teardown contract and small
// helpers for composing it.
//
// The Disposable interface models an entity that owns resources and releases
// them exactly once. Flag is an embeddable atomic guard for implementing the
// contract, Func adapts a closure, and Bag cascades disposal from an owner to
// everything it created.
//
// # Usage
//
// Owning several disposables for the lifetime of a screen or component:
//
//	var bag dispose.Bag
//	bag.Add(profileHandle)
//	bag.Add(dispose.Func(cancelTimer))
//	defer bag.Dispose() // cascades in reverse-add order
//
// All operations are idempotent: disposing twice never panics, and adding to
// an already-disposed bag disposes the newcomer immediately.
package dispose

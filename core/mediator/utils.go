package mediator

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// messageNameCache caches reflection results for message name lookups.
// Key is reflect.Type, value is the message name string.
var messageNameCache sync.Map

// messageName derives a human-readable name from a message type for logs and
// errors. Pointers are dereferenced so *CreateUser and CreateUser render the
// same. Routing itself never uses this name; the registry is keyed by the
// exact reflect.Type, so identically named types in different packages stay
// distinct.
func messageName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if name, ok := messageNameCache.Load(t); ok {
		return name.(string)
	}

	original := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var name string
	if t.Name() != "" {
		name = t.Name()
	} else {
		name = t.String()
	}

	messageNameCache.Store(original, name)
	return name
}

// MessageNameOf returns the routing-log name for a message instance.
// Useful for diagnostics and custom middleware.
func MessageNameOf(msg any) string {
	return messageName(reflect.TypeOf(msg))
}

// safeInvoke executes an invoker with panic recovery. A panicking handler is
// converted to an error so one bad handler cannot take down the caller. This
// is the single recovery point for all three namespaces.
func safeInvoke(inv Invoker, ctx context.Context, msg any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("handler %s panicked: %v", inv.MessageName(), r)
		}
	}()
	return inv.Invoke(ctx, msg)
}

package mediator

import "context"

type messageNameCtx struct{}

// WithMessageName attaches a message name to the context. The broker does
// this before invoking a handler so downstream logging can correlate work
// with the message that triggered it.
func WithMessageName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, messageNameCtx{}, name)
}

// MessageName extracts the message name from the context.
// Returns empty string if not present.
func MessageName(ctx context.Context) string {
	if name, ok := ctx.Value(messageNameCtx{}).(string); ok {
		return name
	}
	return ""
}

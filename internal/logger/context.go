package logger

import "context"

type ctxKey struct{}

var requestIDKey = ctxKey{}

// WithRequestID stores a request ID in the context so downstream log
// statements can correlate records belonging to one chat request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID from the context, or "" if none was
// set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

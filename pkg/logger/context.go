package logger

import "context"

type traceIDKey struct{}

// ContextWithTraceID stores the request trace id so logs, events and error reports can be correlated
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceID returns the trace id stored in ctx, or an empty string
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

// FromContext returns the global logger annotated with the trace id carried by ctx
func FromContext(ctx context.Context) *Logger {
	if id := TraceID(ctx); id != "" {
		return Get().With("trace_id", id)
	}
	return Get()
}

package context

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceContext identifies the request a posting was made in.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, t *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, t)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// TraceFromSpan builds a TraceContext from the span in ctx. When no
// exporter is configured the span context is invalid and fallbackTraceID
// is used with an empty span id.
func TraceFromSpan(ctx context.Context, requestID, fallbackTraceID string) *TraceContext {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &TraceContext{TraceID: fallbackTraceID, RequestID: requestID}
	}
	return &TraceContext{
		TraceID:   sc.TraceID().String(),
		SpanID:    sc.SpanID().String(),
		RequestID: requestID,
	}
}

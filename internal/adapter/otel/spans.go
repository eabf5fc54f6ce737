package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "chatrelay"

// StartStreamSpan starts a span covering one orchestrated completion stream.
func StartStreamSpan(ctx context.Context, messageCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "chat.stream",
		trace.WithAttributes(
			attribute.Int("chat.messages", messageCount),
		),
	)
}

// StartToolCallSpan starts a span for one tool execution within a stream.
func StartToolCallSpan(ctx context.Context, callID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "chat.toolcall",
		trace.WithAttributes(
			attribute.String("toolcall.id", callID),
			attribute.String("toolcall.tool", tool),
		),
	)
}

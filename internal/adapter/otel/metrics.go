package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "chatrelay"

// Metrics holds all ChatRelay metric instruments.
type Metrics struct {
	StreamsStarted   metric.Int64Counter
	StreamsFailed    metric.Int64Counter
	ToolCalls        metric.Int64Counter
	PromptTokens     metric.Int64Counter
	CompletionTokens metric.Int64Counter
	StreamDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.StreamsStarted, err = meter.Int64Counter("chatrelay.streams.started",
		metric.WithDescription("Number of completion streams started"))
	if err != nil {
		return nil, err
	}

	m.StreamsFailed, err = meter.Int64Counter("chatrelay.streams.failed",
		metric.WithDescription("Number of completion streams that terminated abnormally"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("chatrelay.toolcalls",
		metric.WithDescription("Number of tool calls executed"))
	if err != nil {
		return nil, err
	}

	m.PromptTokens, err = meter.Int64Counter("chatrelay.tokens.prompt",
		metric.WithDescription("Prompt tokens consumed"))
	if err != nil {
		return nil, err
	}

	m.CompletionTokens, err = meter.Int64Counter("chatrelay.tokens.completion",
		metric.WithDescription("Completion tokens generated"))
	if err != nil {
		return nil, err
	}

	m.StreamDuration, err = meter.Float64Histogram("chatrelay.stream.duration_seconds",
		metric.WithDescription("Completion stream duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

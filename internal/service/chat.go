package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	relayotel "github.com/Strob0t/ChatRelay/internal/adapter/otel"
	"github.com/Strob0t/ChatRelay/internal/domain/chat"
	"github.com/Strob0t/ChatRelay/internal/port/broadcast"
)

// ChatService wraps the Orchestrator with best-effort event fan-out and
// telemetry. The wire-facing event sequence is unchanged; observers see
// the same events the protocol formatter does.
type ChatService struct {
	orch        *Orchestrator
	broadcaster broadcast.Broadcaster
	metrics     *relayotel.Metrics
}

// NewChatService creates a ChatService. broadcaster and metrics may be nil.
func NewChatService(orch *Orchestrator, broadcaster broadcast.Broadcaster, metrics *relayotel.Metrics) *ChatService {
	return &ChatService{orch: orch, broadcaster: broadcaster, metrics: metrics}
}

// Stream starts an orchestrated completion stream for the given history.
func (s *ChatService) Stream(ctx context.Context, messages []chat.Message) (Stream, error) {
	ctx, span := relayotel.StartStreamSpan(ctx, len(messages))

	inner, err := s.orch.Stream(ctx, messages)
	if err != nil {
		if s.metrics != nil {
			s.metrics.StreamsFailed.Add(ctx, 1)
		}
		span.RecordError(err)
		span.End()
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StreamsStarted.Add(ctx, 1)
	}
	return &observedStream{
		inner:       inner,
		ctx:         ctx,
		span:        span,
		broadcaster: s.broadcaster,
		metrics:     s.metrics,
		started:     time.Now(),
	}, nil
}

// observedStream forwards Recv to the inner stream while publishing each
// event to the broadcaster and recording metrics.
type observedStream struct {
	inner       Stream
	ctx         context.Context
	span        trace.Span
	broadcaster broadcast.Broadcaster
	metrics     *relayotel.Metrics
	started     time.Time
	ended       bool
}

func (s *observedStream) Recv() (chat.Event, error) {
	ev, err := s.inner.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, ErrStreamClosed) {
			s.end()
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.StreamsFailed.Add(s.ctx, 1)
		}
		s.span.RecordError(err)
		s.end()
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(s.ctx, broadcast.NewEnvelope(ev))
	}
	s.record(ev)
	return ev, nil
}

func (s *observedStream) record(ev chat.Event) {
	if s.metrics == nil {
		return
	}
	switch e := ev.(type) {
	case chat.ToolResultAvailable:
		s.metrics.ToolCalls.Add(s.ctx, 1,
			metric.WithAttributes(attribute.String("tool", e.ToolResult.Name)))
	case chat.CompletionFinished:
		s.metrics.PromptTokens.Add(s.ctx, int64(e.Usage.PromptTokens))
		s.metrics.CompletionTokens.Add(s.ctx, int64(e.Usage.CompletionTokens))
		s.metrics.StreamDuration.Record(s.ctx, time.Since(s.started).Seconds(),
			metric.WithAttributes(attribute.String("finish_reason", string(e.FinishReason))))
	}
}

func (s *observedStream) end() {
	if s.ended {
		return
	}
	s.ended = true
	s.span.End()
}

func (s *observedStream) Close() error {
	s.end()
	return s.inner.Close()
}

// Package nats implements the broadcast port using NATS JetStream, so
// other services can observe stream events durably.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/ChatRelay/internal/port/broadcast"
)

const streamName = "CHATRELAY"

// Handler consumes one published message.
type Handler func(subject string, data []byte) error

// Broadcaster publishes stream envelopes to JetStream subjects under
// chat.>.
type Broadcaster struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream
// stream exists.
func Connect(ctx context.Context, url string) (*Broadcaster, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"chat.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Broadcaster{nc: nc, js: js}, nil
}

// Publish delivers the envelope to the subject derived from its type,
// e.g. stream.text_delta becomes chat.stream.text_delta. Failures are
// logged and never surfaced to the producing stream.
func (b *Broadcaster) Publish(ctx context.Context, env broadcast.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("nats marshal failed", "type", env.Type, "error", err)
		return
	}
	if _, err := b.js.Publish(ctx, subjectFor(env.Type), data); err != nil {
		slog.Error("nats publish failed", "type", env.Type, "error", err)
	}
}

// Subscribe registers a handler for envelopes on the given subject
// filter. The returned function stops consumption.
func (b *Broadcaster) Subscribe(ctx context.Context, subject string, handler Handler) (func(), error) {
	consumer, err := b.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(msg.Subject(), msg.Data()); err != nil {
			slog.Error("message handler failed", "subject", msg.Subject(), "error", err)
			if nakErr := msg.Nak(); nakErr != nil {
				slog.Error("nats nak failed", "error", nakErr)
			}
			return
		}
		if ackErr := msg.Ack(); ackErr != nil {
			slog.Error("nats ack failed", "error", ackErr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}

	return cons.Stop, nil
}

// Close shuts down the NATS connection.
func (b *Broadcaster) Close() error {
	b.nc.Close()
	return nil
}

func subjectFor(envType string) string {
	if envType == "" {
		envType = "unknown"
	}
	return "chat." + strings.ReplaceAll(envType, " ", "_")
}

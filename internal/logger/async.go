package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes and stops a handler on shutdown.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler decouples log emission from the request path: records
// are queued and written by background workers, so a slow sink never
// stalls a token stream. When the queue is full records are dropped
// rather than blocking.
type AsyncHandler struct {
	sink    slog.Handler
	queue   chan slog.Record
	workers *sync.WaitGroup
	dropped *atomic.Int64
}

// NewAsyncHandler wraps sink with a queue of the given capacity drained
// by the given number of workers.
func NewAsyncHandler(sink slog.Handler, capacity, workers int) *AsyncHandler {
	h := &AsyncHandler{
		sink:    sink,
		queue:   make(chan slog.Record, capacity),
		workers: &sync.WaitGroup{},
		dropped: &atomic.Int64{},
	}
	for range workers {
		h.workers.Add(1)
		go h.pump()
	}
	return h
}

func (h *AsyncHandler) pump() {
	defer h.workers.Done()
	for rec := range h.queue {
		_ = h.sink.Handle(context.Background(), rec)
	}
}

// Enabled delegates to the sink.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.sink.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it if the queue is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.queue <- rec:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler sharing the queue with an attributed sink.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{
		sink:    h.sink.WithAttrs(attrs),
		queue:   h.queue,
		workers: h.workers,
		dropped: h.dropped,
	}
}

// WithGroup returns a handler sharing the queue with a grouped sink.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{
		sink:    h.sink.WithGroup(name),
		queue:   h.queue,
		workers: h.workers,
		dropped: h.dropped,
	}
}

// DroppedCount reports how many records were discarded on a full queue.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.dropped.Load()
}

// Close stops accepting records and waits for the workers to drain the
// queue.
func (h *AsyncHandler) Close() {
	close(h.queue)
	h.workers.Wait()
}

// Package service contains the application use cases. The streaming
// orchestrator consumes provider events, accumulates partial tool calls by
// stream position, drives tool execution once the provider terminates, and
// yields an ordered sequence of domain events.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
	"github.com/Strob0t/ChatRelay/internal/port/llm"
	"github.com/Strob0t/ChatRelay/internal/port/toolexec"
)

// ErrStreamClosed is returned by Recv after Close has been called.
var ErrStreamClosed = errors.New("stream closed")

// ErrOrphanArgumentFragment indicates the provider sent an argument
// fragment for a stream position that never received a start fragment.
var ErrOrphanArgumentFragment = errors.New("argument fragment for unstarted tool call")

// Stream is a lazy, single-pass sequence of domain events. Recv returns
// io.EOF after the final CompletionFinished event. Close cancels the
// underlying provider stream and any in-flight tool execution; abandoned
// streams must be closed so no background work continues.
type Stream interface {
	Recv() (chat.Event, error)
	Close() error
}

// Orchestrator drives streaming chat completions: one provider stream per
// call, one registry snapshot per call, sequential tool execution by
// default.
type Orchestrator struct {
	provider    llm.Provider
	executor    toolexec.Executor
	maxParallel int
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithMaxParallelTools permits up to n tool executions to run
// concurrently once the provider stream has terminated. Event pairs are
// still emitted grouped per call, in start order. n <= 1 keeps the
// default strictly sequential execution.
func WithMaxParallelTools(n int) Option {
	return func(o *Orchestrator) {
		if n > 1 {
			o.maxParallel = n
		}
	}
}

// New creates an Orchestrator over the given provider and tool executor.
func New(provider llm.Provider, executor toolexec.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:    provider,
		executor:    executor,
		maxParallel: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stream snapshots the registered tool set, opens the provider stream and
// returns the lazy domain event sequence. Both side effects happen here,
// before the first Recv.
func (o *Orchestrator) Stream(ctx context.Context, messages []chat.Message) (Stream, error) {
	tools := o.executor.Tools()

	src, err := o.provider.StreamCompletion(ctx, messages, tools)
	if err != nil {
		return nil, fmt.Errorf("stream completion: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	return &eventStream{
		ctx:         ctx,
		cancel:      cancel,
		src:         src,
		exec:        o.executor,
		maxParallel: o.maxParallel,
		acc:         newAccumulator(),
		phase:       phaseStreaming,
	}, nil
}

// accEntry is the in-progress state of one streaming tool call.
type accEntry struct {
	id   string
	name string
	args strings.Builder
}

// accumulator maps stream position -> in-progress tool call, remembering
// insertion order. Its lifetime is one orchestration call.
type accumulator struct {
	entries []*accEntry
	byPos   map[int]*accEntry
}

func newAccumulator() *accumulator {
	return &accumulator{byPos: make(map[int]*accEntry)}
}

// start opens (or reopens) the entry at the given position.
func (a *accumulator) start(pos int, id, name string) *accEntry {
	e := &accEntry{id: id, name: name}
	if _, seen := a.byPos[pos]; !seen {
		a.entries = append(a.entries, e)
	} else {
		// A restarted position replaces its previous entry in place.
		for i, old := range a.entries {
			if old == a.byPos[pos] {
				a.entries[i] = e
				break
			}
		}
	}
	a.byPos[pos] = e
	return e
}

func (a *accumulator) get(pos int) *accEntry {
	return a.byPos[pos]
}

// resolveCall parses an entry's accumulated argument text and builds the
// finished ToolCall.
func resolveCall(e *accEntry) (chat.ToolCall, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(e.args.String()), &args); err != nil {
		return chat.ToolCall{}, &chat.MalformedArgumentsError{CallID: e.id, Tool: e.name, Cause: err}
	}
	call, err := chat.NewToolCall(e.id, e.name, args)
	if err != nil {
		return chat.ToolCall{}, fmt.Errorf("resolve tool call %s: %w", e.id, err)
	}
	return call, nil
}

const (
	phaseStreaming = iota
	phaseResolving
	phaseFinishing
	phaseDone
)

// eventStream is the pull-based state machine behind Stream. It is not
// safe for concurrent Recv calls; the accumulator and all other state are
// owned by a single orchestration invocation.
type eventStream struct {
	ctx    context.Context
	cancel context.CancelFunc
	src    llm.Stream
	exec   toolexec.Executor

	maxParallel int

	acc      *accumulator
	pending  []chat.Event
	phase    int
	finished llm.Finished

	// resolution cursor
	resolveIdx       int
	completedEmitted bool
	current          chat.ToolCall
	parallel         []*parallelExec

	err    error
	closed bool
}

func (s *eventStream) Recv() (chat.Event, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.err != nil {
		return nil, s.err
	}

	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}

		switch s.phase {
		case phaseStreaming:
			ev, err := s.src.Recv()
			if err != nil {
				return nil, s.fail(err)
			}
			out, err := s.consume(ev)
			if err != nil {
				return nil, s.fail(err)
			}
			if out != nil {
				return out, nil
			}

		case phaseResolving:
			if s.resolveIdx >= len(s.acc.entries) {
				s.phase = phaseFinishing
				continue
			}
			return s.resolveNext()

		case phaseFinishing:
			s.phase = phaseDone
			return chat.CompletionFinished{
				FinishReason: s.finished.FinishReason,
				Usage:        chat.NewUsageStats(s.finished.PromptTokens, s.finished.CompletionTokens),
			}, nil

		default:
			return nil, io.EOF
		}
	}
}

// consume translates one provider event. Text deltas are returned
// directly; tool-call fragments queue their domain events on pending and
// return nil so the caller loops.
func (s *eventStream) consume(ev llm.Event) (chat.Event, error) {
	switch e := ev.(type) {
	case llm.TextDelta:
		return chat.TextDelta{Content: e.Content}, nil

	case llm.ToolCallDelta:
		if e.ID != "" {
			s.acc.start(e.Index, e.ID, e.Name)
			s.pending = append(s.pending, chat.ToolCallStarted{CallID: e.ID, ToolName: e.Name})
		}
		if e.ArgumentsChunk != "" {
			entry := s.acc.get(e.Index)
			if entry == nil {
				return nil, fmt.Errorf("position %d: %w", e.Index, ErrOrphanArgumentFragment)
			}
			entry.args.WriteString(e.ArgumentsChunk)
			s.pending = append(s.pending, chat.ToolCallArgumentChunk{CallID: entry.id, Chunk: e.ArgumentsChunk})
		}

	case llm.Finished:
		s.finished = e
		if len(s.acc.entries) == 0 {
			s.phase = phaseFinishing
		} else {
			s.phase = phaseResolving
			if s.maxParallel > 1 {
				s.startParallel()
			}
		}
	}
	return nil, nil
}

// resolveNext advances the resolution cursor: first Recv of an entry
// parses and emits ToolCallCompleted, the next executes the tool and
// emits ToolResultAvailable. Tool N+1 does not start until N's result
// has been emitted.
func (s *eventStream) resolveNext() (chat.Event, error) {
	if s.maxParallel > 1 {
		return s.resolveNextParallel()
	}

	entry := s.acc.entries[s.resolveIdx]
	if !s.completedEmitted {
		call, err := resolveCall(entry)
		if err != nil {
			return nil, s.fail(err)
		}
		s.current = call
		s.completedEmitted = true
		return chat.ToolCallCompleted{ToolCall: call}, nil
	}

	res, err := s.exec.Execute(s.ctx, s.current)
	if err != nil {
		return nil, s.fail(err)
	}
	s.resolveIdx++
	s.completedEmitted = false
	return chat.ToolResultAvailable{ToolResult: res}, nil
}

// parallelExec tracks one tool call resolving on its own goroutine.
type parallelExec struct {
	call chat.ToolCall
	res  chat.ToolResult
	err  error
	done chan struct{}
}

// startParallel launches every accumulated call behind a weighted
// semaphore. Emission order is unchanged: pairs still appear grouped per
// call, in start order; only the execution itself overlaps.
func (s *eventStream) startParallel() {
	sem := semaphore.NewWeighted(int64(s.maxParallel))
	s.parallel = make([]*parallelExec, len(s.acc.entries))
	for i, entry := range s.acc.entries {
		pe := &parallelExec{done: make(chan struct{})}
		s.parallel[i] = pe
		go func(entry *accEntry, pe *parallelExec) {
			defer close(pe.done)
			if err := sem.Acquire(s.ctx, 1); err != nil {
				pe.err = err
				return
			}
			defer sem.Release(1)
			call, err := resolveCall(entry)
			if err != nil {
				pe.err = err
				return
			}
			pe.call = call
			res, err := s.exec.Execute(s.ctx, call)
			if err != nil {
				pe.err = err
				return
			}
			pe.res = res
		}(entry, pe)
	}
}

func (s *eventStream) resolveNextParallel() (chat.Event, error) {
	pe := s.parallel[s.resolveIdx]
	if !s.completedEmitted {
		<-pe.done
		if pe.err != nil {
			return nil, s.fail(pe.err)
		}
		s.completedEmitted = true
		return chat.ToolCallCompleted{ToolCall: pe.call}, nil
	}
	s.resolveIdx++
	s.completedEmitted = false
	return chat.ToolResultAvailable{ToolResult: pe.res}, nil
}

// fail records the terminal error, tears down the provider stream and
// returns the error. Recv is sticky after a failure.
func (s *eventStream) fail(err error) error {
	s.err = err
	s.teardown()
	return err
}

func (s *eventStream) teardown() {
	s.cancel()
	_ = s.src.Close()
}

func (s *eventStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	return s.src.Close()
}

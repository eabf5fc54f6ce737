package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
	"github.com/Strob0t/ChatRelay/internal/port/llm"
)

func sseServer(t *testing.T, status int, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"boom"}}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func drain(t *testing.T, s llm.Stream) []llm.Event {
	t.Helper()
	var events []llm.Event
	for {
		ev, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		events = append(events, ev)
	}
}

func TestStreamCompletionText(t *testing.T) {
	srv := sseServer(t, http.StatusOK, []string{
		`{"choices":[{"index":0,"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"lo"}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`{"choices":[],"usage":{"prompt_tokens":12,"completion_tokens":3}}`,
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gpt-4o")
	msg, err := chat.NewMessage(chat.RoleUser, "hi")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	stream, err := client.StreamCompletion(context.Background(), []chat.Message{msg}, nil)
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	defer func() { _ = stream.Close() }()

	events := drain(t, stream)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %#v", len(events), events)
	}
	if d, ok := events[0].(llm.TextDelta); !ok || d.Content != "Hel" {
		t.Fatalf("event 0 = %#v, want TextDelta Hel", events[0])
	}
	if d, ok := events[1].(llm.TextDelta); !ok || d.Content != "lo" {
		t.Fatalf("event 1 = %#v, want TextDelta lo", events[1])
	}
	fin, ok := events[2].(llm.Finished)
	if !ok {
		t.Fatalf("event 2 = %#v, want Finished", events[2])
	}
	if fin.FinishReason != chat.FinishStop {
		t.Fatalf("finish reason = %q, want stop", fin.FinishReason)
	}
	if fin.PromptTokens != 12 || fin.CompletionTokens != 3 {
		t.Fatalf("usage = %d/%d, want 12/3", fin.PromptTokens, fin.CompletionTokens)
	}
}

func TestStreamCompletionToolCalls(t *testing.T) {
	srv := sseServer(t, http.StatusOK, []string{
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_current_weather","arguments":""}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"lat\""}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":":1}"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		`{"choices":[],"usage":{"prompt_tokens":40,"completion_tokens":9}}`,
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gpt-4o")
	msg, err := chat.NewMessage(chat.RoleUser, "weather?")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	stream, err := client.StreamCompletion(context.Background(), []chat.Message{msg}, nil)
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	defer func() { _ = stream.Close() }()

	events := drain(t, stream)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4: %#v", len(events), events)
	}
	first, ok := events[0].(llm.ToolCallDelta)
	if !ok {
		t.Fatalf("event 0 = %#v, want ToolCallDelta", events[0])
	}
	if first.ID != "call_1" || first.Name != "get_current_weather" {
		t.Fatalf("first delta = %#v", first)
	}
	var args string
	for _, ev := range events[:3] {
		d, ok := ev.(llm.ToolCallDelta)
		if !ok {
			t.Fatalf("expected ToolCallDelta, got %#v", ev)
		}
		args += d.ArgumentsChunk
	}
	if args != `{"lat":1}` {
		t.Fatalf("accumulated arguments = %q", args)
	}
	fin, ok := events[3].(llm.Finished)
	if !ok || fin.FinishReason != chat.FinishToolCalls {
		t.Fatalf("terminal event = %#v, want Finished tool_calls", events[3])
	}
}

func TestStreamCompletionRateLimited(t *testing.T) {
	srv := sseServer(t, http.StatusTooManyRequests, nil)
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gpt-4o")
	msg, err := chat.NewMessage(chat.RoleUser, "hi")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	_, err = client.StreamCompletion(context.Background(), []chat.Message{msg}, nil)
	var rl *chat.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v, want *chat.RateLimitError", err)
	}
	if rl.Message != "boom" {
		t.Fatalf("message = %q, want boom", rl.Message)
	}
}

func TestStreamCompletionProviderError(t *testing.T) {
	srv := sseServer(t, http.StatusInternalServerError, nil)
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gpt-4o")
	msg, err := chat.NewMessage(chat.RoleUser, "hi")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	_, err = client.StreamCompletion(context.Background(), []chat.Message{msg}, nil)
	var pe *chat.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *chat.ProviderError", err)
	}
	if pe.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", pe.StatusCode)
	}
}

func TestStreamEndsWithoutUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"x\"}}]}\n\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gpt-4o")
	msg, err := chat.NewMessage(chat.RoleUser, "hi")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	stream, err := client.StreamCompletion(context.Background(), []chat.Message{msg}, nil)
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	defer func() { _ = stream.Close() }()

	if _, err := stream.Recv(); err != nil {
		t.Fatalf("first Recv: %v", err)
	}
	_, err = stream.Recv()
	var pe *chat.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *chat.ProviderError", err)
	}
}

func TestStreamInlineError(t *testing.T) {
	srv := sseServer(t, http.StatusOK, []string{
		`{"error":{"message":"model overloaded"}}`,
	})
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gpt-4o")
	msg, err := chat.NewMessage(chat.RoleUser, "hi")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	stream, err := client.StreamCompletion(context.Background(), []chat.Message{msg}, nil)
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	defer func() { _ = stream.Close() }()

	_, err = stream.Recv()
	var pe *chat.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *chat.ProviderError", err)
	}
	if pe.Message != "model overloaded" {
		t.Fatalf("message = %q", pe.Message)
	}
}

func TestRequestShape(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":1,\"completion_tokens\":0}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gpt-4o")
	msg, err := chat.NewMessage(chat.RoleUser, "hi")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	tools := []chat.ToolDescriptor{{
		Name:        "get_current_weather",
		Description: "Current weather at a location.",
		InputSchema: map[string]any{"type": "object"},
	}}
	stream, err := client.StreamCompletion(context.Background(), []chat.Message{msg}, tools)
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	drain(t, stream)
	_ = stream.Close()

	if !captured.Stream {
		t.Fatal("request not marked streaming")
	}
	if !captured.StreamOptions.IncludeUsage {
		t.Fatal("stream_options.include_usage not set")
	}
	if captured.Model != "gpt-4o" {
		t.Fatalf("model = %q", captured.Model)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].Function.Name != "get_current_weather" {
		t.Fatalf("tools = %#v", captured.Tools)
	}
}

// Package openai implements the llm provider port against the OpenAI
// chat completions streaming API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
	"github.com/Strob0t/ChatRelay/internal/port/llm"
	"github.com/Strob0t/ChatRelay/internal/resilience"
)

const defaultBaseURL = "https://api.openai.com"

// Client streams chat completions from the OpenAI API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates an OpenAI streaming client. baseURL may be empty to
// use the public API endpoint.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		// No client-level timeout: responses are long-lived streams.
		// Cancellation comes from the request context.
		httpClient: &http.Client{},
	}
}

// SetBreaker attaches a circuit breaker to stream establishment.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// StreamCompletion opens a streaming completion for the given history and
// advertised tool set. Failures follow the chat error taxonomy: HTTP 429
// maps to *chat.RateLimitError, everything else to *chat.ProviderError.
func (c *Client) StreamCompletion(ctx context.Context, messages []chat.Message, tools []chat.ToolDescriptor) (llm.Stream, error) {
	payload, err := buildRequest(c.model, messages, tools)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var resp *http.Response
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return &chat.ProviderError{Message: "create request", Cause: err}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			return &chat.ProviderError{Message: "http request failed", Cause: err}
		}
		if r.StatusCode != http.StatusOK {
			defer func() { _ = r.Body.Close() }()
			msg := readErrorBody(r.Body)
			if r.StatusCode == http.StatusTooManyRequests {
				return &chat.RateLimitError{Message: msg}
			}
			return &chat.ProviderError{StatusCode: r.StatusCode, Message: msg}
		}
		resp = r
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		if _, ok := err.(*chat.RateLimitError); ok { //nolint:errorlint // breaker returns the call error unwrapped
			return nil, err
		}
		if _, ok := err.(*chat.ProviderError); ok { //nolint:errorlint
			return nil, err
		}
		return nil, &chat.ProviderError{Message: "stream establishment rejected", Cause: err}
	}

	return newStream(resp), nil
}

// readErrorBody extracts the error message from a non-200 response,
// preferring the OpenAI error envelope over the raw body.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(data))
}

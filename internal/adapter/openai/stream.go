package openai

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
	"github.com/Strob0t/ChatRelay/internal/port/llm"
)

// chatCompletionChunk is one decoded SSE payload from the completions stream.
type chatCompletionChunk struct {
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// stream adapts the SSE response body to the llm provider event stream.
type stream struct {
	resp *http.Response
	dec  *sseDecoder

	pending      []llm.Event
	finishReason chat.FinishReason
	terminated   bool
	closed       bool
}

func newStream(resp *http.Response) *stream {
	return &stream{
		resp: resp,
		dec:  newSSEDecoder(resp.Body),
	}
}

func (s *stream) Recv() (llm.Event, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		if s.terminated {
			return nil, io.EOF
		}

		data, err := s.dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// The terminal usage chunk must precede end of stream.
				return nil, &chat.ProviderError{Message: "stream ended without terminal usage chunk"}
			}
			return nil, &chat.ProviderError{Message: "read stream", Cause: err}
		}

		data = bytes.TrimSpace(data)
		if bytes.Equal(data, []byte("[DONE]")) {
			continue
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return nil, &chat.ProviderError{Message: "decode stream chunk", Cause: err}
		}
		if chunk.Error != nil {
			return nil, &chat.ProviderError{Message: chunk.Error.Message}
		}
		s.translate(&chunk)
	}
}

// translate appends the chunk's provider events to the pending queue.
// The terminal Finished event is produced by the usage chunk, carrying
// the most recent finish reason seen on a choice.
func (s *stream) translate(chunk *chatCompletionChunk) {
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			s.pending = append(s.pending, llm.TextDelta{Content: choice.Delta.Content})
		}
		for _, tc := range choice.Delta.ToolCalls {
			s.pending = append(s.pending, llm.ToolCallDelta{
				Index:          tc.Index,
				ID:             tc.ID,
				Name:           tc.Function.Name,
				ArgumentsChunk: tc.Function.Arguments,
			})
		}
		if choice.FinishReason != "" {
			s.finishReason = chat.FinishReason(choice.FinishReason)
		}
	}

	if chunk.Usage != nil {
		reason := s.finishReason
		if reason == "" {
			reason = chat.FinishStop
		}
		s.pending = append(s.pending, llm.Finished{
			FinishReason:     reason,
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
		})
		s.terminated = true
	}
}

func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Body.Close()
}

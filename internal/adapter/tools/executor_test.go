package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

type stubTool struct {
	desc chat.ToolDescriptor
	fn   func(ctx context.Context, args map[string]any) (any, error)
}

func (s stubTool) Descriptor() chat.ToolDescriptor { return s.desc }

func (s stubTool) Call(ctx context.Context, args map[string]any) (any, error) {
	return s.fn(ctx, args)
}

func newStub(name string, fn func(ctx context.Context, args map[string]any) (any, error)) stubTool {
	return stubTool{
		desc: chat.ToolDescriptor{Name: name, InputSchema: map[string]any{"type": "object"}},
		fn:   fn,
	}
}

func TestRegistryPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zulu", "alpha", "mike"} {
		if err := r.Register(newStub(name, nil)); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}
	descs := r.Tools()
	if len(descs) != 3 {
		t.Fatalf("got %d descriptors, want 3", len(descs))
	}
	for i, want := range []string{"zulu", "alpha", "mike"} {
		if descs[i].Name != want {
			t.Fatalf("descriptor %d = %q, want %q", i, descs[i].Name, want)
		}
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStub("echo", nil)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(newStub("echo", nil)); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	call, _ := chat.NewToolCall("call_1", "nope", nil)
	_, err := r.Execute(context.Background(), call)
	if !errors.Is(err, chat.ErrToolNotFound) {
		t.Fatalf("error = %v, want ErrToolNotFound", err)
	}
}

func TestExecuteSuccess(t *testing.T) {
	r := NewRegistry()
	err := r.Register(newStub("echo", func(_ context.Context, args map[string]any) (any, error) {
		return args["msg"], nil
	}))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	call, _ := chat.NewToolCall("call_1", "echo", map[string]any{"msg": "hi"})
	res, err := r.Execute(context.Background(), call)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CallID != "call_1" || res.Name != "echo" || res.Result != "hi" {
		t.Fatalf("result = %#v", res)
	}
}

func TestExecuteWrapsToolFailure(t *testing.T) {
	r := NewRegistry()
	boom := fmt.Errorf("backend unavailable")
	err := r.Register(newStub("flaky", func(context.Context, map[string]any) (any, error) {
		return nil, boom
	}))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	call, _ := chat.NewToolCall("call_1", "flaky", nil)
	_, err = r.Execute(context.Background(), call)
	var te *chat.ToolExecutionError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *chat.ToolExecutionError", err)
	}
	if te.Tool != "flaky" || !errors.Is(te, boom) {
		t.Fatalf("wrapped error = %#v", te)
	}
}

func TestExecuteValidatesArguments(t *testing.T) {
	r := NewRegistry()
	tool := stubTool{
		desc: chat.ToolDescriptor{
			Name: "typed",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"count": map[string]any{"type": "integer"},
				},
				"required": []string{"count"},
			},
		},
		fn: func(_ context.Context, args map[string]any) (any, error) { return args["count"], nil },
	}
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register: %v", err)
	}

	missing, _ := chat.NewToolCall("call_1", "typed", map[string]any{})
	if _, err := r.Execute(context.Background(), missing); err == nil {
		t.Fatal("expected error for missing required field")
	}

	wrong, _ := chat.NewToolCall("call_2", "typed", map[string]any{"count": "three"})
	if _, err := r.Execute(context.Background(), wrong); err == nil {
		t.Fatal("expected error for mistyped field")
	}

	ok, _ := chat.NewToolCall("call_3", "typed", map[string]any{"count": float64(3)})
	res, err := r.Execute(context.Background(), ok)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Result != float64(3) {
		t.Fatalf("result = %#v", res.Result)
	}
}

func TestWeatherToolCall(t *testing.T) {
	svc := weatherFunc(func(_ context.Context, lat, lon float64) (map[string]any, error) {
		if lat != 52.52 || lon != 13.41 {
			t.Fatalf("coordinates = %v,%v", lat, lon)
		}
		return map[string]any{"temperature_2m": 21.5}, nil
	})
	tool := NewWeatherTool(svc)

	out, err := tool.Call(context.Background(), map[string]any{"latitude": 52.52, "longitude": 13.41})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok || m["temperature_2m"] != 21.5 {
		t.Fatalf("output = %#v", out)
	}

	if _, err := tool.Call(context.Background(), map[string]any{"latitude": "north"}); err == nil {
		t.Fatal("expected error for non-numeric latitude")
	}
}

type weatherFunc func(ctx context.Context, lat, lon float64) (map[string]any, error)

func (f weatherFunc) Current(ctx context.Context, lat, lon float64) (map[string]any, error) {
	return f(ctx, lat, lon)
}

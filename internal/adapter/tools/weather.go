package tools

import (
	"context"
	"fmt"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
	"github.com/Strob0t/ChatRelay/internal/port/weather"
)

// WeatherTool exposes the weather service as the get_current_weather tool.
type WeatherTool struct {
	svc weather.Service
}

func NewWeatherTool(svc weather.Service) *WeatherTool {
	return &WeatherTool{svc: svc}
}

func (t *WeatherTool) Descriptor() chat.ToolDescriptor {
	return chat.ToolDescriptor{
		Name:        "get_current_weather",
		Description: "Get the current weather conditions at a geographic coordinate.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"latitude": map[string]any{
					"type":        "number",
					"description": "Latitude in decimal degrees.",
				},
				"longitude": map[string]any{
					"type":        "number",
					"description": "Longitude in decimal degrees.",
				},
			},
			"required": []string{"latitude", "longitude"},
		},
	}
}

func (t *WeatherTool) Call(ctx context.Context, args map[string]any) (any, error) {
	lat, err := floatArg(args, "latitude")
	if err != nil {
		return nil, err
	}
	lon, err := floatArg(args, "longitude")
	if err != nil {
		return nil, err
	}
	return t.svc.Current(ctx, lat, lon)
}

func floatArg(args map[string]any, name string) (float64, error) {
	switch v := args[name].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("argument %s must be a number, got %T", name, v)
	}
}

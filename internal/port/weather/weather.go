// Package weather defines the port interface for weather data providers.
package weather

import "context"

// Service fetches current weather data for a coordinate pair. The returned
// shape is provider-defined and passed through to the model verbatim.
type Service interface {
	Current(ctx context.Context, latitude, longitude float64) (map[string]any, error)
}

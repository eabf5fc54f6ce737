// Package openmeteo implements the weather port against the Open-Meteo
// forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Strob0t/ChatRelay/internal/port/cache"
	"github.com/Strob0t/ChatRelay/internal/resilience"
)

const defaultBaseURL = "https://api.open-meteo.com"

// Client fetches current weather conditions. Responses are cached by
// coordinate to keep repeated tool calls off the network.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
	breaker    *resilience.Breaker
}

type Option func(*Client)

// WithCache attaches a response cache with the given TTL.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithBreaker attaches a circuit breaker to upstream calls.
func WithBreaker(b *resilience.Breaker) Option {
	return func(cl *Client) { cl.breaker = b }
}

// NewClient creates an Open-Meteo client. baseURL may be empty to use the
// public API endpoint.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheTTL:   5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the current conditions at the given coordinate as a
// generic document suitable for feeding back to the model.
func (c *Client) Current(ctx context.Context, latitude, longitude float64) (map[string]any, error) {
	key := cacheKey(latitude, longitude)
	if c.cache != nil {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			var doc map[string]any
			if err := json.Unmarshal(data, &doc); err == nil {
				return doc, nil
			}
		}
	}

	var doc map[string]any
	fetch := func() error {
		var err error
		doc, err = c.fetch(ctx, latitude, longitude)
		return err
	}
	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(doc); err == nil {
			_ = c.cache.Set(ctx, key, data, c.cacheTTL)
		}
	}
	return doc, nil
}

func (c *Client) fetch(ctx context.Context, latitude, longitude float64) (map[string]any, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code")
	q.Set("daily", "sunrise,sunset")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("open-meteo returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Current      map[string]any `json:"current"`
		CurrentUnits map[string]any `json:"current_units"`
		Daily        map[string]any `json:"daily"`
		Timezone     string         `json:"timezone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	doc := map[string]any{
		"latitude":  latitude,
		"longitude": longitude,
		"timezone":  payload.Timezone,
		"current":   payload.Current,
	}
	if payload.CurrentUnits != nil {
		doc["current_units"] = payload.CurrentUnits
	}
	if payload.Daily != nil {
		doc["daily"] = payload.Daily
	}
	return doc, nil
}

func cacheKey(latitude, longitude float64) string {
	return fmt.Sprintf("weather:%.4f:%.4f", latitude, longitude)
}

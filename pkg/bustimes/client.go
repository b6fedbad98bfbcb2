package bustimes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBaseURL = "https://bustimes.org"

const (
	// LookupTimeout bounds a single exact-match registry call so a slow
	// lookup cannot stall a whole route response.
	LookupTimeout = 3 * time.Second

	// SearchTimeout bounds a free-text search call.
	SearchTimeout = 5 * time.Second
)

// Client queries the bustimes.org vehicle registry. Both query modes return
// zero or more records; failures are terminal per call, never retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tracer     trace.Tracer
}

type searchResponse struct {
	Results []Record `json:"results"`
}

func NewClient() *Client {
	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   10 * time.Second,
	}

	return &Client{
		httpClient: client,
		baseURL:    DefaultBaseURL,
		tracer:     otel.Tracer("bustimes-client"),
	}
}

// SetBaseURL overrides the registry base URL, mainly for tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// NormalizeReg uppercases a registration-like token and strips interior
// whitespace, matching how the registry indexes registrations.
func NormalizeReg(reg string) string {
	return strings.ReplaceAll(strings.ToUpper(reg), " ", "")
}

// VehiclesByReg performs an exact-match query by normalized registration.
// Zero results with a nil error means the registry is reachable but has no
// matching vehicle.
func (c *Client) VehiclesByReg(ctx context.Context, reg string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, LookupTimeout)
	defer cancel()
	return c.query(ctx, "reg", NormalizeReg(reg))
}

// Search performs a free-text search against the registry.
func (c *Client) Search(ctx context.Context, text string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, SearchTimeout)
	defer cancel()
	return c.query(ctx, "search", NormalizeReg(text))
}

func (c *Client) query(ctx context.Context, param, value string) ([]Record, error) {
	ctx, span := c.tracer.Start(ctx, "bustimes.query",
		trace.WithAttributes(
			attribute.String("query.param", param),
			attribute.String("query.value", value),
		),
	)
	defer span.End()

	reqURL := fmt.Sprintf("%s/api/vehicles/?%s=%s", c.baseURL, param, url.QueryEscape(value))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "buswatch/1.0.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
	)

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("registry returned status %d", resp.StatusCode)
		span.RecordError(err)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}

	span.SetAttributes(
		attribute.Int("results_count", len(parsed.Results)),
	)

	return parsed.Results, nil
}

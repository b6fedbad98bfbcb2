package tfl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"buswatch/pkg/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBaseURL = "https://api.tfl.gov.uk"

// Client queries the TfL Line Arrivals feed. A failed request is terminal
// for that call; there is no retry policy.
type Client struct {
	httpClient *http.Client
	appKey     string
	baseURL    string
	tracer     trace.Tracer
}

func NewClient(appKey string) *Client {
	// HTTP client with OpenTelemetry instrumentation
	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   10 * time.Second,
	}

	return &Client{
		httpClient: client,
		appKey:     appKey,
		baseURL:    DefaultBaseURL,
		tracer:     otel.Tracer("tfl-client"),
	}
}

// SetBaseURL overrides the API base URL, mainly for tests against mock servers.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Arrivals fetches the current arrival predictions for one route. An empty
// response body is treated as zero vehicles, not an error.
func (c *Client) Arrivals(ctx context.Context, route string) ([]types.RawArrival, error) {
	ctx, span := c.tracer.Start(ctx, "tfl.arrivals",
		trace.WithAttributes(
			attribute.String("route", route),
		),
	)
	defer span.End()

	reqURL := fmt.Sprintf("%s/Line/%s/Arrivals?app_key=%s",
		c.baseURL, url.PathEscape(route), url.QueryEscape(c.appKey))

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
		err := fmt.Errorf("TfL API returned status %d for route %s", resp.StatusCode, route)
		span.RecordError(err)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(body) == 0 {
		return nil, nil
	}

	var arrivals []types.RawArrival
	if err := json.Unmarshal(body, &arrivals); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode arrivals for route %s: %w", route, err)
	}

	span.SetAttributes(
		attribute.Int("arrivals_count", len(arrivals)),
	)

	return arrivals, nil
}

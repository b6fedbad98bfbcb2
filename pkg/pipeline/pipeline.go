package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"buswatch/pkg/clock"
	"buswatch/pkg/metrics"
	"buswatch/pkg/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxBlocksPerResponse is the hard ceiling on route summary blocks attached
// to one response. Successful blocks beyond the ceiling are dropped, not
// queued.
const MaxBlocksPerResponse = 10

// ErrNoValidRoutes is returned when the caller's batch contains no usable
// route numbers. It is rejected before any network call.
var ErrNoValidRoutes = errors.New("at least one valid route number is required")

// ArrivalsSource is the arrivals-feed contract the orchestrator needs.
type ArrivalsSource interface {
	Arrivals(ctx context.Context, route string) ([]types.RawArrival, error)
}

type Config struct {
	Arrivals ArrivalsSource
	Registry FleetResolver
	Clock    clock.Clock     // defaults to the system clock
	Render   ArrivalRenderer // defaults to ChatTimestamp
	// MaxBlocks caps summary blocks per response; defaults to
	// MaxBlocksPerResponse.
	MaxBlocks int
}

// Pipeline runs the per-route aggregation: normalize, reduce, enrich, build.
// Routes are processed independently; one route's failure never aborts its
// siblings.
type Pipeline struct {
	arrivals   ArrivalsSource
	normalizer *Normalizer
	enricher   *Enricher
	render     ArrivalRenderer
	maxBlocks  int
	tracer     trace.Tracer
}

func New(config Config) (*Pipeline, error) {
	if config.Arrivals == nil {
		return nil, fmt.Errorf("an arrivals source is required")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("a vehicle registry is required")
	}

	maxBlocks := config.MaxBlocks
	if maxBlocks <= 0 {
		maxBlocks = MaxBlocksPerResponse
	}

	return &Pipeline{
		arrivals:   config.Arrivals,
		normalizer: NewNormalizer(config.Clock),
		enricher:   NewEnricher(config.Registry),
		render:     config.Render,
		maxBlocks:  maxBlocks,
		tracer:     otel.Tracer("pipeline"),
	}, nil
}

// ParseRoutes splits a comma-separated batch of route numbers, trimming
// whitespace and dropping empty tokens.
func ParseRoutes(batch string) []string {
	var routes []string
	for _, token := range strings.Split(batch, ",") {
		if token = strings.TrimSpace(token); token != "" {
			routes = append(routes, token)
		}
	}
	return routes
}

// QueryRoutes runs the pipeline for each route in the batch and assembles
// the blocks in the caller's route order, capped at the block ceiling. An
// empty result with a nil error means no route produced anything to show.
func (p *Pipeline) QueryRoutes(ctx context.Context, batch string) ([]types.RouteBlock, error) {
	routes := ParseRoutes(batch)
	if len(routes) == 0 {
		return nil, ErrNoValidRoutes
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.query_routes",
		trace.WithAttributes(
			attribute.StringSlice("routes", routes),
			attribute.Int("routes_count", len(routes)),
		),
	)
	defer span.End()

	start := time.Now()

	// Routes are independent; fan out and keep results indexed so the
	// caller's ordering survives.
	results := make([]*types.RouteBlock, len(routes))
	done := make(chan int, len(routes))

	for i, route := range routes {
		go func(idx int, route string) {
			block, err := p.processRoute(ctx, route)
			if err != nil {
				slog.Warn("Route query failed", "route", route, "error", err)
				metrics.RecordRouteProcessed(ctx, "error")
			} else if block == nil {
				metrics.RecordRouteProcessed(ctx, "empty")
			} else {
				results[idx] = block
				metrics.RecordRouteProcessed(ctx, "ok")
			}
			done <- idx
		}(i, route)
	}

	for range routes {
		<-done
	}

	var blocks []types.RouteBlock
	dropped := 0
	for _, block := range results {
		if block == nil {
			continue
		}
		if len(blocks) >= p.maxBlocks {
			dropped++
			continue
		}
		blocks = append(blocks, *block)
	}

	span.SetAttributes(
		attribute.Int("blocks_count", len(blocks)),
		attribute.Int("blocks_dropped", dropped),
		attribute.String("query_duration", time.Since(start).String()),
	)
	metrics.RecordQueryDuration(ctx, time.Since(start).Seconds())

	return blocks, nil
}

// processRoute runs one route through normalize, reduce, enrich and build.
// A nil block with a nil error means the feed had nothing usable.
func (p *Pipeline) processRoute(ctx context.Context, route string) (*types.RouteBlock, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process_route",
		trace.WithAttributes(attribute.String("route", route)),
	)
	defer span.End()

	raw, err := p.arrivals.Arrivals(ctx, route)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch arrivals for route %s: %w", route, err)
	}

	normalized := make([]types.NormalizedArrival, 0, len(raw))
	discarded := 0
	for _, record := range raw {
		arrival, ok := p.normalizer.Normalize(record)
		if !ok {
			discarded++
			continue
		}
		normalized = append(normalized, arrival)
	}
	metrics.RecordArrivals(ctx, int64(len(normalized)), int64(discarded))

	summaries := Reduce(normalized)
	summaries = p.enricher.EnrichAll(ctx, summaries)

	span.SetAttributes(
		attribute.Int("arrivals_raw", len(raw)),
		attribute.Int("arrivals_discarded", discarded),
		attribute.Int("vehicles_count", len(summaries)),
	)

	return BuildBlock(route, summaries, p.render), nil
}

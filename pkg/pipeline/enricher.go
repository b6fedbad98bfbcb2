package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"buswatch/pkg/bustimes"
	"buswatch/pkg/metrics"
	otelutil "buswatch/pkg/otel"
	"buswatch/pkg/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EnrichConcurrency caps in-flight registry calls per route so a busy route
// cannot flood the registry service.
const EnrichConcurrency = 8

// FleetResolver is the registry contract the enricher needs: an exact-match
// query by registration returning zero or more records.
type FleetResolver interface {
	VehiclesByReg(ctx context.Context, reg string) ([]bustimes.Record, error)
}

// Enricher resolves fleet codes for reduced vehicle summaries. Enrichment is
// best-effort: a failed lookup leaves that vehicle's fleet code at "N/A" and
// never disturbs the other vehicles in the query.
type Enricher struct {
	registry FleetResolver
	tracer   trace.Tracer
}

func NewEnricher(registry FleetResolver) *Enricher {
	return &Enricher{
		registry: registry,
		tracer:   otel.Tracer("enricher"),
	}
}

// fleetOutcome is the explicit result of one vehicle's enrichment. Failures
// travel as values so the caller can log and count them without any vehicle
// aborting its siblings.
type fleetOutcome struct {
	vehicleID string
	fleetCode string
	err       error
}

// EnrichAll resolves fleet codes for every summary concurrently, bounded by
// EnrichConcurrency, and returns the updated mapping.
func (e *Enricher) EnrichAll(ctx context.Context, summaries map[string]types.VehicleSummary) map[string]types.VehicleSummary {
	ctx, span := e.tracer.Start(ctx, "enricher.enrich_all",
		trace.WithAttributes(
			attribute.Int("vehicles_count", len(summaries)),
		),
	)
	defer span.End()

	if len(summaries) == 0 {
		return summaries
	}

	outcomes := make(chan fleetOutcome, len(summaries))
	sem := make(chan struct{}, EnrichConcurrency)
	var wg sync.WaitGroup

	for vehicleID := range summaries {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			code, err := e.fleetCode(ctx, id)
			outcomes <- fleetOutcome{vehicleID: id, fleetCode: code, err: err}
		}(vehicleID)
	}

	wg.Wait()
	close(outcomes)

	failed := 0
	for outcome := range outcomes {
		if outcome.err != nil {
			failed++
			slog.Warn("Fleet code lookup failed",
				"vehicle_id", outcome.vehicleID, "error", outcome.err)
			metrics.RecordEnrichment(ctx, "error")
		} else if outcome.fleetCode == unknownFleetCode {
			metrics.RecordEnrichment(ctx, "miss")
		} else {
			metrics.RecordEnrichment(ctx, "ok")
		}

		summary := summaries[outcome.vehicleID]
		summary.FleetCode = outcome.fleetCode
		summaries[outcome.vehicleID] = summary
	}

	span.SetAttributes(
		attribute.Int("vehicles_failed", failed),
	)

	return summaries
}

// fleetCode queries the registry for one vehicle. The first result is used;
// the fleet_code field wins over fleet_number when both are present. Any
// failure yields "N/A" alongside the error.
func (e *Enricher) fleetCode(ctx context.Context, vehicleID string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "enricher.fleet_code",
		trace.WithAttributes(
			attribute.String("vehicle_id", vehicleID),
		),
	)
	defer span.End()

	records, err := e.registry.VehiclesByReg(ctx, vehicleID)
	if err != nil {
		otelutil.RecordError(span, err, otelutil.ErrorTypeHTTP, true)
		return unknownFleetCode, err
	}
	if len(records) == 0 {
		return unknownFleetCode, nil
	}

	if code := records[0].FleetCode(); code != "" {
		return code, nil
	}
	if number := records[0].FleetNumber(); number != "" {
		return number, nil
	}
	return unknownFleetCode, nil
}

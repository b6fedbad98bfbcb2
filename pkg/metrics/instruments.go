package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Route query metrics
var (
	// RoutesProcessed counts per-route pipeline runs by outcome (ok|empty|error)
	RoutesProcessed metric.Int64Counter

	// QueryDuration measures the duration of multi-route queries
	QueryDuration metric.Float64Histogram

	// ArrivalsNormalized counts raw arrival records that survived normalization
	ArrivalsNormalized metric.Int64Counter

	// ArrivalsDiscarded counts raw arrival records dropped for lacking a vehicle identifier
	ArrivalsDiscarded metric.Int64Counter
)

// Registry metrics
var (
	// EnrichmentsTotal counts fleet-code enrichment outcomes (ok|miss|error)
	EnrichmentsTotal metric.Int64Counter

	// RegistryLookupsTotal counts single-vehicle profile lookups
	RegistryLookupsTotal metric.Int64Counter

	// AutocompleteRequestsTotal counts autocomplete searches
	AutocompleteRequestsTotal metric.Int64Counter
)

// initializeInstruments creates all metric instruments
func initializeInstruments() error {
	var err error

	RoutesProcessed, err = Meter.Int64Counter(
		"pipeline.routes.processed",
		metric.WithDescription("Per-route pipeline runs by outcome"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return err
	}

	QueryDuration, err = Meter.Float64Histogram(
		"pipeline.query.duration",
		metric.WithDescription("Duration of multi-route queries"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return err
	}

	ArrivalsNormalized, err = Meter.Int64Counter(
		"pipeline.arrivals.normalized",
		metric.WithDescription("Arrival records that survived normalization"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return err
	}

	ArrivalsDiscarded, err = Meter.Int64Counter(
		"pipeline.arrivals.discarded",
		metric.WithDescription("Arrival records dropped for lacking a vehicle identifier"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return err
	}

	EnrichmentsTotal, err = Meter.Int64Counter(
		"registry.enrichments.total",
		metric.WithDescription("Fleet-code enrichment outcomes"),
		metric.WithUnit("{vehicle}"),
	)
	if err != nil {
		return err
	}

	RegistryLookupsTotal, err = Meter.Int64Counter(
		"registry.lookups.total",
		metric.WithDescription("Single-vehicle profile lookups"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	AutocompleteRequestsTotal, err = Meter.Int64Counter(
		"registry.autocomplete.total",
		metric.WithDescription("Autocomplete searches"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordRouteProcessed counts one per-route pipeline run. Safe to call when
// metrics is disabled.
func RecordRouteProcessed(ctx context.Context, status string) {
	if !IsEnabled() {
		return
	}
	RoutesProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if status == "ok" {
		RecordLastQueryTimestamp()
	}
}

// RecordQueryDuration records the wall time of one multi-route query.
func RecordQueryDuration(ctx context.Context, seconds float64) {
	if !IsEnabled() {
		return
	}
	QueryDuration.Record(ctx, seconds)
}

// RecordArrivals counts normalization results for one route.
func RecordArrivals(ctx context.Context, normalized, discarded int64) {
	if !IsEnabled() {
		return
	}
	if normalized > 0 {
		ArrivalsNormalized.Add(ctx, normalized)
	}
	if discarded > 0 {
		ArrivalsDiscarded.Add(ctx, discarded)
	}
}

// RecordEnrichment counts one fleet-code enrichment outcome (ok|miss|error).
func RecordEnrichment(ctx context.Context, status string) {
	if !IsEnabled() {
		return
	}
	EnrichmentsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordRegistryLookup counts one single-vehicle profile lookup.
func RecordRegistryLookup(ctx context.Context) {
	if !IsEnabled() {
		return
	}
	RegistryLookupsTotal.Add(ctx, 1)
}

// RecordAutocomplete counts one autocomplete search.
func RecordAutocomplete(ctx context.Context) {
	if !IsEnabled() {
		return
	}
	AutocompleteRequestsTotal.Add(ctx, 1)
}

// Package lookup serves the single-vehicle registry command and the
// registration autocomplete, both independent of the arrival pipeline but
// sharing its registry-client contract.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"buswatch/pkg/bustimes"
	"buswatch/pkg/metrics"
	otelutil "buswatch/pkg/otel"
	"buswatch/pkg/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxSuggestions caps autocomplete results per request.
	MaxSuggestions = 25

	// MaxLabelLength caps each rendered suggestion label.
	MaxLabelLength = 100

	// MinQueryLength is the shortest autocomplete input worth querying the
	// registry for; anything shorter returns nothing.
	MinQueryLength = 2
)

// Outcome is the terminal result of a single-vehicle lookup.
type Outcome int

const (
	// Found: the registry returned a matching vehicle.
	Found Outcome = iota
	// NotFound: the registry was reachable but holds no matching vehicle.
	NotFound
	// Failed: the registry was unreachable, returned a bad status, or the
	// response could not be parsed.
	Failed
)

// Registry is the registry-client contract shared with the enricher, plus
// free-text search.
type Registry interface {
	VehiclesByReg(ctx context.Context, reg string) ([]bustimes.Record, error)
	Search(ctx context.Context, text string) ([]bustimes.Record, error)
}

type Service struct {
	registry Registry
	tracer   trace.Tracer
}

func NewService(registry Registry) *Service {
	return &Service{
		registry: registry,
		tracer:   otel.Tracer("lookup"),
	}
}

// Vehicle resolves the full profile for one registration. The first matching
// record is used.
func (s *Service) Vehicle(ctx context.Context, reg string) (types.VehicleProfile, Outcome) {
	ctx, span := s.tracer.Start(ctx, "lookup.vehicle",
		trace.WithAttributes(attribute.String("reg", reg)),
	)
	defer span.End()
	metrics.RecordRegistryLookup(ctx)

	records, err := s.registry.VehiclesByReg(ctx, reg)
	if err != nil {
		slog.Warn("Vehicle lookup failed", "reg", reg, "error", err)
		otelutil.RecordError(span, err, otelutil.ErrorTypeHTTP, true)
		return types.VehicleProfile{}, Failed
	}
	if len(records) == 0 {
		span.SetAttributes(attribute.Bool("found", false))
		return types.VehicleProfile{}, NotFound
	}

	otelutil.SetSpanOk(span)
	return records[0].Profile(), Found
}

// Suggest performs a capped substring search for the autocomplete surface.
// Inputs shorter than two characters return nothing, and any upstream
// failure yields an empty set rather than an error.
func (s *Service) Suggest(ctx context.Context, partial string) []types.Suggestion {
	if len(strings.TrimSpace(partial)) < MinQueryLength {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "lookup.suggest",
		trace.WithAttributes(attribute.String("partial", partial)),
	)
	defer span.End()
	metrics.RecordAutocomplete(ctx)

	records, err := s.registry.Search(ctx, partial)
	if err != nil {
		slog.Warn("Autocomplete search failed", "partial", partial, "error", err)
		otelutil.RecordError(span, err, otelutil.ErrorTypeHTTP, true)
		return nil
	}

	if len(records) > MaxSuggestions {
		records = records[:MaxSuggestions]
	}

	suggestions := make([]types.Suggestion, 0, len(records))
	for _, record := range records {
		suggestions = append(suggestions, types.Suggestion{
			Label: suggestionLabel(record),
			Value: record.Reg(),
		})
	}

	span.SetAttributes(attribute.Int("suggestions_count", len(suggestions)))
	return suggestions
}

// suggestionLabel renders "REG - Operator (Fleet: N)", dropping the fleet
// suffix when the registry has no fleet number, and truncates to the label
// ceiling with an ellipsis marker.
func suggestionLabel(record bustimes.Record) string {
	operator := record.OperatorName()
	if operator == "" {
		operator = "Unknown Operator"
	}

	label := fmt.Sprintf("%s - %s", record.Reg(), operator)
	if fleet := record.FleetNumber(); fleet != "" {
		label = fmt.Sprintf("%s (Fleet: %s)", label, fleet)
	}

	if len(label) > MaxLabelLength {
		label = label[:MaxLabelLength-3] + "..."
	}
	return label
}

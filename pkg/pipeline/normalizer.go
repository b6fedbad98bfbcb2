package pipeline

import (
	"log/slog"
	"time"

	"buswatch/pkg/clock"
	"buswatch/pkg/types"
)

const (
	// noVehicleID is the placeholder the arrivals feed uses when a
	// prediction carries no vehicle. Such records cannot be keyed and
	// are discarded before reduction.
	noVehicleID = "N/A"

	unknownDestination = "Unknown Destination"
	unknownStop        = "Unknown Stop"
)

// Normalizer turns raw arrival records into normalized ones. The arrival
// instant is computed from timeToStation when present (current time plus the
// offset), falling back to the expectedArrival timestamp. The two sources
// are never combined for one record.
type Normalizer struct {
	clock clock.Clock
}

func NewNormalizer(clk clock.Clock) *Normalizer {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Normalizer{clock: clk}
}

// Normalize returns the normalized record and true, or false when the record
// carries no usable vehicle identifier. Timestamp parse failures downgrade
// the arrival instant to unknown; they are never fatal.
func (n *Normalizer) Normalize(raw types.RawArrival) (types.NormalizedArrival, bool) {
	vehicleID := stringField(raw, "vehicleId")
	if vehicleID == "" || vehicleID == noVehicleID {
		return types.NormalizedArrival{}, false
	}

	normalized := types.NormalizedArrival{
		VehicleID:   vehicleID,
		Destination: stringFieldDefault(raw, "destinationName", unknownDestination),
		Stop:        stringFieldDefault(raw, "stationName", unknownStop),
	}

	if seconds, ok := numberField(raw, "timeToStation"); ok {
		normalized.Arrival = n.clock.Now().Add(time.Duration(seconds) * time.Second)
		return normalized, true
	}

	if expected := stringField(raw, "expectedArrival"); expected != "" {
		parsed, err := time.Parse(time.RFC3339, expected)
		if err != nil {
			slog.Warn("Failed to parse expected arrival, treating as unknown",
				"vehicle_id", vehicleID, "expected_arrival", expected, "error", err)
			return normalized, true
		}
		normalized.Arrival = parsed
	}

	return normalized, true
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func stringFieldDefault(m map[string]interface{}, key, fallback string) string {
	if s := stringField(m, key); s != "" {
		return s
	}
	return fallback
}

// numberField extracts an integer-valued field. JSON numbers decode as
// float64 but integers are accepted too for callers that build records
// directly.
func numberField(m map[string]interface{}, key string) (int64, bool) {
	switch v := m[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

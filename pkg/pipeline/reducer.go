package pipeline

import (
	"time"

	"buswatch/pkg/types"
)

// unknownFleetCode is the display value used until (and unless) enrichment
// resolves a real fleet code.
const unknownFleetCode = "N/A"

// Reduce folds a route's normalized arrivals into one summary per distinct
// vehicle identifier, keeping the soonest known arrival. Iteration order of
// the result is undefined; the builder imposes ordering later.
func Reduce(arrivals []types.NormalizedArrival) map[string]types.VehicleSummary {
	summaries := make(map[string]types.VehicleSummary, len(arrivals))

	for _, arrival := range arrivals {
		kept, seen := summaries[arrival.VehicleID]
		if seen && !sooner(arrival.Arrival, kept.Arrival) {
			continue
		}
		summaries[arrival.VehicleID] = types.VehicleSummary{
			VehicleID:   arrival.VehicleID,
			Destination: arrival.Destination,
			Stop:        arrival.Stop,
			Arrival:     arrival.Arrival,
			FleetCode:   unknownFleetCode,
		}
	}

	return summaries
}

// sooner is the replace policy for reduction. A known instant always beats
// an unknown one, an unknown instant never replaces anything, and between
// two known instants the strictly earlier one wins. Equal instants keep the
// first record seen.
func sooner(candidate, kept time.Time) bool {
	if candidate.IsZero() {
		return false
	}
	if kept.IsZero() {
		return true
	}
	return candidate.Before(kept)
}

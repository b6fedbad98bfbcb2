package types

import "time"

// RawArrival is one arrival-prediction record exactly as the arrivals feed
// returns it. The feed offers no schema guarantees, so records are kept as
// untyped maps and fields are extracted defensively downstream.
type RawArrival map[string]interface{}

// NormalizedArrival is a RawArrival reduced to the fields the pipeline needs.
// A zero Arrival means the record carried no parseable prediction.
type NormalizedArrival struct {
	VehicleID   string
	Destination string
	Stop        string
	Arrival     time.Time
}

// ArrivalKnown reports whether the record carries a usable arrival instant.
func (n NormalizedArrival) ArrivalKnown() bool {
	return !n.Arrival.IsZero()
}

// VehicleSummary is the single surviving prediction for one physical vehicle
// within one route query, enriched with the operator's fleet code.
type VehicleSummary struct {
	VehicleID   string    `json:"vehicle_id"`
	Destination string    `json:"destination"`
	Stop        string    `json:"stop"`
	Arrival     time.Time `json:"arrival,omitempty"`
	FleetCode   string    `json:"fleet_code"`
}

// ArrivalKnown reports whether a usable arrival instant survived reduction.
func (v VehicleSummary) ArrivalKnown() bool {
	return !v.Arrival.IsZero()
}

// RouteBlock is the rendered summary for one route: formatted display lines
// plus the structured records they were rendered from, so callers that want
// their own time rendering keep the absolute instants.
type RouteBlock struct {
	Route    string           `json:"route"`
	Lines    []string         `json:"lines"`
	Vehicles []VehicleSummary `json:"vehicles"`
}

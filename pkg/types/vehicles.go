package types

// VehicleProfile is the full registry record for one vehicle. Every field is
// optional; an empty string means the registry did not provide it.
type VehicleProfile struct {
	Registration string `json:"reg"`
	Operator     string `json:"operator,omitempty"`
	FleetNumber  string `json:"fleet_number,omitempty"`
	FleetCode    string `json:"fleet_code,omitempty"`
	VehicleType  string `json:"vehicle_type,omitempty"`
	Livery       string `json:"livery,omitempty"`
	Chassis      string `json:"chassis,omitempty"`
	Name         string `json:"name,omitempty"`
	Notes        string `json:"notes,omitempty"`
	URL          string `json:"url,omitempty"`
}

// Suggestion is one autocomplete entry: a display label capped at 100
// characters and the registration to submit when the entry is picked.
type Suggestion struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

package bustimes

import (
	"strconv"

	"buswatch/pkg/types"
)

// Record is one registry result as returned by the API. The registry makes
// no promises about which fields are present or how numbers are encoded, so
// records stay untyped and fields are extracted defensively.
type Record map[string]interface{}

// Reg returns the vehicle's registration plate, or "".
func (r Record) Reg() string {
	return stringField(r, "reg")
}

// FleetCode returns the operator's short vehicle identifier, or "".
func (r Record) FleetCode() string {
	return stringField(r, "fleet_code")
}

// FleetNumber returns the operator's fleet number rendered as a string.
// The API encodes it as a number for some operators and a string for others.
func (r Record) FleetNumber() string {
	switch v := r["fleet_number"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

// OperatorName returns the operating company's name, or "".
func (r Record) OperatorName() string {
	return nestedName(r, "operator")
}

// VehicleTypeName returns the vehicle type description, or "".
func (r Record) VehicleTypeName() string {
	return nestedName(r, "vehicle_type")
}

// LiveryName returns the livery description, or "".
func (r Record) LiveryName() string {
	return nestedName(r, "livery")
}

func (r Record) Chassis() string { return stringField(r, "chassis") }
func (r Record) Name() string    { return stringField(r, "name") }
func (r Record) Notes() string   { return stringField(r, "notes") }
func (r Record) URL() string     { return stringField(r, "url") }

// Profile flattens the record into the optional-field profile shape.
func (r Record) Profile() types.VehicleProfile {
	return types.VehicleProfile{
		Registration: r.Reg(),
		Operator:     r.OperatorName(),
		FleetNumber:  r.FleetNumber(),
		FleetCode:    r.FleetCode(),
		VehicleType:  r.VehicleTypeName(),
		Livery:       r.LiveryName(),
		Chassis:      r.Chassis(),
		Name:         r.Name(),
		Notes:        r.Notes(),
		URL:          r.URL(),
	}
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// nestedName extracts the "name" field of a nested object like
// {"operator": {"name": "..."}}.
func nestedName(m map[string]interface{}, key string) string {
	if nested, ok := m[key].(map[string]interface{}); ok {
		return stringField(nested, "name")
	}
	return ""
}

package pipeline

import (
	"testing"
	"time"

	"buswatch/pkg/types"
)

func arrival(id string, at time.Time) types.NormalizedArrival {
	return types.NormalizedArrival{
		VehicleID:   id,
		Destination: "Somewhere",
		Stop:        "Stop " + id,
		Arrival:     at,
	}
}

func TestReduce_OnePerVehicle(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	arrivals := []types.NormalizedArrival{
		arrival("LTZ1000", base.Add(5*time.Minute)),
		arrival("LTZ1000", base.Add(2*time.Minute)),
		arrival("LTZ1000", base.Add(8*time.Minute)),
		arrival("LTZ1001", base.Add(time.Minute)),
	}

	got := Reduce(arrivals)
	if len(got) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(got))
	}
	if !got["LTZ1000"].Arrival.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("LTZ1000 arrival = %v, want soonest %v", got["LTZ1000"].Arrival, base.Add(2*time.Minute))
	}
}

func TestReduce_SoonestWinsEitherOrder(t *testing.T) {
	t1 := time.Date(2024, 1, 15, 10, 32, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 15, 10, 40, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input []types.NormalizedArrival
	}{
		{"sooner first", []types.NormalizedArrival{arrival("V1", t1), arrival("V1", t2)}},
		{"sooner last", []types.NormalizedArrival{arrival("V1", t2), arrival("V1", t1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.input)
			if !got["V1"].Arrival.Equal(t1) {
				t.Errorf("Arrival = %v, want %v", got["V1"].Arrival, t1)
			}
		})
	}
}

func TestReduce_KnownBeatsUnknownEitherOrder(t *testing.T) {
	known := time.Date(2024, 1, 15, 10, 32, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input []types.NormalizedArrival
	}{
		{"known first", []types.NormalizedArrival{arrival("V1", known), arrival("V1", time.Time{})}},
		{"unknown first", []types.NormalizedArrival{arrival("V1", time.Time{}), arrival("V1", known)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.input)
			if !got["V1"].Arrival.Equal(known) {
				t.Errorf("Arrival = %v, want known instant %v", got["V1"].Arrival, known)
			}
		})
	}
}

func TestReduce_EqualInstantsKeepFirstSeen(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 32, 0, 0, time.UTC)

	first := arrival("V1", at)
	first.Stop = "First Stop"
	second := arrival("V1", at)
	second.Stop = "Second Stop"

	got := Reduce([]types.NormalizedArrival{first, second})
	if got["V1"].Stop != "First Stop" {
		t.Errorf("Stop = %q, want first-seen record retained", got["V1"].Stop)
	}
}

func TestReduce_DefaultFleetCode(t *testing.T) {
	got := Reduce([]types.NormalizedArrival{arrival("V1", time.Time{})})
	if got["V1"].FleetCode != "N/A" {
		t.Errorf("FleetCode = %q, want %q before enrichment", got["V1"].FleetCode, "N/A")
	}
}

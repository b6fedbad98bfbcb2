package pipeline

import (
	"fmt"
	"testing"
	"time"

	"buswatch/pkg/types"
)

func TestBuildBlock_EmptyMeansNoBlock(t *testing.T) {
	if block := BuildBlock("25", map[string]types.VehicleSummary{}, nil); block != nil {
		t.Errorf("Expected nil block for empty summaries, got %+v", block)
	}
}

func TestBuildBlock_SortedByVehicleID(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 32, 0, 0, time.UTC)

	summaries := map[string]types.VehicleSummary{
		"LTZ1732": {VehicleID: "LTZ1732", Destination: "Ilford", Stop: "Stop C", Arrival: at, FleetCode: "LT732"},
		"BV72YKD": {VehicleID: "BV72YKD", Destination: "Ilford", Stop: "Stop A", FleetCode: "N/A"},
		"LF20XKA": {VehicleID: "LF20XKA", Destination: "Oxford Circus", Stop: "Stop B", Arrival: at.Add(time.Minute), FleetCode: "20100"},
	}

	block := BuildBlock("25", summaries, nil)
	if block == nil {
		t.Fatal("Expected a block")
	}

	wantOrder := []string{"BV72YKD", "LF20XKA", "LTZ1732"}
	for i, want := range wantOrder {
		if block.Vehicles[i].VehicleID != want {
			t.Errorf("Vehicles[%d] = %q, want %q", i, block.Vehicles[i].VehicleID, want)
		}
	}
}

func TestBuildBlock_LineFormat(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 32, 0, 0, time.UTC)

	summaries := map[string]types.VehicleSummary{
		"LTZ1732": {VehicleID: "LTZ1732", Destination: "Ilford", Stop: "Aldgate", Arrival: at, FleetCode: "LT732"},
	}

	block := BuildBlock("25", summaries, nil)
	want := fmt.Sprintf("LT732 - LTZ1732 towards Ilford due <t:%d:R> at Aldgate", at.Unix())
	if block.Lines[0] != want {
		t.Errorf("Line = %q, want %q", block.Lines[0], want)
	}
}

func TestBuildBlock_UnknownArrivalRendersNA(t *testing.T) {
	summaries := map[string]types.VehicleSummary{
		"LTZ1732": {VehicleID: "LTZ1732", Destination: "Ilford", Stop: "Aldgate", FleetCode: "LT732"},
	}

	block := BuildBlock("25", summaries, nil)
	want := "LT732 - LTZ1732 towards Ilford due N/A at Aldgate"
	if block.Lines[0] != want {
		t.Errorf("Line = %q, want %q", block.Lines[0], want)
	}
}

func TestBuildBlock_CustomRenderer(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 32, 0, 0, time.UTC)

	summaries := map[string]types.VehicleSummary{
		"LTZ1732": {VehicleID: "LTZ1732", Destination: "Ilford", Stop: "Aldgate", Arrival: at, FleetCode: "LT732"},
	}

	block := BuildBlock("25", summaries, func(t time.Time) string {
		return t.Format("15:04")
	})
	want := "LT732 - LTZ1732 towards Ilford due 10:32 at Aldgate"
	if block.Lines[0] != want {
		t.Errorf("Line = %q, want %q", block.Lines[0], want)
	}
}

func TestBuildBlock_OrderStableAcrossMapOrder(t *testing.T) {
	summaries := map[string]types.VehicleSummary{}
	for _, id := range []string{"V9", "V1", "V5", "V3", "V7", "V2"} {
		summaries[id] = types.VehicleSummary{VehicleID: id, Destination: "X", Stop: "Y", FleetCode: "N/A"}
	}

	first := BuildBlock("25", summaries, nil)
	for i := 0; i < 10; i++ {
		again := BuildBlock("25", summaries, nil)
		for j := range first.Lines {
			if again.Lines[j] != first.Lines[j] {
				t.Fatalf("Line order changed between builds: %q vs %q", again.Lines[j], first.Lines[j])
			}
		}
	}
}

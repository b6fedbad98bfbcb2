package pipeline

import (
	"fmt"
	"sort"
	"time"

	"buswatch/pkg/types"
)

// ArrivalRenderer renders a known arrival instant for display. The transport
// layer decides what a rendered instant looks like; the pipeline only
// guarantees it receives absolute instants.
type ArrivalRenderer func(time.Time) string

// ChatTimestamp renders an instant as a chat-platform relative timestamp tag,
// left to the platform client to display as "in 4 minutes" style text.
func ChatTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// BuildBlock renders one route's enriched summaries into display lines,
// sorted ascending by vehicle identifier. Sorting by identifier rather than
// arrival time is the documented contract. Returns nil when there is nothing
// to show.
func BuildBlock(route string, summaries map[string]types.VehicleSummary, render ArrivalRenderer) *types.RouteBlock {
	if len(summaries) == 0 {
		return nil
	}
	if render == nil {
		render = ChatTimestamp
	}

	vehicles := make([]types.VehicleSummary, 0, len(summaries))
	for _, summary := range summaries {
		vehicles = append(vehicles, summary)
	}
	sort.Slice(vehicles, func(i, j int) bool {
		return vehicles[i].VehicleID < vehicles[j].VehicleID
	})

	lines := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		due := "N/A"
		if v.ArrivalKnown() {
			due = render(v.Arrival)
		}
		lines = append(lines, fmt.Sprintf("%s - %s towards %s due %s at %s",
			v.FleetCode, v.VehicleID, v.Destination, due, v.Stop))
	}

	return &types.RouteBlock{
		Route:    route,
		Lines:    lines,
		Vehicles: vehicles,
	}
}

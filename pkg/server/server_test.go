package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"buswatch/pkg/lookup"
	"buswatch/pkg/pipeline"
	"buswatch/pkg/types"
)

type stubQuerier struct {
	blocks []types.RouteBlock
	err    error
	batch  string
}

func (s *stubQuerier) QueryRoutes(ctx context.Context, batch string) ([]types.RouteBlock, error) {
	s.batch = batch
	return s.blocks, s.err
}

type stubLookup struct {
	profile     types.VehicleProfile
	outcome     lookup.Outcome
	suggestions []types.Suggestion
}

func (s *stubLookup) Vehicle(ctx context.Context, reg string) (types.VehicleProfile, lookup.Outcome) {
	return s.profile, s.outcome
}

func (s *stubLookup) Suggest(ctx context.Context, partial string) []types.Suggestion {
	return s.suggestions
}

func newTestServer(routes RouteQuerier, vehicles VehicleLookup) *Server {
	if routes == nil {
		routes = &stubQuerier{}
	}
	if vehicles == nil {
		vehicles = &stubLookup{}
	}
	return New(routes, vehicles, ProcessInfo{StartedAt: time.Now(), Version: "test"})
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var parsed map[string]interface{}
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return parsed
}

func TestHome(t *testing.T) {
	s := newTestServer(nil, nil)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Bot is alive!" {
		t.Errorf("Body = %q", string(body))
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(nil, nil)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	parsed := decodeBody(t, resp.Body)
	if parsed["status"] != "online" {
		t.Errorf("status = %v, want %q", parsed["status"], "online")
	}
	if _, ok := parsed["uptime_seconds"]; !ok {
		t.Error("Expected uptime_seconds in health response")
	}
}

func TestPing(t *testing.T) {
	s := newTestServer(nil, nil)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	parsed := decodeBody(t, resp.Body)
	if parsed["version"] != "test" {
		t.Errorf("version = %v, want %q", parsed["version"], "test")
	}
	if _, ok := parsed["uptime"].(string); !ok {
		t.Error("Expected formatted uptime string")
	}
}

func TestRouteSummary_OK(t *testing.T) {
	querier := &stubQuerier{
		blocks: []types.RouteBlock{
			{Route: "25", Lines: []string{"LT732 - LTZ1732 towards Ilford due N/A at Aldgate"}},
		},
	}
	s := newTestServer(querier, nil)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/routes/25", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if querier.batch != "25" {
		t.Errorf("Batch = %q, want %q", querier.batch, "25")
	}

	parsed := decodeBody(t, resp.Body)
	blocks, ok := parsed["blocks"].([]interface{})
	if !ok || len(blocks) != 1 {
		t.Errorf("Expected 1 block in response, got %v", parsed["blocks"])
	}
}

func TestRouteSummary_NoValidRoutes(t *testing.T) {
	s := newTestServer(&stubQuerier{err: pipeline.ErrNoValidRoutes}, nil)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/routes/%20,%20", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 400 {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
	parsed := decodeBody(t, resp.Body)
	if parsed["message"] != "Please provide at least one valid route number." {
		t.Errorf("message = %v", parsed["message"])
	}
}

func TestRouteSummary_NothingFound(t *testing.T) {
	s := newTestServer(&stubQuerier{}, nil)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/routes/999", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
}

func TestRouteSummary_UpstreamFailure(t *testing.T) {
	s := newTestServer(&stubQuerier{err: errors.New("boom")}, nil)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/routes/25", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 502 {
		t.Errorf("Status = %d, want 502", resp.StatusCode)
	}
}

func TestVehicle_Found(t *testing.T) {
	vehicles := &stubLookup{
		profile: types.VehicleProfile{Registration: "LTZ1000", FleetCode: "LT100"},
		outcome: lookup.Found,
	}
	s := newTestServer(nil, vehicles)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/vehicles/LTZ1000", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	parsed := decodeBody(t, resp.Body)
	if parsed["reg"] != "LTZ1000" {
		t.Errorf("reg = %v", parsed["reg"])
	}
}

func TestVehicle_NotFound(t *testing.T) {
	s := newTestServer(nil, &stubLookup{outcome: lookup.NotFound})

	resp, err := s.App().Test(httptest.NewRequest("GET", "/vehicles/ZZ99ZZZ", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
	parsed := decodeBody(t, resp.Body)
	if parsed["message"] != "No vehicle found with registration ZZ99ZZZ." {
		t.Errorf("message = %v", parsed["message"])
	}
}

func TestVehicle_Failed(t *testing.T) {
	s := newTestServer(nil, &stubLookup{outcome: lookup.Failed})

	resp, err := s.App().Test(httptest.NewRequest("GET", "/vehicles/LTZ1000", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 502 {
		t.Errorf("Status = %d, want 502", resp.StatusCode)
	}
}

func TestAutocomplete(t *testing.T) {
	vehicles := &stubLookup{
		suggestions: []types.Suggestion{
			{Label: "LTZ1000 - Stagecoach London (Fleet: 100)", Value: "LTZ1000"},
		},
	}
	s := newTestServer(nil, vehicles)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/vehicles/search?q=LTZ", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	parsed := decodeBody(t, resp.Body)
	suggestions, ok := parsed["suggestions"].([]interface{})
	if !ok || len(suggestions) != 1 {
		t.Fatalf("Expected 1 suggestion, got %v", parsed["suggestions"])
	}
}

func TestAutocomplete_EmptySetIsArray(t *testing.T) {
	s := newTestServer(nil, &stubLookup{})

	resp, err := s.App().Test(httptest.NewRequest("GET", "/vehicles/search?q=L", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	parsed := decodeBody(t, resp.Body)
	suggestions, ok := parsed["suggestions"].([]interface{})
	if !ok {
		t.Fatalf("suggestions must be an array even when empty, got %v", parsed["suggestions"])
	}
	if len(suggestions) != 0 {
		t.Errorf("Expected empty suggestions, got %d", len(suggestions))
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{5*time.Minute + 3*time.Second, "5m 3s"},
		{2*time.Hour + 10*time.Minute, "2h 10m 0s"},
		{49*time.Hour + 30*time.Minute + 15*time.Second, "2d 1h 30m 15s"},
	}

	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gopvt/domain/pvt"
	"gopvt/internal/config"
)

func testApp() *App {
	factor := pvt.DefaultFilteringFactor
	return NewApp(config.PipelineConfig{
		SessionStatistic:  pvt.StatMedian,
		BaselineStatistic: pvt.StatMean,
		FilteringFactor:   &factor,
		UserColumn:        "user_id",
		SessionColumn:     "session",
		ResponseColumn:    "response_time",
	}, nil)
}

func postProcess(t *testing.T, app *App, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	testApp().Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestProcessEndpoint(t *testing.T) {
	body := processRequest{
		Measurements: []measurementPayload{
			{UserID: "u1", Session: "s1", ResponseTime: 300},
			{UserID: "u1", Session: "s1", ResponseTime: 320},
			{UserID: "u1", Session: "s2", ResponseTime: 280},
			{UserID: "u1", Session: "s3", ResponseTime: 290},
		},
		Options: &processOptions{DisableFiltering: true},
	}

	rec := postProcess(t, testApp(), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp processResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(resp.Scores) != 3 {
		t.Fatalf("expected 3 session scores, got %d", len(resp.Scores))
	}
	if resp.Run.MeasurementCount != 4 || resp.Run.ScoreCount != 3 {
		t.Errorf("unexpected run counts: %+v", resp.Run)
	}
	for _, s := range resp.Scores {
		if s.UserID != "u1" {
			t.Errorf("unexpected user: %s", s.UserID)
		}
	}
}

func TestProcessEndpointUnknownStatistic(t *testing.T) {
	body := processRequest{
		Measurements: []measurementPayload{{UserID: "u1", Session: "s1", ResponseTime: 300}},
		Options:      &processOptions{SessionStatistic: "mode"},
	}

	rec := postProcess(t, testApp(), body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("mode")) {
		t.Errorf("error should name the bad value: %s", rec.Body.String())
	}
}

func TestProcessEndpointEmptyBody(t *testing.T) {
	rec := postProcess(t, testApp(), processRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProcessEndpointInvalidFactor(t *testing.T) {
	bad := -1.0
	body := processRequest{
		Measurements: []measurementPayload{{UserID: "u1", Session: "s1", ResponseTime: 300}},
		Options:      &processOptions{FilteringFactor: &bad},
	}

	rec := postProcess(t, testApp(), body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRunsEndpointsWithoutRepository(t *testing.T) {
	app := testApp()
	for _, path := range []string{"/api/v1/runs", "/api/v1/runs/some-id"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", path, rec.Code)
		}
	}
}

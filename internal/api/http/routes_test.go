package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/skycast-ai/skycast/internal/records"
	"github.com/skycast-ai/skycast/internal/session"
	"github.com/skycast-ai/skycast/internal/store"
	"github.com/skycast-ai/skycast/internal/weather"
)

// stubWeather is a minimal weather.API for handler tests.
type stubWeather struct {
	obs      weather.Observation
	forecast []weather.ForecastEntry
	err      error
}

func (s *stubWeather) Current(_ context.Context, _ string) (weather.Observation, error) {
	return s.obs, s.err
}

func (s *stubWeather) Forecast(_ context.Context, _ string) ([]weather.ForecastEntry, error) {
	return s.forecast, s.err
}

func newTestApp(t *testing.T, api weather.API) (*fiber.App, records.Store) {
	t.Helper()

	memStore := store.NewMemoryStore()
	svc := records.NewService(memStore, api)
	controller := session.NewController(session.NewStore(), svc, t.TempDir())

	app := fiber.New()
	RegisterRoutes(app, svc, controller)
	return app, memStore
}

func seed(t *testing.T, s records.Store, city string, temp float64, desc string) int64 {
	t.Helper()
	rec := &records.WeatherRecord{City: city, Temp: temp, Desc: desc}
	if err := s.Insert(context.Background(), rec); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	return rec.ID
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// TestCurrentWeatherRequiresLocation verifies that the current-weather
// endpoint rejects requests without a location.
func TestCurrentWeatherRequiresLocation(t *testing.T) {
	app, _ := newTestApp(t, &stubWeather{})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/weather/current", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCurrentWeatherPersistsRecord(t *testing.T) {
	api := &stubWeather{obs: weather.Observation{City: "Paris", Country: "FR", Temp: 12.5, Description: "rain"}}
	app, memStore := newTestApp(t, api)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/weather/current?location=Paris", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Error bool                  `json:"error"`
		Data  weather.Observation   `json:"data"`
		Rec   records.WeatherRecord `json:"record"`
	}
	decodeBody(t, resp, &body)
	if body.Error || body.Data.City != "Paris" || body.Rec.ID == 0 {
		t.Fatalf("unexpected body: %+v", body)
	}

	recs, err := memStore.List(context.Background())
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected one persisted record, got %v (%v)", recs, err)
	}
}

func TestCurrentWeatherProviderFailure(t *testing.T) {
	app, _ := newTestApp(t, &stubWeather{err: errors.New("unreachable")})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/weather/current?location=Paris", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
}

func TestDeleteBatchInvalidIDs(t *testing.T) {
	app, _ := newTestApp(t, &stubWeather{})

	for _, ids := range []string{"", "a,b", "1,x"} {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/records/delete_batch?ids="+ids, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("ids=%q: expected status %d, got %d", ids, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestDeleteBatchMixedResult(t *testing.T) {
	app, memStore := newTestApp(t, &stubWeather{})
	id := seed(t, memStore, "Paris", 12.5, "rain")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/records/delete_batch?ids=1,42", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Error  bool                      `json:"error"`
		Result records.BatchDeleteResult `json:"result"`
	}
	decodeBody(t, resp, &body)

	if len(body.Result.Deleted) != 1 || body.Result.Deleted[0] != id {
		t.Fatalf("expected deleted [%d], got %v", id, body.Result.Deleted)
	}
	if body.Result.Failed[42] != "not found" {
		t.Fatalf("expected failed entry for 42, got %v", body.Result.Failed)
	}
}

func TestUpdateRecord(t *testing.T) {
	app, memStore := newTestApp(t, &stubWeather{})
	seed(t, memStore, "Paris", 12.5, "rain")

	resp := doJSON(t, app, http.MethodPut, "/api/v1/records/1?desc=sunny", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	rec, err := memStore.Get(context.Background(), 1)
	if err != nil || rec.Desc != "sunny" {
		t.Fatalf("expected updated desc, got %v (%v)", rec, err)
	}

	resp = doJSON(t, app, http.MethodPut, "/api/v1/records/99?desc=sunny", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestDeleteSingleRecord(t *testing.T) {
	app, memStore := newTestApp(t, &stubWeather{})
	seed(t, memStore, "Paris", 12.5, "rain")

	var body struct {
		Deleted bool `json:"deleted"`
	}

	resp := doJSON(t, app, http.MethodDelete, "/api/v1/records/1", nil)
	decodeBody(t, resp, &body)
	if !body.Deleted {
		t.Fatal("expected deleted=true for existing record")
	}

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/records/1", nil)
	decodeBody(t, resp, &body)
	if body.Deleted {
		t.Fatal("expected deleted=false for missing record")
	}
}

func TestCreateRangeValidation(t *testing.T) {
	app, _ := newTestApp(t, &stubWeather{})

	// Missing parameters.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/records/range?location=Paris", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// Inverted dates.
	resp = doJSON(t, app, http.MethodPost,
		"/api/v1/records/range?location=Paris&start_date=2024-01-05&end_date=2024-01-01", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCreateRangeSuccess(t *testing.T) {
	api := &stubWeather{forecast: []weather.ForecastEntry{
		{Date: "2024-01-01", Temp: 5, Description: "mist"},
		{Date: "2024-01-02", Temp: 6, Description: "clear sky"},
	}}
	app, memStore := newTestApp(t, api)

	resp := doJSON(t, app, http.MethodPost,
		"/api/v1/records/range?location=Paris&start_date=2024-01-01&end_date=2024-01-02", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	recs, err := memStore.List(context.Background())
	if err != nil || len(recs) != 2 {
		t.Fatalf("expected 2 created records, got %v (%v)", recs, err)
	}
}

func TestExportEndpoints(t *testing.T) {
	app, memStore := newTestApp(t, &stubWeather{})

	// No records yet: 404.
	resp := doJSON(t, app, http.MethodGet, "/api/v1/export/json", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	seed(t, memStore, "Paris", 12.5, "rain")

	resp = doJSON(t, app, http.MethodGet, "/api/v1/export/csv", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv content type, got %q", ct)
	}

	resp = doJSON(t, app, http.MethodGet, "/api/v1/export/xml", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestChatFlow(t *testing.T) {
	app, _ := newTestApp(t, &stubWeather{})

	var body struct {
		SessionID string        `json:"session_id"`
		Reply     session.Reply `json:"reply"`
	}

	// First message without a session id starts a conversation.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]string{"message": "Paris"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	decodeBody(t, resp, &body)

	if body.SessionID == "" {
		t.Fatal("expected an assigned session id")
	}
	if len(body.Reply.Actions) != 5 {
		t.Fatalf("expected the 5-entry action menu, got %v", body.Reply.Actions)
	}

	// An action selection drives the same session.
	sid := body.SessionID
	resp = doJSON(t, app, http.MethodPost, "/api/v1/chat/action",
		map[string]string{"session_id": sid, "action": "history"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	decodeBody(t, resp, &body)
	if body.Reply.Text == "" {
		t.Fatal("expected a history reply")
	}
}

func TestChatValidation(t *testing.T) {
	app, _ := newTestApp(t, &stubWeather{})

	resp := doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/v1/chat/action", map[string]string{"action": "history"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

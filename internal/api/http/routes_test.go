package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-search/internal/history"
	"github.com/i474232898/weather-search/internal/weather"
)

type stubGeocoder struct{}

func (stubGeocoder) Resolve(_ context.Context, city string) (weather.Coordinates, error) {
	switch strings.ToLower(city) {
	case "boise":
		return weather.Coordinates{Latitude: 43.61, Longitude: -116.20, Name: "Boise", Country: "US"}, nil
	case "new york":
		return weather.Coordinates{Latitude: 40.71, Longitude: -74.0, Name: "New York", Country: "US"}, nil
	case "down":
		return weather.Coordinates{}, fmt.Errorf("%w: status 503", weather.ErrProviderUnavailable)
	case "garbled":
		return weather.Coordinates{}, fmt.Errorf("%w: missing lat", weather.ErrMalformedResponse)
	default:
		return weather.Coordinates{}, weather.ErrCityNotFound
	}
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, _ weather.Coordinates) ([]weather.ForecastSample, error) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]weather.ForecastSample, 0, 16)
	for i := 0; i < 16; i++ {
		out = append(out, weather.ForecastSample{
			Timestamp:            start.Add(time.Duration(i) * 3 * time.Hour),
			Temperature:          float64(i),
			Humidity:             55,
			WindSpeed:            1.5,
			ConditionCode:        "01d",
			ConditionDescription: "clear sky",
		})
	}
	return out, nil
}

func newTestApp() (*fiber.App, *history.MemoryStore) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	store := history.NewMemoryStore(0)
	RegisterRoutes(app, weather.NewService(stubGeocoder{}, stubFetcher{}), store)
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func TestPostWeatherRecordsHistory(t *testing.T) {
	app, store := newTestApp()

	resp := doJSON(t, app, http.MethodPost, "/api/weather", `{"cityName":"boise"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var result weather.WeatherResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.City != "Boise" || result.Country != "US" {
		t.Fatalf("expected canonical city Boise, US, got %q %q", result.City, result.Country)
	}
	if result.Current.Date != "2024-05-01" || result.Current.Temperature.String() != "3.5" {
		t.Fatalf("unexpected current %+v", result.Current)
	}
	if len(result.Forecast) != 2 {
		t.Fatalf("expected 2 forecast days, got %d", len(result.Forecast))
	}

	// A repeat lookup must not fail on the duplicate history entry.
	resp = doJSON(t, app, http.MethodPost, "/api/weather", `{"cityName":"Boise"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d on repeat, got %d", http.StatusOK, resp.StatusCode)
	}

	cities, _ := store.GetAll(context.Background())
	if len(cities) != 1 || cities[0].Name != "Boise" {
		t.Fatalf("expected Boise recorded once, got %+v", cities)
	}
}

func TestPostWeatherStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing field", `{}`, http.StatusBadRequest},
		{"invalid json", `{"cityName":`, http.StatusBadRequest},
		{"blank name", `{"cityName":"   "}`, http.StatusBadRequest},
		{"unknown city", `{"cityName":"Atlantis"}`, http.StatusNotFound},
		{"provider down", `{"cityName":"down"}`, http.StatusBadGateway},
		{"malformed provider payload", `{"cityName":"garbled"}`, http.StatusBadGateway},
		{"legacy city field", `{"city":"Boise"}`, http.StatusOK},
		{"blank cityName with legacy city", `{"cityName":"   ","city":"Boise"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, store := newTestApp()

			resp := doJSON(t, app, http.MethodPost, "/api/weather", tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, resp.StatusCode)
			}

			if tt.want != http.StatusOK {
				var body struct {
					Error   bool   `json:"error"`
					Message string `json:"message"`
				}
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if !body.Error || body.Message == "" {
					t.Fatalf("unexpected error body %+v", body)
				}
				if cities, _ := store.GetAll(context.Background()); len(cities) != 0 {
					t.Fatalf("expected no history on failure, got %+v", cities)
				}
			}
		})
	}
}

func TestGetWeatherByPath(t *testing.T) {
	app, store := newTestApp()

	resp := doJSON(t, app, http.MethodGet, "/api/weather/New%20York", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var result weather.WeatherResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.City != "New York" {
		t.Fatalf("expected New York, got %q", result.City)
	}

	if cities, _ := store.GetAll(context.Background()); len(cities) != 0 {
		t.Fatalf("expected path lookup not to touch history, got %+v", cities)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodGet, "/api/weather/history", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var cities []history.City
	if err := json.NewDecoder(resp.Body).Decode(&cities); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cities) != 0 {
		t.Fatalf("expected empty history, got %+v", cities)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/weather/history", `{"cityName":"Lima"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	var lima history.City
	if err := json.NewDecoder(resp.Body).Decode(&lima); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lima.ID == "" || lima.Name != "Lima" {
		t.Fatalf("unexpected city %+v", lima)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/weather/history", `{"cityName":"LIMA"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodDelete, "/api/weather/history/"+lima.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodDelete, "/api/weather/history/"+lima.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestAPIRoot(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodGet, "/api/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "API is working" {
		t.Fatalf("unexpected body %q", body)
	}
}

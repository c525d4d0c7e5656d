package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-search/internal/common"
	"github.com/i474232898/weather-search/internal/weather"
)

// DefaultOpenWeatherBaseURL is the public OpenWeatherMap API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

// Units requested from the forecast endpoint: °C, m/s, percent humidity.
const openWeatherUnits = "metric"

// OpenWeather implements weather.Geocoder and weather.ForecastFetcher
// against the OpenWeatherMap geocoding and 5 day / 3 hour forecast APIs.
type OpenWeather struct {
	apiKey  string
	baseURL string
	client  *http.Client

	geoCircuit      *gobreaker.CircuitBreaker
	forecastCircuit *gobreaker.CircuitBreaker
}

// NewOpenWeather returns a client. An empty baseURL selects the public API.
func NewOpenWeather(client *http.Client, baseURL, apiKey string) *OpenWeather {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}

	return &OpenWeather{
		apiKey:          apiKey,
		baseURL:         strings.TrimRight(baseURL, "/"),
		client:          client,
		geoCircuit:      newCircuitBreaker("openweather-geocode"),
		forecastCircuit: newCircuitBreaker("openweather-forecast"),
	}
}

type geocodeResult struct {
	Name    string   `json:"name"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat" validate:"required"`
	Lon     *float64 `json:"lon" validate:"required"`
}

// Resolve looks city up with a result limit of one.
func (p *OpenWeather) Resolve(ctx context.Context, city string) (weather.Coordinates, error) {
	city = common.NormalizeCity(city)
	if city == "" {
		return weather.Coordinates{}, fmt.Errorf("%w: empty city name", weather.ErrInvalidInput)
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("limit", "1")
	values.Set("appid", p.apiKey)

	body, err := doRequest(ctx, p.client, p.geoCircuit, p.baseURL+"/geo/1.0/direct?"+values.Encode())
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("geocode %q: %w", city, err)
	}

	// A JSON null decodes to a nil pointer, not an empty list.
	var results *[]geocodeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: decode geocode response: %v", weather.ErrMalformedResponse, err)
	}
	if results == nil {
		return weather.Coordinates{}, fmt.Errorf("%w: geocode response is not a list", weather.ErrMalformedResponse)
	}
	if len(*results) == 0 {
		return weather.Coordinates{}, fmt.Errorf("%w: %q", weather.ErrCityNotFound, city)
	}

	first := (*results)[0]
	if err := validate.Struct(first); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: geocode result: %v", weather.ErrMalformedResponse, err)
	}

	coords := weather.Coordinates{
		Latitude:  *first.Lat,
		Longitude: *first.Lon,
		Name:      first.Name,
		Country:   first.Country,
	}
	if err := validate.Struct(coords); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: geocode coordinates out of range: %v", weather.ErrMalformedResponse, err)
	}

	return coords, nil
}

type forecastPayload struct {
	List []forecastItem `json:"list" validate:"required,min=1,dive"`
	City struct {
		Name     string `json:"name"`
		Timezone int    `json:"timezone"` // seconds east of UTC
	} `json:"city"`
}

type forecastItem struct {
	Dt      *int64            `json:"dt" validate:"required"`
	Main    *forecastMain     `json:"main" validate:"required"`
	Wind    *forecastWind     `json:"wind" validate:"required"`
	Weather []forecastWeather `json:"weather" validate:"required,min=1,dive"`
}

type forecastMain struct {
	Temp     *float64 `json:"temp" validate:"required"`
	Humidity *float64 `json:"humidity" validate:"required"`
}

type forecastWind struct {
	Speed *float64 `json:"speed" validate:"required"`
}

type forecastWeather struct {
	Description string `json:"description" validate:"required"`
	Icon        string `json:"icon"`
}

// Fetch retrieves the forecast series for coords. Sample timestamps are
// placed in the city's fixed UTC offset as reported by the provider.
func (p *OpenWeather) Fetch(ctx context.Context, coords weather.Coordinates) ([]weather.ForecastSample, error) {
	if err := validate.Struct(coords); err != nil {
		return nil, fmt.Errorf("%w: coordinates: %v", weather.ErrInvalidInput, err)
	}

	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	values.Set("units", openWeatherUnits)
	values.Set("appid", p.apiKey)

	body, err := doRequest(ctx, p.client, p.forecastCircuit, p.baseURL+"/data/2.5/forecast?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("forecast %.4f,%.4f: %w", coords.Latitude, coords.Longitude, err)
	}

	var payload forecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode forecast response: %v", weather.ErrMalformedResponse, err)
	}
	if err := validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: forecast payload: %v", weather.ErrMalformedResponse, err)
	}

	zone := time.FixedZone(payload.City.Name, payload.City.Timezone)

	samples := make([]weather.ForecastSample, 0, len(payload.List))
	for _, item := range payload.List {
		samples = append(samples, weather.ForecastSample{
			Timestamp:            time.Unix(*item.Dt, 0).In(zone),
			Temperature:          *item.Main.Temp,
			Humidity:             *item.Main.Humidity,
			WindSpeed:            *item.Wind.Speed,
			ConditionCode:        item.Weather[0].Icon,
			ConditionDescription: item.Weather[0].Description,
		})
	}

	return samples, nil
}

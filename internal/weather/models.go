package weather

import (
	"math"
	"strconv"
	"time"
)

// Coordinates is a geocoded location. Only a Geocoder produces them.
type Coordinates struct {
	Latitude  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"lon" validate:"gte=-180,lte=180"`

	// Name is the provider's canonical spelling of the city, if any.
	Name    string `json:"name,omitempty"`
	Country string `json:"country,omitempty"`
}

// ForecastSample is one sub-daily reading as delivered by the provider.
// Timestamp is expressed in the city's local zone.
type ForecastSample struct {
	Timestamp            time.Time
	Temperature          float64
	Humidity             float64
	WindSpeed            float64
	ConditionCode        string
	ConditionDescription string
}

// Temperature is a degree value kept at one decimal place.
type Temperature float64

// NewTemperature rounds v half away from zero to one decimal.
func NewTemperature(v float64) Temperature {
	return Temperature(math.Round(v*10) / 10)
}

func (t Temperature) String() string {
	return strconv.FormatFloat(float64(t), 'f', 1, 64)
}

// MarshalJSON renders the value as a JSON number with exactly one decimal.
func (t Temperature) MarshalJSON() ([]byte, error) {
	return []byte(t.String()), nil
}

// DailySummary aggregates every sample that falls on one local calendar date.
type DailySummary struct {
	Date        string      `json:"date"` // YYYY-MM-DD, city-local
	Temperature Temperature `json:"temperature"`
	Humidity    float64     `json:"humidity"`
	WindSpeed   float64     `json:"windSpeed"`
	Description string      `json:"description"`
	Icon        string      `json:"icon,omitempty"`
}

// WeatherResult is the pipeline's output for a single query.
// Current is always Forecast[0].
type WeatherResult struct {
	City     string         `json:"city"`
	Country  string         `json:"country,omitempty"`
	Current  DailySummary   `json:"current"`
	Forecast []DailySummary `json:"forecast"`
}

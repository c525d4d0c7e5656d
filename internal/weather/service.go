package weather

import (
	"context"
	"errors"
	"log"

	"github.com/i474232898/weather-search/internal/common"
)

// Service runs the geocode → forecast → aggregate pipeline.
// It holds no per-query state and is safe for concurrent use.
type Service struct {
	geocoder Geocoder
	fetcher  ForecastFetcher
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, fetcher ForecastFetcher) *Service {
	return &Service{
		geocoder: geocoder,
		fetcher:  fetcher,
	}
}

// GetWeatherForCity resolves city, fetches its forecast once and returns the
// aggregated result. A failure at any stage aborts the pipeline and is
// returned as a *StageError wrapping that stage's error kind.
func (s *Service) GetWeatherForCity(ctx context.Context, city string) (WeatherResult, error) {
	query := common.NormalizeCity(city)
	if query == "" {
		return WeatherResult{}, &StageError{Stage: StageValidate, Err: ErrInvalidInput}
	}

	log.Printf("DEBUG: GetWeatherForCity called for %q", query)

	coords, err := s.geocoder.Resolve(ctx, query)
	if err != nil {
		return WeatherResult{}, stageErr(StageGeocode, query, err)
	}

	samples, err := s.fetcher.Fetch(ctx, coords)
	if err != nil {
		return WeatherResult{}, stageErr(StageForecast, query, err)
	}

	current, forecast, err := Aggregate(samples)
	if err != nil {
		return WeatherResult{}, stageErr(StageAggregate, query, err)
	}

	name := coords.Name
	if name == "" {
		name = query
	}

	return WeatherResult{
		City:     name,
		Country:  coords.Country,
		Current:  current,
		Forecast: forecast,
	}, nil
}

func stageErr(stage, query string, err error) error {
	if errors.Is(err, ErrMalformedResponse) {
		log.Printf("ERROR: %s stage got a malformed provider payload for %q: %v", stage, query, err)
	} else {
		log.Printf("INFO: %s stage failed for %q: %v", stage, query, err)
	}
	return &StageError{Stage: stage, Err: err}
}

package weather

import (
	"context"
)

// Geocoder resolves a free-text city name into coordinates.
//
// Implementations return ErrCityNotFound when the provider answers
// successfully with no match, and ErrProviderUnavailable on transport
// failure, so callers can tell the two apart.
type Geocoder interface {
	Resolve(ctx context.Context, city string) (Coordinates, error)
}

// ForecastFetcher retrieves the raw sample series for a location, in
// provider order (ascending timestamp). It performs no aggregation.
type ForecastFetcher interface {
	Fetch(ctx context.Context, coords Coordinates) ([]ForecastSample, error)
}

package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks bad caller input. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCityNotFound is returned when the geocoder has no match for a valid query.
	ErrCityNotFound = errors.New("city not found")
	// ErrProviderUnavailable covers transport failures, timeouts and non-2xx
	// responses. Callers may retry these with backoff.
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	// ErrMalformedResponse is a 2xx payload that could not be decoded or
	// lacks required fields.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrInsufficientData is returned when there is nothing to aggregate.
	ErrInsufficientData = errors.New("insufficient forecast data")
)

// Pipeline stage names reported by StageError.
const (
	StageValidate  = "validate"
	StageGeocode   = "geocode"
	StageForecast  = "forecast"
	StageAggregate = "aggregate"
)

// StageError annotates a pipeline failure with the stage that produced it.
// It unwraps to the original error so errors.Is still sees the kind.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

var kinds = []error{
	ErrInvalidInput,
	ErrCityNotFound,
	ErrProviderUnavailable,
	ErrMalformedResponse,
	ErrInsufficientData,
}

// Describe returns a client-safe summary of err: the failing stage and the
// error kind, without any provider detail.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	msg := "unexpected error"
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			msg = kind.Error()
			break
		}
	}

	var se *StageError
	if errors.As(err, &se) {
		return se.Stage + ": " + msg
	}
	return msg
}

// Retryable reports whether err is of a kind a caller may retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

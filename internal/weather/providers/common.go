package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-search/internal/weather"
)

var validate = validator.New()

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// statusError is a non-2xx provider answer. It counts as a breaker failure.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status code %d", e.code)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.code, e.body)
}

// newCircuitBreaker returns the breaker settings shared by all provider calls:
// trip after five consecutive failures, probe again after thirty seconds.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("INFO: circuit %s: %s -> %s", name, from, to)
		},
	})
}

// doRequest issues a single GET guarded by cb and returns the body of a 2xx
// response. It never retries. Every failure, including an open circuit, is
// reported as weather.ErrProviderUnavailable.
func doRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, rawURL string) ([]byte, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, errNoHTTPClient)
	}

	result, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			// Drop the URL: its query carries the API key.
			var uerr *url.Error
			if errors.As(err, &uerr) {
				return nil, fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
			}
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, &statusError{code: resp.StatusCode, body: string(snippet)}
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", weather.ErrProviderUnavailable)
	}
	return body, nil
}

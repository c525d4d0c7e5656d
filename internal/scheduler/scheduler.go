package scheduler

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-search/internal/weather"
)

// Querier is the part of weather.Service the probe needs.
type Querier interface {
	GetWeatherForCity(ctx context.Context, city string) (weather.WeatherResult, error)
}

// ProbeResult is the outcome of the latest probe for one city. Error holds
// only the failing stage and error kind.
type ProbeResult struct {
	City      string    `json:"city"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
	Latency   string    `json:"latency"`
}

// Scheduler periodically runs the weather pipeline for a fixed set of cities
// and keeps the latest outcome per city for health reporting.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Querier
	cities    []string
	interval  time.Duration
	timeout   time.Duration

	mu      sync.RWMutex
	results map[string]ProbeResult
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, service Querier) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		cities:    cities,
		interval:  interval,
		timeout:   30 * time.Second,
		results:   make(map[string]ProbeResult),
	}
}

// Start schedules the probe job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		log.Println("scheduler: no probe cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running provider probe")
		s.RunOnce(context.Background())
		log.Println("scheduler: completed provider probe")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce probes every configured city concurrently and records the results.
func (s *Scheduler) RunOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			start := time.Now()
			_, err := s.service.GetWeatherForCity(ctx, city)
			res := ProbeResult{
				City:      city,
				OK:        err == nil,
				CheckedAt: start.UTC(),
				Latency:   time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				res.Error = weather.Describe(err)
				log.Printf("scheduler: probe failed for %s: %v", city, err)
			}

			s.mu.Lock()
			s.results[city] = res
			s.mu.Unlock()
		}()
	}
	wg.Wait()
}

// Results returns the latest probe result per city, sorted by city.
func (s *Scheduler) Results() []ProbeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProbeResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

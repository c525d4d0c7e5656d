package weather

import (
	"sort"
)

const dateLayout = "2006-01-02"

// dayBucket accumulates the samples of one calendar date.
type dayBucket struct {
	first   ForecastSample
	sumTemp float64
	count   int
}

// Aggregate reduces a sample series into one DailySummary per local calendar
// date and returns the first day as current alongside the full forecast.
//
// The date of a sample is taken from its own Timestamp (already in the
// city's zone), never from the server clock. Temperature is the mean of the
// day rounded to one decimal; humidity, wind speed and the condition come
// from the first sample of the day.
func Aggregate(samples []ForecastSample) (DailySummary, []DailySummary, error) {
	if len(samples) == 0 {
		return DailySummary{}, nil, ErrInsufficientData
	}

	buckets := make(map[string]*dayBucket)
	for _, s := range samples {
		k := s.Timestamp.Format(dateLayout)

		b, ok := buckets[k]
		if !ok {
			b = &dayBucket{first: s}
			buckets[k] = b
		}
		b.sumTemp += s.Temperature
		b.count++
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	forecast := make([]DailySummary, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		forecast = append(forecast, DailySummary{
			Date:        k,
			Temperature: NewTemperature(b.sumTemp / float64(b.count)),
			Humidity:    b.first.Humidity,
			WindSpeed:   b.first.WindSpeed,
			Description: b.first.ConditionDescription,
			Icon:        b.first.ConditionCode,
		})
	}

	return forecast[0], forecast, nil
}

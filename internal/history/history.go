// Package history persists the list of cities users have searched for.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/i474232898/weather-search/internal/common"
)

var (
	// ErrNotFound is returned when no city has the requested id.
	ErrNotFound = errors.New("city not found in history")
	// ErrDuplicateCity is returned when the name is already present, ignoring case.
	ErrDuplicateCity = errors.New("city already exists in history")
	// ErrInvalidName is returned for a blank city name.
	ErrInvalidName = errors.New("invalid city name")
)

// City is one history entry.
type City struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts both string ids and the integer ids written by
// older history files.
func (c *City) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Name = raw.Name
	c.ID = ""

	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
	case id[0] == '"':
		if err := json.Unmarshal(id, &c.ID); err != nil {
			return fmt.Errorf("history: city id: %w", err)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("history: city id: %w", err)
		}
		c.ID = n.String()
	}
	return nil
}

// Store is the contract every history backend satisfies.
// GetAll returns cities in insertion order.
type Store interface {
	GetAll(ctx context.Context) ([]City, error)
	Add(ctx context.Context, name string) (City, error)
	Remove(ctx context.Context, id string) error
}

func newCity(name string) (City, error) {
	name = common.NormalizeCity(name)
	if name == "" {
		return City{}, ErrInvalidName
	}
	return City{ID: uuid.NewString(), Name: name}, nil
}

func containsCity(cities []City, name string) bool {
	for _, c := range cities {
		if common.SameCity(c.Name, name) {
			return true
		}
	}
	return false
}

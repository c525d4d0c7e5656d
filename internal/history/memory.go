package history

import (
	"context"
	"sync"
)

// MemoryStore is a concurrency-safe in-memory history.
type MemoryStore struct {
	mu sync.RWMutex

	cities []City

	// maxEntries drops the oldest entries once exceeded (0 = unlimited).
	maxEntries int
}

// NewMemoryStore creates an empty MemoryStore.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{maxEntries: maxEntries}
}

// GetAll returns a copy of the history.
func (s *MemoryStore) GetAll(_ context.Context) ([]City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]City, len(s.cities))
	copy(out, s.cities)
	return out, nil
}

// Add appends name and enforces retention.
func (s *MemoryStore) Add(_ context.Context, name string) (City, error) {
	city, err := newCity(name)
	if err != nil {
		return City{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if containsCity(s.cities, city.Name) {
		return City{}, ErrDuplicateCity
	}
	s.cities = append(s.cities, city)

	if s.maxEntries > 0 && len(s.cities) > s.maxEntries {
		over := len(s.cities) - s.maxEntries
		s.cities = append([]City(nil), s.cities[over:]...)
	}
	return city, nil
}

// Remove deletes the city with the given id.
func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.cities {
		if c.ID == id {
			s.cities = append(s.cities[:i:i], s.cities[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

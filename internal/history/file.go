package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the history as a JSON array of {id, name} in a single file.
// Every mutation is a full read/modify/write under one lock.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first write; a missing file reads as an empty history.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// GetAll returns the cities in file order.
func (s *FileStore) GetAll(_ context.Context) ([]City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

// Add appends name unless it is already present.
func (s *FileStore) Add(_ context.Context, name string) (City, error) {
	city, err := newCity(name)
	if err != nil {
		return City{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cities, err := s.read()
	if err != nil {
		return City{}, err
	}
	if containsCity(cities, city.Name) {
		return City{}, ErrDuplicateCity
	}

	if err := s.write(append(cities, city)); err != nil {
		return City{}, err
	}
	return city, nil
}

// Remove deletes the city with the given id.
func (s *FileStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cities, err := s.read()
	if err != nil {
		return err
	}

	kept := cities[:0]
	for _, c := range cities {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cities) {
		return ErrNotFound
	}
	return s.write(kept)
}

func (s *FileStore) read() ([]City, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []City{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []City{}, nil
	}

	var cities []City
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", s.path, err)
	}
	if cities == nil {
		cities = []City{}
	}
	return cities, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *FileStore) write(cities []City) error {
	data, err := json.MarshalIndent(cities, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("history: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("history: write %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("history: write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("history: write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("history: write %s: %w", s.path, err)
	}
	return nil
}

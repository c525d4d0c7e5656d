package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// testStoreContract exercises the behaviour every backend must share.
func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty history, got %+v", all)
	}

	boise, err := s.Add(ctx, "Boise")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if boise.ID == "" || boise.Name != "Boise" {
		t.Fatalf("unexpected city %+v", boise)
	}

	if _, err := s.Add(ctx, "  bOISE "); !errors.Is(err, ErrDuplicateCity) {
		t.Fatalf("expected ErrDuplicateCity, got %v", err)
	}
	if _, err := s.Add(ctx, "   "); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	oslo, err := s.Add(ctx, "Oslo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err = s.GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0] != boise || all[1] != oslo {
		t.Fatalf("expected [boise oslo] in insertion order, got %+v", all)
	}

	if err := s.Remove(ctx, boise.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Remove(ctx, boise.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	all, err = s.GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0] != oslo {
		t.Fatalf("expected only oslo, got %+v", all)
	}
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore(0))
}

func TestMemoryStoreRetention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	for _, name := range []string{"A", "B", "C"} {
		if _, err := s.Add(ctx, name); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, _ := s.GetAll(ctx)
	if len(all) != 2 || all[0].Name != "B" || all[1].Name != "C" {
		t.Fatalf("expected oldest entry dropped, got %+v", all)
	}
}

func TestFileStore(t *testing.T) {
	testStoreContract(t, NewFileStore(filepath.Join(t.TempDir(), "db", "searchHistory.json")))
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "searchHistory.json")

	added, err := NewFileStore(path).Add(ctx, "Lima")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := NewFileStore(path).GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0] != added {
		t.Fatalf("expected persisted city, got %+v", all)
	}
}

func TestFileStoreReadsLegacyIntegerIDs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "searchHistory.json")
	legacy := `[{"name":"Paris","id":1},{"name":"Tokyo","id":2}]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s := NewFileStore(path)
	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].ID != "1" || all[1].ID != "2" || all[1].Name != "Tokyo" {
		t.Fatalf("unexpected cities %+v", all)
	}

	if err := s.Remove(ctx, "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Add(ctx, "paris"); err != nil {
		t.Fatalf("expected re-add after removal to succeed, got %v", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchHistory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := NewFileStore(path).GetAll(context.Background()); err == nil {
		t.Fatal("expected decode error, got nil")
	}
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if err := Migrate(url); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `TRUNCATE search_history`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	s := NewPostgresStore(pool)
	if err := s.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
	testStoreContract(t, s)
}

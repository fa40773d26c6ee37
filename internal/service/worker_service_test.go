package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
)

type fakeRosterCache struct {
	mu     sync.Mutex
	values map[string]string
	hits   int
}

func newFakeRosterCache() *fakeRosterCache {
	return &fakeRosterCache{values: map[string]string{}}
}

func (f *fakeRosterCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	f.hits++
	return v, nil
}

func (f *fakeRosterCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value.(string)
	return nil
}

func (f *fakeRosterCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func TestWorkerCreateRequiresAgent(t *testing.T) {
	svc := NewWorkerService(newFakeWorkerRepo(), nil, time.Second, nil)

	_, err := svc.Create(context.Background(), Actor{ID: "t1", Role: domain.RoleTenant}, CreateWorkerInput{
		Name:     "Wally",
		Category: "Plumbing",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden for tenant, got %v", err)
	}
}

func TestWorkerListServesFromCache(t *testing.T) {
	workers := newFakeWorkerRepo()
	cache := newFakeRosterCache()
	svc := NewWorkerService(workers, cache, time.Minute, nil)
	agent := Actor{ID: "a1", Role: domain.RoleAgent}

	if _, err := svc.Create(context.Background(), agent, CreateWorkerInput{Name: "Wally", Category: "Plumbing"}); err != nil {
		t.Fatal(err)
	}

	first, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 worker, got %d", len(first))
	}

	second, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 {
		t.Fatalf("expected 1 worker from cache, got %d", len(second))
	}
	if cache.hits == 0 {
		t.Error("second list should have hit the cache")
	}
}

func TestToggleFavoriteInvalidatesRoster(t *testing.T) {
	workers := newFakeWorkerRepo()
	cache := newFakeRosterCache()
	svc := NewWorkerService(workers, cache, time.Minute, nil)
	agent := Actor{ID: "a1", Role: domain.RoleAgent}

	worker, err := svc.Create(context.Background(), agent, CreateWorkerInput{Name: "Wally", Category: "Plumbing"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.List(context.Background(), "Plumbing"); err != nil {
		t.Fatal(err)
	}

	toggled, err := svc.ToggleFavorite(context.Background(), agent, worker.ID)
	if err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if !toggled.Favorite {
		t.Error("favorite flag not flipped")
	}

	if _, ok := cache.values["workers:Plumbing"]; ok {
		t.Error("category roster cache not invalidated after toggle")
	}

	again, err := svc.ToggleFavorite(context.Background(), agent, worker.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Favorite {
		t.Error("second toggle should clear the flag")
	}
}

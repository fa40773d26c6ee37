package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
)

// RosterCache is the slice of the Redis client the worker roster needs.
// A nil cache disables caching entirely.
type RosterCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// WorkerService manages the worker roster
type WorkerService struct {
	workerRepo domain.WorkerRepository
	cache      RosterCache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewWorkerService creates a new worker service
func NewWorkerService(
	workerRepo domain.WorkerRepository,
	rosterCache RosterCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *WorkerService {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &WorkerService{
		workerRepo: workerRepo,
		cache:      rosterCache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// CreateWorkerInput captures a new roster entry
type CreateWorkerInput struct {
	Name      string
	Specialty string
	Category  string
}

// Create adds a worker to the roster
func (s *WorkerService) Create(ctx context.Context, actor Actor, input CreateWorkerInput) (*domain.Worker, error) {
	if actor.Role != domain.RoleAgent {
		return nil, fmt.Errorf("%w: only agents can manage the roster", domain.ErrForbidden)
	}
	if input.Name == "" || input.Category == "" {
		return nil, fmt.Errorf("%w: name and category are required", domain.ErrValidation)
	}

	worker := &domain.Worker{
		Name:      input.Name,
		Specialty: input.Specialty,
		Category:  input.Category,
		IsActive:  true,
	}

	if err := s.workerRepo.Create(worker); err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	s.invalidateRoster(ctx, worker.Category)
	s.logger.Info("worker added to roster",
		slog.String("worker_id", worker.ID),
		slog.String("category", worker.Category),
	)

	return worker, nil
}

// List returns the roster, optionally filtered by category, via a short-lived
// Redis cache.
func (s *WorkerService) List(ctx context.Context, category string) ([]*domain.Worker, error) {
	key := rosterKey(category)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var workers []*domain.Worker
			if err := json.Unmarshal([]byte(raw), &workers); err == nil {
				return workers, nil
			}
		}
	}

	var workers []*domain.Worker
	var err error
	if category == "" {
		workers, err = s.workerRepo.List()
	} else {
		workers, err = s.workerRepo.ListByCategory(category)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(workers); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache worker roster", slog.String("error", err.Error()))
			}
		}
	}

	return workers, nil
}

// ToggleFavorite flips a worker's favorite flag
func (s *WorkerService) ToggleFavorite(ctx context.Context, actor Actor, workerID string) (*domain.Worker, error) {
	if actor.Role != domain.RoleAgent {
		return nil, fmt.Errorf("%w: only agents can manage the roster", domain.ErrForbidden)
	}

	worker, err := s.workerRepo.GetByID(workerID)
	if err != nil {
		return nil, err
	}

	worker.Favorite = !worker.Favorite
	if err := s.workerRepo.Update(worker); err != nil {
		return nil, fmt.Errorf("failed to update worker: %w", err)
	}

	s.invalidateRoster(ctx, worker.Category)
	return worker, nil
}

func rosterKey(category string) string {
	if category == "" {
		return "workers:all"
	}
	return "workers:" + category
}

func (s *WorkerService) invalidateRoster(ctx context.Context, category string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, rosterKey("")); err != nil {
		s.logger.Warn("failed to invalidate roster cache", slog.String("error", err.Error()))
	}
	if category != "" {
		if err := s.cache.Delete(ctx, rosterKey(category)); err != nil {
			s.logger.Warn("failed to invalidate roster cache", slog.String("error", err.Error()))
		}
	}
}

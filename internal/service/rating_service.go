package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/internal/observability/metrics"
	"github.com/upkeephq/upkeep/internal/security/audit"
)

// RatingService handles worker rating submission with update-or-insert
// semantics: one row per (request, rater, rater type), latest values win.
type RatingService struct {
	ratingRepo  domain.RatingRepository
	requestRepo domain.RequestRepository
	workerRepo  domain.WorkerRepository
	audit       *audit.Logger
	logger      *slog.Logger
}

// NewRatingService creates a new rating service
func NewRatingService(
	ratingRepo domain.RatingRepository,
	requestRepo domain.RequestRepository,
	workerRepo domain.WorkerRepository,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *RatingService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &RatingService{
		ratingRepo:  ratingRepo,
		requestRepo: requestRepo,
		workerRepo:  workerRepo,
		audit:       auditLog,
		logger:      logger,
	}
}

// SubmitRatingInput captures one rating submission
type SubmitRatingInput struct {
	WorkerID  string
	RequestID string
	Rating    int
	Comment   string
}

// SubmitRating stores a rating for a worker on a request. All validation runs
// before any store call; a zero rating never reaches the repository.
func (s *RatingService) SubmitRating(ctx context.Context, actor Actor, input SubmitRatingInput) (*domain.WorkerRating, error) {
	if actor.ID == "" {
		metrics.ObserveRating("auth_error")
		return nil, fmt.Errorf("%w: no authenticated rater", domain.ErrUnauthorized)
	}

	raterType := domain.RaterType(actor.Role)
	if !raterType.Valid() {
		// The store enforces a rater_type constraint; reject ahead of it with
		// the same auth categorization so callers surface a recoverable message.
		metrics.ObserveRating("auth_error")
		return nil, fmt.Errorf("%w: %s cannot rate workers", domain.ErrUnauthorized, actor.Role)
	}

	if input.Rating < 1 || input.Rating > 5 {
		metrics.ObserveRating("validation_error")
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}

	if input.WorkerID == "" || input.RequestID == "" {
		metrics.ObserveRating("validation_error")
		return nil, fmt.Errorf("%w: worker id and request id are required", domain.ErrValidation)
	}

	request, err := s.requestRepo.GetByID(input.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.StatusCompleted {
		metrics.ObserveRating("validation_error")
		return nil, fmt.Errorf("%w: only completed requests can be rated", domain.ErrValidation)
	}

	if _, err := s.workerRepo.GetByID(input.WorkerID); err != nil {
		return nil, err
	}

	existing, err := s.ratingRepo.GetByRequestAndRater(input.RequestID, actor.ID, raterType)
	switch {
	case err == nil:
		// Overwrite all fields of the existing row
		existing.WorkerID = input.WorkerID
		existing.Rating = input.Rating
		existing.Comment = input.Comment
		if err := s.ratingRepo.Update(existing); err != nil {
			metrics.ObserveRating("store_error")
			return nil, fmt.Errorf("failed to update rating: %w", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		existing = &domain.WorkerRating{
			WorkerID:  input.WorkerID,
			RequestID: input.RequestID,
			RaterID:   actor.ID,
			RaterType: raterType,
			Rating:    input.Rating,
			Comment:   input.Comment,
		}
		if err := s.ratingRepo.Create(existing); err != nil {
			metrics.ObserveRating("store_error")
			return nil, fmt.Errorf("failed to create rating: %w", err)
		}
	default:
		metrics.ObserveRating("store_error")
		return nil, fmt.Errorf("failed to look up rating: %w", err)
	}

	s.refreshWorkerAggregate(input.WorkerID)

	metrics.ObserveRating("success")
	s.audit.LogRating(ctx, actor.ID, string(actor.Role), input.WorkerID, "stored",
		fmt.Sprintf("request=%s rating=%d", input.RequestID, input.Rating))

	return existing, nil
}

// ListByWorker returns all ratings stored for a worker
func (s *RatingService) ListByWorker(ctx context.Context, workerID string) ([]*domain.WorkerRating, error) {
	if workerID == "" {
		return nil, fmt.Errorf("%w: worker id is required", domain.ErrValidation)
	}
	return s.ratingRepo.ListByWorker(workerID)
}

// refreshWorkerAggregate recomputes the worker's mean rating. Failures are
// logged, not surfaced: the rating itself is already stored.
func (s *RatingService) refreshWorkerAggregate(workerID string) {
	ratings, err := s.ratingRepo.ListByWorker(workerID)
	if err != nil || len(ratings) == 0 {
		if err != nil {
			s.logger.Error("failed to recompute worker rating", slog.String("worker_id", workerID), slog.String("error", err.Error()))
		}
		return
	}

	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(ratings))

	worker, err := s.workerRepo.GetByID(workerID)
	if err != nil {
		return
	}
	worker.Rating = mean
	if err := s.workerRepo.Update(worker); err != nil {
		s.logger.Error("failed to store worker rating aggregate", slog.String("worker_id", workerID), slog.String("error", err.Error()))
	}
}

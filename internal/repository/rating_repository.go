package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/upkeephq/upkeep/internal/domain"
)

// PostgresRatingRepository implements domain.RatingRepository using PostgreSQL
type PostgresRatingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRatingRepository creates a new worker rating repository
func NewPostgresRatingRepository(db *sql.DB, logger *slog.Logger) *PostgresRatingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRatingRepository{db: db, logger: logger}
}

// Create inserts a new rating row
func (r *PostgresRatingRepository) Create(rating *domain.WorkerRating) error {
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}

	query := `
		INSERT INTO worker_ratings (id, worker_id, maintenance_request_id, rater_id, rater_type, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		query,
		rating.ID,
		rating.WorkerID,
		rating.RequestID,
		rating.RaterID,
		rating.RaterType,
		rating.Rating,
		rating.Comment,
	).Scan(&rating.CreatedAt, &rating.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create rating",
			slog.String("worker_id", rating.WorkerID),
			slog.String("request_id", rating.RequestID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

// Update overwrites all mutable fields of an existing rating
func (r *PostgresRatingRepository) Update(rating *domain.WorkerRating) error {
	query := `
		UPDATE worker_ratings
		SET worker_id = $1, rating = $2, comment = $3
		WHERE id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRow(query, rating.WorkerID, rating.Rating, rating.Comment, rating.ID).Scan(&rating.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update rating: %w", err)
	}
	return nil
}

// GetByRequestAndRater retrieves the single rating for a (request, rater, rater_type)
func (r *PostgresRatingRepository) GetByRequestAndRater(requestID, raterID string, raterType domain.RaterType) (*domain.WorkerRating, error) {
	rating := &domain.WorkerRating{}
	query := `
		SELECT id, worker_id, maintenance_request_id, rater_id, rater_type, rating, comment, created_at, updated_at
		FROM worker_ratings
		WHERE maintenance_request_id = $1 AND rater_id = $2 AND rater_type = $3
	`
	err := r.db.QueryRow(query, requestID, raterID, raterType).Scan(
		&rating.ID,
		&rating.WorkerID,
		&rating.RequestID,
		&rating.RaterID,
		&rating.RaterType,
		&rating.Rating,
		&rating.Comment,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return rating, nil
}

// ListByWorker returns all ratings stored for a worker
func (r *PostgresRatingRepository) ListByWorker(workerID string) ([]*domain.WorkerRating, error) {
	query := `
		SELECT id, worker_id, maintenance_request_id, rater_id, rater_type, rating, comment, created_at, updated_at
		FROM worker_ratings
		WHERE worker_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, workerID)
	if err != nil {
		r.logger.Error("failed to list ratings by worker",
			slog.String("worker_id", workerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*domain.WorkerRating
	for rows.Next() {
		rating := &domain.WorkerRating{}
		err := rows.Scan(
			&rating.ID,
			&rating.WorkerID,
			&rating.RequestID,
			&rating.RaterID,
			&rating.RaterType,
			&rating.Rating,
			&rating.Comment,
			&rating.CreatedAt,
			&rating.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

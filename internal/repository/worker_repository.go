package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/upkeephq/upkeep/internal/domain"
)

// PostgresWorkerRepository implements domain.WorkerRepository using PostgreSQL
type PostgresWorkerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresWorkerRepository creates a new worker repository
func NewPostgresWorkerRepository(db *sql.DB, logger *slog.Logger) *PostgresWorkerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresWorkerRepository{db: db, logger: logger}
}

// Create creates a new worker
func (r *PostgresWorkerRepository) Create(worker *domain.Worker) error {
	if worker.ID == "" {
		worker.ID = uuid.NewString()
	}

	query := `
		INSERT INTO workers (id, name, specialty, category, rating, favorite, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		query,
		worker.ID,
		worker.Name,
		worker.Specialty,
		worker.Category,
		worker.Rating,
		worker.Favorite,
		worker.IsActive,
	).Scan(&worker.CreatedAt, &worker.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create worker",
			slog.String("name", worker.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}

// GetByID retrieves a worker by ID
func (r *PostgresWorkerRepository) GetByID(id string) (*domain.Worker, error) {
	w := &domain.Worker{}
	query := `
		SELECT id, name, specialty, category, rating, favorite, is_active, created_at, updated_at
		FROM workers
		WHERE id = $1
	`
	err := r.db.QueryRow(query, id).Scan(
		&w.ID, &w.Name, &w.Specialty, &w.Category, &w.Rating, &w.Favorite, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	return w, nil
}

// Update updates an existing worker
func (r *PostgresWorkerRepository) Update(worker *domain.Worker) error {
	query := `
		UPDATE workers
		SET name = $1, specialty = $2, category = $3, rating = $4, favorite = $5, is_active = $6
		WHERE id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRow(
		query,
		worker.Name,
		worker.Specialty,
		worker.Category,
		worker.Rating,
		worker.Favorite,
		worker.IsActive,
		worker.ID,
	).Scan(&worker.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update worker: %w", err)
	}
	return nil
}

// List returns all active workers
func (r *PostgresWorkerRepository) List() ([]*domain.Worker, error) {
	query := `
		SELECT id, name, specialty, category, rating, favorite, is_active, created_at, updated_at
		FROM workers
		WHERE is_active = true
		ORDER BY favorite DESC, rating DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	return collectWorkers(rows)
}

// ListByCategory returns active workers matching a category
func (r *PostgresWorkerRepository) ListByCategory(category string) ([]*domain.Worker, error) {
	query := `
		SELECT id, name, specialty, category, rating, favorite, is_active, created_at, updated_at
		FROM workers
		WHERE category = $1 AND is_active = true
		ORDER BY favorite DESC, rating DESC
	`
	rows, err := r.db.Query(query, category)
	if err != nil {
		r.logger.Error("failed to list workers by category",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	return collectWorkers(rows)
}

func collectWorkers(rows *sql.Rows) ([]*domain.Worker, error) {
	var workers []*domain.Worker
	for rows.Next() {
		w := &domain.Worker{}
		if err := rows.Scan(&w.ID, &w.Name, &w.Specialty, &w.Category, &w.Rating, &w.Favorite, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

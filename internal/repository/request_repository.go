package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upkeephq/upkeep/internal/domain"
)

// PostgresRequestRepository implements domain.RequestRepository using PostgreSQL
type PostgresRequestRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRequestRepository creates a new maintenance request repository
func NewPostgresRequestRepository(db *sql.DB, logger *slog.Logger) *PostgresRequestRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRequestRepository{db: db, logger: logger}
}

const requestColumns = `id, tenant_id, property_id, category, subcategory, title, description, room,
	priority, status, estimated_cost, actual_cost, max_budget, assigned_worker_id,
	tenant_notes, agent_notes, landlord_notes, created_at, updated_at, completed_at`

func scanRequest(row interface{ Scan(...any) error }) (*domain.MaintenanceRequest, error) {
	req := &domain.MaintenanceRequest{}
	err := row.Scan(
		&req.ID,
		&req.TenantID,
		&req.PropertyID,
		&req.Category,
		&req.Subcategory,
		&req.Title,
		&req.Description,
		&req.Room,
		&req.Priority,
		&req.Status,
		&req.EstimatedCost,
		&req.ActualCost,
		&req.MaxBudget,
		&req.AssignedWorkerID,
		&req.TenantNotes,
		&req.AgentNotes,
		&req.LandlordNotes,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Create creates a new maintenance request
func (r *PostgresRequestRepository) Create(request *domain.MaintenanceRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}

	query := `
		INSERT INTO maintenance_requests
			(id, tenant_id, property_id, category, subcategory, title, description, room,
			 priority, status, estimated_cost, actual_cost, max_budget, assigned_worker_id,
			 tenant_notes, agent_notes, landlord_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		request.ID,
		request.TenantID,
		request.PropertyID,
		request.Category,
		request.Subcategory,
		request.Title,
		request.Description,
		request.Room,
		request.Priority,
		request.Status,
		request.EstimatedCost,
		request.ActualCost,
		request.MaxBudget,
		request.AssignedWorkerID,
		request.TenantNotes,
		request.AgentNotes,
		request.LandlordNotes,
	).Scan(&request.CreatedAt, &request.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create maintenance request",
			slog.String("tenant_id", request.TenantID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetByID retrieves a maintenance request by ID
func (r *PostgresRequestRepository) GetByID(id string) (*domain.MaintenanceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get request by id",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// Update persists the mutable fields of a request
func (r *PostgresRequestRepository) Update(request *domain.MaintenanceRequest) error {
	query := `
		UPDATE maintenance_requests
		SET status = $1, estimated_cost = $2, actual_cost = $3, max_budget = $4,
		    assigned_worker_id = $5, tenant_notes = $6, agent_notes = $7,
		    landlord_notes = $8, completed_at = $9
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		request.Status,
		request.EstimatedCost,
		request.ActualCost,
		request.MaxBudget,
		request.AssignedWorkerID,
		request.TenantNotes,
		request.AgentNotes,
		request.LandlordNotes,
		request.CompletedAt,
		request.ID,
	).Scan(&request.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update request: %w", err)
	}

	return nil
}

// List returns all maintenance requests, newest first
func (r *PostgresRequestRepository) List() ([]*domain.MaintenanceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// ListByTenant returns all requests created by a tenant
func (r *PostgresRequestRepository) ListByTenant(tenantID string) ([]*domain.MaintenanceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests
		WHERE tenant_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		r.logger.Error("failed to list requests by tenant",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// ListByProperties returns all requests against any of the given properties
func (r *PostgresRequestRepository) ListByProperties(propertyIDs []string) ([]*domain.MaintenanceRequest, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + requestColumns + ` FROM maintenance_requests
		WHERE property_id = ANY($1)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, pq.Array(propertyIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list requests by properties: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// CountByStatus returns the number of requests in a given status
func (r *PostgresRequestRepository) CountByStatus(status domain.Status) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM maintenance_requests WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return count, nil
}

func collectRequests(rows *sql.Rows) ([]*domain.MaintenanceRequest, error) {
	var requests []*domain.MaintenanceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/upkeephq/upkeep/internal/domain"
)

// PostgresPropertyRepository implements domain.PropertyRepository using PostgreSQL
type PostgresPropertyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPropertyRepository creates a new property repository
func NewPostgresPropertyRepository(db *sql.DB, logger *slog.Logger) *PostgresPropertyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPropertyRepository{db: db, logger: logger}
}

// Create creates a new property
func (r *PostgresPropertyRepository) Create(property *domain.Property) error {
	if property.ID == "" {
		property.ID = uuid.NewString()
	}

	query := `
		INSERT INTO properties (id, name, address, type, units, rent_per_unit, status, landlord_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		query,
		property.ID,
		property.Name,
		property.Address,
		property.Type,
		property.Units,
		property.RentPerUnit,
		property.Status,
		property.LandlordID,
	).Scan(&property.CreatedAt, &property.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create property",
			slog.String("name", property.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// GetByID retrieves a property by ID
func (r *PostgresPropertyRepository) GetByID(id string) (*domain.Property, error) {
	p := &domain.Property{}
	query := `
		SELECT id, name, address, type, units, rent_per_unit, status, landlord_id, created_at, updated_at
		FROM properties
		WHERE id = $1
	`
	err := r.db.QueryRow(query, id).Scan(
		&p.ID, &p.Name, &p.Address, &p.Type, &p.Units, &p.RentPerUnit, &p.Status, &p.LandlordID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

// Update updates an existing property
func (r *PostgresPropertyRepository) Update(property *domain.Property) error {
	query := `
		UPDATE properties
		SET name = $1, address = $2, type = $3, units = $4, rent_per_unit = $5, status = $6
		WHERE id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRow(
		query,
		property.Name,
		property.Address,
		property.Type,
		property.Units,
		property.RentPerUnit,
		property.Status,
		property.ID,
	).Scan(&property.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update property: %w", err)
	}
	return nil
}

// List returns all properties
func (r *PostgresPropertyRepository) List() ([]*domain.Property, error) {
	query := `
		SELECT id, name, address, type, units, rent_per_unit, status, landlord_id, created_at, updated_at
		FROM properties
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var out []*domain.Property
	for rows.Next() {
		p := &domain.Property{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Type, &p.Units, &p.RentPerUnit, &p.Status, &p.LandlordID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByLandlord returns all properties owned by a landlord
func (r *PostgresPropertyRepository) ListByLandlord(landlordID string) ([]*domain.Property, error) {
	query := `
		SELECT id, name, address, type, units, rent_per_unit, status, landlord_id, created_at, updated_at
		FROM properties
		WHERE landlord_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, landlordID)
	if err != nil {
		r.logger.Error("failed to list properties by landlord",
			slog.String("landlord_id", landlordID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var out []*domain.Property
	for rows.Next() {
		p := &domain.Property{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Type, &p.Units, &p.RentPerUnit, &p.Status, &p.LandlordID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

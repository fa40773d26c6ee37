package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/upkeephq/upkeep/internal/domain"
)

// PostgresProfileRepository implements domain.ProfileRepository using PostgreSQL
type PostgresProfileRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresProfileRepository creates a new profile repository
func NewPostgresProfileRepository(db *sql.DB, logger *slog.Logger) *PostgresProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProfileRepository{
		db:     db,
		logger: logger,
	}
}

const profileColumns = `id, username, email, password_hash, role, name, phone, property_id, created_at, updated_at, is_active`

func scanProfile(row interface{ Scan(...any) error }) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.Email,
		&p.PasswordHash,
		&p.Role,
		&p.Name,
		&p.Phone,
		&p.PropertyID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create creates a new profile
func (r *PostgresProfileRepository) Create(profile *domain.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}

	query := `
		INSERT INTO profiles (id, username, email, password_hash, role, name, phone, property_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		profile.ID,
		profile.Username,
		profile.Email,
		profile.PasswordHash,
		profile.Role,
		profile.Name,
		profile.Phone,
		profile.PropertyID,
		profile.IsActive,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create profile",
			slog.String("username", profile.Username),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile by ID
func (r *PostgresProfileRepository) GetByID(id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get profile by id",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

// GetByUsername retrieves an active profile by username
func (r *PostgresProfileRepository) GetByUsername(username string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE username = $1 AND is_active = true`

	p, err := scanProfile(r.db.QueryRow(query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile by username: %w", err)
	}

	return p, nil
}

// Update updates an existing profile. The role column is deliberately not part
// of the update set: roles are immutable after signup.
func (r *PostgresProfileRepository) Update(profile *domain.Profile) error {
	query := `
		UPDATE profiles
		SET username = $1, email = $2, password_hash = $3, name = $4, phone = $5, property_id = $6, is_active = $7
		WHERE id = $8
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		profile.Username,
		profile.Email,
		profile.PasswordHash,
		profile.Name,
		profile.Phone,
		profile.PropertyID,
		profile.IsActive,
		profile.ID,
	).Scan(&profile.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

// Delete soft-deletes a profile (sets is_active to false)
func (r *PostgresProfileRepository) Delete(id string) error {
	query := `
		UPDATE profiles
		SET is_active = false
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// GetActiveTenantByProperty returns the active tenant assigned to a property,
// or domain.ErrNotFound when the property has none.
func (r *PostgresProfileRepository) GetActiveTenantByProperty(propertyID string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles
		WHERE property_id = $1 AND role = 'tenant' AND is_active = true
		LIMIT 1`

	p, err := scanProfile(r.db.QueryRow(query, propertyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant for property: %w", err)
	}

	return p, nil
}

// ListByRole lists all active profiles with a given role
func (r *PostgresProfileRepository) ListByRole(role domain.Role) ([]*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles
		WHERE role = $1 AND is_active = true
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, role)
	if err != nil {
		r.logger.Error("failed to list profiles by role",
			slog.String("role", string(role)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

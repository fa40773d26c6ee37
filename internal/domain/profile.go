package domain

import "time"

// Role is the fixed role of a profile. There are exactly three; anything else
// is rejected at signup.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleAgent    Role = "agent"
	RoleLandlord Role = "landlord"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleAgent, RoleLandlord:
		return true
	}
	return false
}

// Profile represents an identity record. The email is synthetic: it is derived
// from the username and a fixed domain at signup and never entered by the user.
type Profile struct {
	ID           string // UUID
	Username     string // Unique username
	Email        string // username@<fixed-domain>
	PasswordHash string // Bcrypt hashed password (not returned in API)
	Role         Role   // Immutable after creation
	Name         string
	Phone        string
	PropertyID   *string // Tenant assignment; nil for agents/landlords and unassigned tenants
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

// ProfileRepository defines data access for profiles
type ProfileRepository interface {
	Create(profile *Profile) error
	GetByID(id string) (*Profile, error)
	GetByUsername(username string) (*Profile, error)
	Update(profile *Profile) error
	Delete(id string) error
	GetActiveTenantByProperty(propertyID string) (*Profile, error)
	ListByRole(role Role) ([]*Profile, error)
}

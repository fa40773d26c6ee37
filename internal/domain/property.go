package domain

import "time"

// Property represents a managed rental property
type Property struct {
	ID          string // UUID
	Name        string
	Address     string
	Type        string // e.g. flat, house, commercial
	Units       int
	RentPerUnit float64
	Status      string // e.g. vacant, occupied
	LandlordID  string // UUID of the owning landlord profile
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PropertyRepository defines data access for properties
type PropertyRepository interface {
	Create(property *Property) error
	GetByID(id string) (*Property, error)
	Update(property *Property) error
	List() ([]*Property, error)
	ListByLandlord(landlordID string) ([]*Property, error)
}

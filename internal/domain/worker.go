package domain

import "time"

// Worker is an independent roster entry. It is associated to a request only
// via MaintenanceRequest.AssignedWorkerID.
type Worker struct {
	ID        string // UUID
	Name      string
	Specialty string
	Category  string
	Rating    float64 // Aggregate mean of stored ratings
	Favorite  bool
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkerRepository defines data access for workers
type WorkerRepository interface {
	Create(worker *Worker) error
	GetByID(id string) (*Worker, error)
	Update(worker *Worker) error
	List() ([]*Worker, error)
	ListByCategory(category string) ([]*Worker, error)
}

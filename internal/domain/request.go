package domain

import "time"

// Status is the lifecycle state of a maintenance request
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Priority of a maintenance request
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// allowedTransitions is the full transition table. Completed and cancelled are
// terminal; a request is never hard-deleted.
var allowedTransitions = map[Status][]Status{
	StatusSubmitted:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether a request in status s may move to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// MaintenanceRequest is the central entity of the system
type MaintenanceRequest struct {
	ID               string // UUID
	TenantID         string
	PropertyID       string
	Category         string
	Subcategory      string
	Title            string
	Description      string
	Room             string
	Priority         Priority
	Status           Status
	EstimatedCost    float64
	ActualCost       float64
	MaxBudget        float64 // Collected but not enforced on approval
	AssignedWorkerID *string
	TenantNotes      string
	AgentNotes       string
	LandlordNotes    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

// InvoiceEligible reports whether the request can be invoiced. Exactly:
// completed and a positive actual cost.
func (r *MaintenanceRequest) InvoiceEligible() bool {
	return r.Status == StatusCompleted && r.ActualCost > 0
}

// RequestRepository defines data access for maintenance requests
type RequestRepository interface {
	Create(request *MaintenanceRequest) error
	GetByID(id string) (*MaintenanceRequest, error)
	Update(request *MaintenanceRequest) error
	List() ([]*MaintenanceRequest, error)
	ListByTenant(tenantID string) ([]*MaintenanceRequest, error)
	ListByProperties(propertyIDs []string) ([]*MaintenanceRequest, error)
	CountByStatus(status Status) (int, error)
}

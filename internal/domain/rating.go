package domain

import "time"

// RaterType identifies who is rating a worker on a request. Agents do not rate.
type RaterType string

const (
	RaterTenant   RaterType = "tenant"
	RaterLandlord RaterType = "landlord"
)

// Valid reports whether t is a known rater type.
func (t RaterType) Valid() bool {
	return t == RaterTenant || t == RaterLandlord
}

// WorkerRating is a 1-5 rating of a worker on a specific request. Logically
// unique per (request, rater, rater type); enforced by update-or-insert.
type WorkerRating struct {
	ID        string // UUID
	WorkerID  string
	RequestID string
	RaterID   string
	RaterType RaterType
	Rating    int // 1..5
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingRepository defines data access for worker ratings
type RatingRepository interface {
	Create(rating *WorkerRating) error
	Update(rating *WorkerRating) error
	GetByRequestAndRater(requestID, raterID string, raterType RaterType) (*WorkerRating, error)
	ListByWorker(workerID string) ([]*WorkerRating, error)
}

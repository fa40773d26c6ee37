package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/internal/observability/metrics"
	"github.com/upkeephq/upkeep/internal/security/audit"
)

// Actor identifies who is performing an operation. Built by handlers from the
// verified token claims; services never read tokens themselves.
type Actor struct {
	ID   string
	Role domain.Role
}

// RequestService owns the maintenance request lifecycle. Every status change
// goes through the transition table in domain; there is no other write path.
type RequestService struct {
	requestRepo  domain.RequestRepository
	propertyRepo domain.PropertyRepository
	profileRepo  domain.ProfileRepository
	workerRepo   domain.WorkerRepository
	categories   []string
	audit        *audit.Logger
	logger       *slog.Logger
}

// NewRequestService creates a new request service. categories is the
// configured allow-list for submissions; an empty list accepts any category.
func NewRequestService(
	requestRepo domain.RequestRepository,
	propertyRepo domain.PropertyRepository,
	profileRepo domain.ProfileRepository,
	workerRepo domain.WorkerRepository,
	categories []string,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *RequestService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &RequestService{
		requestRepo:  requestRepo,
		propertyRepo: propertyRepo,
		profileRepo:  profileRepo,
		workerRepo:   workerRepo,
		categories:   categories,
		audit:        auditLog,
		logger:       logger,
	}
}

// SubmitInput captures a tenant's new maintenance request
type SubmitInput struct {
	Category      string
	Subcategory   string
	Title         string
	Description   string
	Room          string
	Priority      domain.Priority
	EstimatedCost float64
	MaxBudget     float64
	TenantNotes   string
}

// Submit creates a new request in the submitted state. Only tenants with an
// assigned property can report issues.
func (s *RequestService) Submit(ctx context.Context, actor Actor, input SubmitInput) (*domain.MaintenanceRequest, error) {
	if actor.Role != domain.RoleTenant {
		return nil, fmt.Errorf("%w: only tenants can submit requests", domain.ErrForbidden)
	}

	if input.Title == "" || input.Category == "" || input.Description == "" {
		return nil, fmt.Errorf("%w: title, category, and description are required", domain.ErrValidation)
	}
	if !input.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority must be low, medium, high, or urgent", domain.ErrValidation)
	}
	if !s.categoryAllowed(input.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, input.Category)
	}

	tenant, err := s.profileRepo.GetByID(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant profile: %w", err)
	}
	if tenant.PropertyID == nil {
		return nil, fmt.Errorf("%w: tenant has no assigned property", domain.ErrValidation)
	}

	request := &domain.MaintenanceRequest{
		TenantID:      actor.ID,
		PropertyID:    *tenant.PropertyID,
		Category:      input.Category,
		Subcategory:   input.Subcategory,
		Title:         input.Title,
		Description:   input.Description,
		Room:          input.Room,
		Priority:      input.Priority,
		Status:        domain.StatusSubmitted,
		EstimatedCost: input.EstimatedCost,
		MaxBudget:     input.MaxBudget,
		TenantNotes:   input.TenantNotes,
	}

	if err := s.requestRepo.Create(request); err != nil {
		return nil, fmt.Errorf("failed to submit request: %w", err)
	}

	s.logger.Info("maintenance request submitted",
		slog.String("request_id", request.ID),
		slog.String("tenant_id", actor.ID),
		slog.String("category", request.Category),
		slog.String("priority", string(request.Priority)),
	)
	s.refreshOpenGauge()

	return request, nil
}

// Assign attaches a worker to a submitted request and moves it to in_progress
func (s *RequestService) Assign(ctx context.Context, actor Actor, requestID, workerID, agentNotes string) (*domain.MaintenanceRequest, error) {
	if actor.Role != domain.RoleAgent {
		return nil, fmt.Errorf("%w: only agents can assign workers", domain.ErrForbidden)
	}
	if workerID == "" {
		return nil, fmt.Errorf("%w: worker id is required", domain.ErrValidation)
	}

	worker, err := s.workerRepo.GetByID(workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load worker: %w", err)
	}
	if !worker.IsActive {
		return nil, fmt.Errorf("%w: worker is not active", domain.ErrValidation)
	}

	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, actor, request, domain.StatusInProgress); err != nil {
		return nil, err
	}

	request.AssignedWorkerID = &worker.ID
	if agentNotes != "" {
		request.AgentNotes = agentNotes
	}

	if err := s.requestRepo.Update(request); err != nil {
		return nil, fmt.Errorf("failed to assign worker: %w", err)
	}

	s.logger.Info("worker assigned",
		slog.String("request_id", request.ID),
		slog.String("worker_id", worker.ID),
		slog.String("agent_id", actor.ID),
	)
	s.refreshOpenGauge()

	return request, nil
}

// Approve moves a submitted request to in_progress with the landlord's notes
func (s *RequestService) Approve(ctx context.Context, actor Actor, requestID, notes string) (*domain.MaintenanceRequest, error) {
	request, err := s.landlordOwnedRequest(actor, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, actor, request, domain.StatusInProgress); err != nil {
		return nil, err
	}

	// Max budget is stored but deliberately not enforced here
	request.LandlordNotes = notes

	if err := s.requestRepo.Update(request); err != nil {
		return nil, fmt.Errorf("failed to approve request: %w", err)
	}

	s.logger.Info("request approved",
		slog.String("request_id", request.ID),
		slog.String("landlord_id", actor.ID),
	)
	s.refreshOpenGauge()

	return request, nil
}

// Deny moves a submitted request to cancelled with the landlord's notes
func (s *RequestService) Deny(ctx context.Context, actor Actor, requestID, notes string) (*domain.MaintenanceRequest, error) {
	request, err := s.landlordOwnedRequest(actor, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, actor, request, domain.StatusCancelled); err != nil {
		return nil, err
	}

	request.LandlordNotes = notes

	if err := s.requestRepo.Update(request); err != nil {
		return nil, fmt.Errorf("failed to deny request: %w", err)
	}

	s.logger.Info("request denied",
		slog.String("request_id", request.ID),
		slog.String("landlord_id", actor.ID),
	)
	s.refreshOpenGauge()

	return request, nil
}

// Complete marks an in-progress request as completed with its final cost
func (s *RequestService) Complete(ctx context.Context, actor Actor, requestID string, actualCost float64, agentNotes string) (*domain.MaintenanceRequest, error) {
	if actor.Role != domain.RoleAgent {
		return nil, fmt.Errorf("%w: only agents can complete requests", domain.ErrForbidden)
	}
	if actualCost <= 0 {
		return nil, fmt.Errorf("%w: actual cost must be greater than zero", domain.ErrValidation)
	}

	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, actor, request, domain.StatusCompleted); err != nil {
		return nil, err
	}

	now := time.Now()
	request.ActualCost = actualCost
	request.CompletedAt = &now
	if agentNotes != "" {
		request.AgentNotes = agentNotes
	}

	if err := s.requestRepo.Update(request); err != nil {
		return nil, fmt.Errorf("failed to complete request: %w", err)
	}

	s.logger.Info("request completed",
		slog.String("request_id", request.ID),
		slog.String("agent_id", actor.ID),
		slog.Float64("actual_cost", actualCost),
	)
	s.refreshOpenGauge()

	return request, nil
}

// Get returns a single request, applying the same row filter as List
func (s *RequestService) Get(ctx context.Context, actor Actor, requestID string) (*domain.MaintenanceRequest, error) {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}

	visible, err := s.visibleTo(actor, request)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, domain.ErrNotFound
	}

	return request, nil
}

// List returns the requests visible to the actor: tenants see their own rows,
// landlords rows against their properties, agents everything.
func (s *RequestService) List(ctx context.Context, actor Actor) ([]*domain.MaintenanceRequest, error) {
	switch actor.Role {
	case domain.RoleTenant:
		return s.requestRepo.ListByTenant(actor.ID)
	case domain.RoleAgent:
		return s.requestRepo.List()
	case domain.RoleLandlord:
		properties, err := s.propertyRepo.ListByLandlord(actor.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(properties))
		for _, p := range properties {
			ids = append(ids, p.ID)
		}
		return s.requestRepo.ListByProperties(ids)
	}
	return nil, fmt.Errorf("%w: unknown role", domain.ErrForbidden)
}

// transition applies a guarded status change in memory. The caller persists.
func (s *RequestService) transition(ctx context.Context, actor Actor, request *domain.MaintenanceRequest, to domain.Status) error {
	from := request.Status
	if !from.CanTransitionTo(to) {
		metrics.ObserveTransition(string(from), string(to), "rejected")
		s.audit.LogTransition(ctx, actor.ID, string(actor.Role), request.ID, string(from), string(to), "rejected")
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	request.Status = to
	metrics.ObserveTransition(string(from), string(to), "applied")
	s.audit.LogTransition(ctx, actor.ID, string(actor.Role), request.ID, string(from), string(to), "applied")
	return nil
}

func (s *RequestService) landlordOwnedRequest(actor Actor, requestID string) (*domain.MaintenanceRequest, error) {
	if actor.Role != domain.RoleLandlord {
		return nil, fmt.Errorf("%w: only landlords can approve or deny requests", domain.ErrForbidden)
	}

	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}

	property, err := s.propertyRepo.GetByID(request.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if property.LandlordID != actor.ID {
		s.logger.Warn("landlord attempted to act on another landlord's request",
			slog.String("landlord_id", actor.ID),
			slog.String("request_id", requestID),
		)
		return nil, domain.ErrForbidden
	}

	return request, nil
}

func (s *RequestService) visibleTo(actor Actor, request *domain.MaintenanceRequest) (bool, error) {
	switch actor.Role {
	case domain.RoleAgent:
		return true, nil
	case domain.RoleTenant:
		return request.TenantID == actor.ID, nil
	case domain.RoleLandlord:
		property, err := s.propertyRepo.GetByID(request.PropertyID)
		if err != nil {
			return false, err
		}
		return property.LandlordID == actor.ID, nil
	}
	return false, nil
}

func (s *RequestService) categoryAllowed(category string) bool {
	if len(s.categories) == 0 {
		return true
	}
	for _, c := range s.categories {
		if c == category {
			return true
		}
	}
	return false
}

func (s *RequestService) refreshOpenGauge() {
	submitted, err := s.requestRepo.CountByStatus(domain.StatusSubmitted)
	if err != nil {
		return
	}
	inProgress, err := s.requestRepo.CountByStatus(domain.StatusInProgress)
	if err != nil {
		return
	}
	metrics.SetOpenRequests(submitted + inProgress)
}

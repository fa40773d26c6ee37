package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/internal/invoice"
	"github.com/upkeephq/upkeep/internal/observability/metrics"
)

// InvoiceService resolves the display fields an invoice needs and hands the
// request to the pure formatter. Invoices are never persisted.
type InvoiceService struct {
	requestRepo  domain.RequestRepository
	profileRepo  domain.ProfileRepository
	propertyRepo domain.PropertyRepository
	workerRepo   domain.WorkerRepository
	logger       *slog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	requestRepo domain.RequestRepository,
	profileRepo domain.ProfileRepository,
	propertyRepo domain.PropertyRepository,
	workerRepo domain.WorkerRepository,
	logger *slog.Logger,
) *InvoiceService {
	if logger == nil {
		logger = slog.Default()
	}

	return &InvoiceService{
		requestRepo:  requestRepo,
		profileRepo:  profileRepo,
		propertyRepo: propertyRepo,
		workerRepo:   workerRepo,
		logger:       logger,
	}
}

// Render produces the plain-text invoice for a single eligible request
func (s *InvoiceService) Render(ctx context.Context, actor Actor, requestID string) (string, error) {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return "", err
	}

	if !request.InvoiceEligible() {
		return "", fmt.Errorf("%w: request is not invoice eligible", domain.ErrValidation)
	}

	if actor.Role == domain.RoleTenant && request.TenantID != actor.ID {
		return "", domain.ErrNotFound
	}

	details := invoice.Details{}

	if tenant, err := s.profileRepo.GetByID(request.TenantID); err == nil {
		details.TenantName = tenant.Name
	}
	if property, err := s.propertyRepo.GetByID(request.PropertyID); err == nil {
		details.PropertyAddress = property.Address
	}
	if request.AssignedWorkerID != nil {
		if worker, err := s.workerRepo.GetByID(*request.AssignedWorkerID); err == nil {
			details.WorkerName = worker.Name
		}
	}

	text, err := invoice.Render(request, details, time.Now())
	if err != nil {
		return "", err
	}

	metrics.ObserveInvoice()
	s.logger.Info("invoice rendered",
		slog.String("request_id", request.ID),
		slog.String("invoice_number", invoice.Number(request.ID)),
	)

	return text, nil
}

// ListEligible returns the invoice-eligible subset of the actor's visible
// requests: completed with a positive actual cost, nothing else.
func (s *InvoiceService) ListEligible(ctx context.Context, actor Actor, visible []*domain.MaintenanceRequest) []*domain.MaintenanceRequest {
	eligible := make([]*domain.MaintenanceRequest, 0)
	for _, r := range visible {
		if r.InvoiceEligible() {
			eligible = append(eligible, r)
		}
	}
	return eligible
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/pkg/cache"
)

const propertyListCacheKey = "properties:all"

// PropertyService handles property management and tenant assignment
type PropertyService struct {
	propertyRepo domain.PropertyRepository
	profileRepo  domain.ProfileRepository
	cache        *cache.Cache
	cacheTTL     time.Duration
	logger       *slog.Logger
}

// NewPropertyService creates a new property service
func NewPropertyService(
	propertyRepo domain.PropertyRepository,
	profileRepo domain.ProfileRepository,
	listCache *cache.Cache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *PropertyService {
	if logger == nil {
		logger = slog.Default()
	}
	if listCache == nil {
		listCache = cache.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &PropertyService{
		propertyRepo: propertyRepo,
		profileRepo:  profileRepo,
		cache:        listCache,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// CreatePropertyInput captures a new property
type CreatePropertyInput struct {
	Name        string
	Address     string
	Type        string
	Units       int
	RentPerUnit float64
	LandlordID  string
}

// Create registers a new property. Agents must name the owning landlord;
// landlords always own what they create.
func (s *PropertyService) Create(ctx context.Context, actor Actor, input CreatePropertyInput) (*domain.Property, error) {
	if actor.Role != domain.RoleAgent && actor.Role != domain.RoleLandlord {
		return nil, fmt.Errorf("%w: only agents and landlords can create properties", domain.ErrForbidden)
	}

	if input.Name == "" || input.Address == "" {
		return nil, fmt.Errorf("%w: name and address are required", domain.ErrValidation)
	}
	if input.Units <= 0 {
		input.Units = 1
	}

	landlordID := input.LandlordID
	if actor.Role == domain.RoleLandlord {
		landlordID = actor.ID
	}
	if landlordID == "" {
		return nil, fmt.Errorf("%w: landlord id is required", domain.ErrValidation)
	}

	landlord, err := s.profileRepo.GetByID(landlordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load landlord: %w", err)
	}
	if landlord.Role != domain.RoleLandlord {
		return nil, fmt.Errorf("%w: owner must be a landlord profile", domain.ErrValidation)
	}

	property := &domain.Property{
		Name:        input.Name,
		Address:     input.Address,
		Type:        input.Type,
		Units:       input.Units,
		RentPerUnit: input.RentPerUnit,
		Status:      "vacant",
		LandlordID:  landlordID,
	}

	if err := s.propertyRepo.Create(property); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.cache.Invalidate("properties:")
	s.logger.Info("property created",
		slog.String("property_id", property.ID),
		slog.String("landlord_id", landlordID),
	)

	return property, nil
}

// Get returns a single property
func (s *PropertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	return s.propertyRepo.GetByID(id)
}

// List returns all properties, served from a short-lived cache
func (s *PropertyService) List(ctx context.Context) ([]*domain.Property, error) {
	if cached, ok := s.cache.Get(propertyListCacheKey); ok {
		return cached.([]*domain.Property), nil
	}

	properties, err := s.propertyRepo.List()
	if err != nil {
		return nil, err
	}

	s.cache.Set(propertyListCacheKey, properties, s.cacheTTL)
	return properties, nil
}

// AssignTenant links a tenant profile to a property. A property holds at most
// one active tenant; a second assignment is rejected, not overwritten.
func (s *PropertyService) AssignTenant(ctx context.Context, actor Actor, propertyID, tenantID string) error {
	if actor.Role != domain.RoleAgent && actor.Role != domain.RoleLandlord {
		return fmt.Errorf("%w: only agents and landlords can assign tenants", domain.ErrForbidden)
	}

	property, err := s.propertyRepo.GetByID(propertyID)
	if err != nil {
		return err
	}

	tenant, err := s.profileRepo.GetByID(tenantID)
	if err != nil {
		return err
	}
	if tenant.Role != domain.RoleTenant {
		return fmt.Errorf("%w: profile is not a tenant", domain.ErrValidation)
	}

	existing, err := s.profileRepo.GetActiveTenantByProperty(propertyID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to check current tenant: %w", err)
	}
	if existing != nil && existing.ID != tenantID {
		return fmt.Errorf("%w: property already has an active tenant", domain.ErrConflict)
	}

	tenant.PropertyID = &property.ID
	if err := s.profileRepo.Update(tenant); err != nil {
		return fmt.Errorf("failed to assign tenant: %w", err)
	}

	property.Status = "occupied"
	if err := s.propertyRepo.Update(property); err != nil {
		return fmt.Errorf("failed to update property status: %w", err)
	}

	s.cache.Invalidate("properties:")
	s.logger.Info("tenant assigned to property",
		slog.String("property_id", propertyID),
		slog.String("tenant_id", tenantID),
	)

	return nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
)

type propertyFixture struct {
	svc        *PropertyService
	properties *fakePropertyRepo
	profiles   *fakeProfileRepo

	agent    Actor
	landlord Actor
}

func newPropertyFixture(t *testing.T) *propertyFixture {
	t.Helper()

	properties := newFakePropertyRepo()
	profiles := newFakeProfileRepo()

	landlordProfile := &domain.Profile{Username: "landlord", Role: domain.RoleLandlord, Name: "Len", IsActive: true}
	if err := profiles.Create(landlordProfile); err != nil {
		t.Fatal(err)
	}
	agentProfile := &domain.Profile{Username: "agent", Role: domain.RoleAgent, Name: "Ann", IsActive: true}
	if err := profiles.Create(agentProfile); err != nil {
		t.Fatal(err)
	}

	return &propertyFixture{
		svc:        NewPropertyService(properties, profiles, nil, time.Second, nil),
		properties: properties,
		profiles:   profiles,
		agent:      Actor{ID: agentProfile.ID, Role: domain.RoleAgent},
		landlord:   Actor{ID: landlordProfile.ID, Role: domain.RoleLandlord},
	}
}

func (f *propertyFixture) newTenant(t *testing.T, username string) *domain.Profile {
	t.Helper()
	tenant := &domain.Profile{Username: username, Role: domain.RoleTenant, Name: username, IsActive: true}
	if err := f.profiles.Create(tenant); err != nil {
		t.Fatal(err)
	}
	return tenant
}

func TestCreatePropertyForcesLandlordOwnership(t *testing.T) {
	f := newPropertyFixture(t)

	property, err := f.svc.Create(context.Background(), f.landlord, CreatePropertyInput{
		Name:       "12 Oak Road",
		Address:    "12 Oak Road",
		LandlordID: "someone-else",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if property.LandlordID != f.landlord.ID {
		t.Errorf("landlord-created property owned by %s", property.LandlordID)
	}
	if property.Status != "vacant" {
		t.Errorf("new property should start vacant, got %s", property.Status)
	}
}

func TestCreatePropertyRejectsTenant(t *testing.T) {
	f := newPropertyFixture(t)
	tenant := f.newTenant(t, "tina")

	_, err := f.svc.Create(context.Background(), Actor{ID: tenant.ID, Role: domain.RoleTenant}, CreatePropertyInput{
		Name:    "12 Oak Road",
		Address: "12 Oak Road",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden for tenant, got %v", err)
	}
}

func TestCreatePropertyRejectsNonLandlordOwner(t *testing.T) {
	f := newPropertyFixture(t)
	tenant := f.newTenant(t, "tina")

	_, err := f.svc.Create(context.Background(), f.agent, CreatePropertyInput{
		Name:       "12 Oak Road",
		Address:    "12 Oak Road",
		LandlordID: tenant.ID,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for tenant owner, got %v", err)
	}
}

func TestAssignTenant(t *testing.T) {
	f := newPropertyFixture(t)
	tenant := f.newTenant(t, "tina")

	property, err := f.svc.Create(context.Background(), f.landlord, CreatePropertyInput{
		Name:    "12 Oak Road",
		Address: "12 Oak Road",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.AssignTenant(context.Background(), f.agent, property.ID, tenant.ID); err != nil {
		t.Fatalf("AssignTenant failed: %v", err)
	}

	stored, err := f.profiles.GetByID(tenant.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PropertyID == nil || *stored.PropertyID != property.ID {
		t.Error("tenant not linked to property")
	}

	updated, err := f.properties.GetByID(property.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "occupied" {
		t.Errorf("property should be occupied, got %s", updated.Status)
	}
}

func TestAssignTenantRejectsSecondTenant(t *testing.T) {
	f := newPropertyFixture(t)
	first := f.newTenant(t, "tina")
	second := f.newTenant(t, "tom")

	property, err := f.svc.Create(context.Background(), f.landlord, CreatePropertyInput{
		Name:    "12 Oak Road",
		Address: "12 Oak Road",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.AssignTenant(context.Background(), f.agent, property.ID, first.ID); err != nil {
		t.Fatal(err)
	}

	err = f.svc.AssignTenant(context.Background(), f.agent, property.ID, second.ID)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict for second tenant, got %v", err)
	}

	// Re-assigning the same tenant is a no-op, not a conflict
	if err := f.svc.AssignTenant(context.Background(), f.agent, property.ID, first.ID); err != nil {
		t.Errorf("re-assigning current tenant should succeed, got %v", err)
	}
}

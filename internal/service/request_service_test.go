package service

import (
	"context"
	"errors"
	"testing"

	"github.com/upkeephq/upkeep/internal/domain"
)

type requestFixture struct {
	svc        *RequestService
	requests   *fakeRequestRepo
	properties *fakePropertyRepo
	profiles   *fakeProfileRepo
	workers    *fakeWorkerRepo

	tenant   Actor
	agent    Actor
	landlord Actor
	property *domain.Property
	worker   *domain.Worker
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()

	requests := newFakeRequestRepo()
	properties := newFakePropertyRepo()
	profiles := newFakeProfileRepo()
	workers := newFakeWorkerRepo()

	landlordProfile := &domain.Profile{Username: "landlord", Role: domain.RoleLandlord, Name: "Len", IsActive: true}
	if err := profiles.Create(landlordProfile); err != nil {
		t.Fatal(err)
	}

	property := &domain.Property{Name: "12 Oak Road", Address: "12 Oak Road", LandlordID: landlordProfile.ID, Status: "occupied"}
	if err := properties.Create(property); err != nil {
		t.Fatal(err)
	}

	tenantProfile := &domain.Profile{Username: "tenant", Role: domain.RoleTenant, Name: "Tina", IsActive: true, PropertyID: &property.ID}
	if err := profiles.Create(tenantProfile); err != nil {
		t.Fatal(err)
	}

	agentProfile := &domain.Profile{Username: "agent", Role: domain.RoleAgent, Name: "Ann", IsActive: true}
	if err := profiles.Create(agentProfile); err != nil {
		t.Fatal(err)
	}

	worker := &domain.Worker{Name: "Wally", Category: "Plumbing", IsActive: true}
	if err := workers.Create(worker); err != nil {
		t.Fatal(err)
	}

	return &requestFixture{
		svc:        NewRequestService(requests, properties, profiles, workers, nil, nil, nil),
		requests:   requests,
		properties: properties,
		profiles:   profiles,
		workers:    workers,
		tenant:     Actor{ID: tenantProfile.ID, Role: domain.RoleTenant},
		agent:      Actor{ID: agentProfile.ID, Role: domain.RoleAgent},
		landlord:   Actor{ID: landlordProfile.ID, Role: domain.RoleLandlord},
		property:   property,
		worker:     worker,
	}
}

func (f *requestFixture) submit(t *testing.T) *domain.MaintenanceRequest {
	t.Helper()
	request, err := f.svc.Submit(context.Background(), f.tenant, SubmitInput{
		Category:    "Plumbing",
		Title:       "Leaking tap",
		Description: "Kitchen tap drips constantly",
		Priority:    domain.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return request
}

func TestSubmitCreatesSubmittedRequest(t *testing.T) {
	f := newRequestFixture(t)

	request := f.submit(t)
	if request.Status != domain.StatusSubmitted {
		t.Errorf("expected status submitted, got %s", request.Status)
	}
	if request.PropertyID != f.property.ID {
		t.Errorf("request not bound to tenant's property")
	}
}

func TestSubmitRequiresTenantRole(t *testing.T) {
	f := newRequestFixture(t)

	_, err := f.svc.Submit(context.Background(), f.agent, SubmitInput{
		Category:    "Plumbing",
		Title:       "Leaking tap",
		Description: "drip",
		Priority:    domain.PriorityLow,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden for agent submission, got %v", err)
	}
}

func TestSubmitEnforcesConfiguredCategories(t *testing.T) {
	f := newRequestFixture(t)
	f.svc.categories = []string{"Plumbing", "Electrical"}

	_, err := f.svc.Submit(context.Background(), f.tenant, SubmitInput{
		Category:    "Landscaping",
		Title:       "Overgrown hedge",
		Description: "front garden needs a trim",
		Priority:    domain.PriorityLow,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for unconfigured category, got %v", err)
	}
	if f.requests.rowCount() != 0 {
		t.Errorf("rejected submission must not be stored")
	}

	if _, err := f.svc.Submit(context.Background(), f.tenant, SubmitInput{
		Category:    "Plumbing",
		Title:       "Leaking tap",
		Description: "drip",
		Priority:    domain.PriorityLow,
	}); err != nil {
		t.Errorf("configured category rejected: %v", err)
	}
}

func TestApproveMovesToInProgress(t *testing.T) {
	f := newRequestFixture(t)
	request := f.submit(t)

	approved, err := f.svc.Approve(context.Background(), f.landlord, request.ID, "proceed")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != domain.StatusInProgress {
		t.Errorf("expected in_progress, got %s", approved.Status)
	}
	if approved.LandlordNotes != "proceed" {
		t.Errorf("landlord notes not stored, got %q", approved.LandlordNotes)
	}
}

func TestApproveRequiresOwningLandlord(t *testing.T) {
	f := newRequestFixture(t)
	request := f.submit(t)

	other := &domain.Profile{Username: "other", Role: domain.RoleLandlord, Name: "Olive", IsActive: true}
	if err := f.profiles.Create(other); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Approve(context.Background(), Actor{ID: other.ID, Role: domain.RoleLandlord}, request.ID, "proceed")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden for non-owning landlord, got %v", err)
	}
}

func TestAssignAttachesWorker(t *testing.T) {
	f := newRequestFixture(t)
	request := f.submit(t)

	assigned, err := f.svc.Assign(context.Background(), f.agent, request.ID, f.worker.ID, "sending Wally")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if assigned.Status != domain.StatusInProgress {
		t.Errorf("expected in_progress after assignment, got %s", assigned.Status)
	}
	if assigned.AssignedWorkerID == nil || *assigned.AssignedWorkerID != f.worker.ID {
		t.Error("worker not attached to request")
	}
}

func TestCompleteSetsCostAndTimestamp(t *testing.T) {
	f := newRequestFixture(t)
	request := f.submit(t)

	if _, err := f.svc.Approve(context.Background(), f.landlord, request.ID, "proceed"); err != nil {
		t.Fatal(err)
	}

	completed, err := f.svc.Complete(context.Background(), f.agent, request.ID, 180.50, "fixed")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}
	if completed.ActualCost != 180.50 {
		t.Errorf("actual cost not stored, got %f", completed.ActualCost)
	}
	if completed.CompletedAt == nil {
		t.Error("completion timestamp not set")
	}
}

func TestCompleteRejectsNonPositiveCost(t *testing.T) {
	f := newRequestFixture(t)
	request := f.submit(t)

	if _, err := f.svc.Approve(context.Background(), f.landlord, request.ID, "proceed"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Complete(context.Background(), f.agent, request.ID, 0, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for zero cost, got %v", err)
	}
}

func TestInvalidTransitionsAreRejected(t *testing.T) {
	f := newRequestFixture(t)
	request := f.submit(t)

	// submitted -> completed skips in_progress
	if _, err := f.svc.Complete(context.Background(), f.agent, request.ID, 100, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected invalid transition submitted -> completed, got %v", err)
	}

	if _, err := f.svc.Approve(context.Background(), f.landlord, request.ID, "proceed"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Complete(context.Background(), f.agent, request.ID, 100, ""); err != nil {
		t.Fatal(err)
	}

	// completed is terminal
	if _, err := f.svc.Deny(context.Background(), f.landlord, request.ID, "no"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected invalid transition out of completed, got %v", err)
	}
	if _, err := f.svc.Assign(context.Background(), f.agent, request.ID, f.worker.ID, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected invalid transition completed -> in_progress, got %v", err)
	}

	// Status untouched by the rejected transitions
	stored, err := f.requests.GetByID(request.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.StatusCompleted {
		t.Errorf("rejected transition mutated stored status to %s", stored.Status)
	}
}

func TestDenyCancelsRequest(t *testing.T) {
	f := newRequestFixture(t)
	request := f.submit(t)

	denied, err := f.svc.Deny(context.Background(), f.landlord, request.ID, "too expensive")
	if err != nil {
		t.Fatalf("Deny failed: %v", err)
	}
	if denied.Status != domain.StatusCancelled {
		t.Errorf("expected cancelled, got %s", denied.Status)
	}
	if denied.LandlordNotes != "too expensive" {
		t.Errorf("landlord notes not stored, got %q", denied.LandlordNotes)
	}
}

func TestListFiltersByRole(t *testing.T) {
	f := newRequestFixture(t)
	mine := f.submit(t)

	// A request on another landlord's property
	otherLandlord := &domain.Profile{Username: "other", Role: domain.RoleLandlord, Name: "Olive", IsActive: true}
	if err := f.profiles.Create(otherLandlord); err != nil {
		t.Fatal(err)
	}
	otherProperty := &domain.Property{Name: "9 Elm St", Address: "9 Elm St", LandlordID: otherLandlord.ID}
	if err := f.properties.Create(otherProperty); err != nil {
		t.Fatal(err)
	}
	otherRequest := &domain.MaintenanceRequest{
		TenantID:   "someone-else",
		PropertyID: otherProperty.ID,
		Title:      "Broken boiler",
		Status:     domain.StatusSubmitted,
	}
	if err := f.requests.Create(otherRequest); err != nil {
		t.Fatal(err)
	}

	tenantView, err := f.svc.List(context.Background(), f.tenant)
	if err != nil {
		t.Fatal(err)
	}
	if len(tenantView) != 1 || tenantView[0].ID != mine.ID {
		t.Errorf("tenant should only see their own request, saw %d", len(tenantView))
	}

	landlordView, err := f.svc.List(context.Background(), f.landlord)
	if err != nil {
		t.Fatal(err)
	}
	if len(landlordView) != 1 || landlordView[0].ID != mine.ID {
		t.Errorf("landlord should only see requests on their properties, saw %d", len(landlordView))
	}

	agentView, err := f.svc.List(context.Background(), f.agent)
	if err != nil {
		t.Fatal(err)
	}
	if len(agentView) != 2 {
		t.Errorf("agent should see all requests, saw %d", len(agentView))
	}

	// Get applies the same filter
	if _, err := f.svc.Get(context.Background(), f.tenant, otherRequest.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("tenant should not see another tenant's request, got %v", err)
	}
}

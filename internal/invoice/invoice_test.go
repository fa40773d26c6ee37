package invoice

import (
	"strings"
	"testing"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
)

func completedRequest() *domain.MaintenanceRequest {
	done := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &domain.MaintenanceRequest{
		ID:            "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Title:         "Leaking kitchen tap",
		Category:      "Plumbing",
		Subcategory:   "Taps",
		Status:        domain.StatusCompleted,
		EstimatedCost: 350.00,
		ActualCost:    420.00,
		CompletedAt:   &done,
	}
}

func TestNumberUsesLastEightChars(t *testing.T) {
	got := Number("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	if got != "INV-C1F90AE7" {
		t.Fatalf("unexpected invoice number: %s", got)
	}

	// Short IDs are used whole
	if got := Number("abc"); got != "INV-ABC" {
		t.Fatalf("unexpected short invoice number: %s", got)
	}
}

func TestRenderLayout(t *testing.T) {
	req := completedRequest()
	out, err := Render(req, Details{
		TenantName:      "Alice Example",
		PropertyAddress: "12 Harbour Road, Bristol",
		WorkerName:      "Bob the Plumber",
	}, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	for _, want := range []string{
		"Invoice Number: INV-C1F90AE7",
		"Tenant:         Alice Example",
		"Property:       12 Harbour Road, Bristol",
		"Completed By:   Bob the Plumber",
		"Estimated Cost: £350.00",
		"Actual Cost:    £420.00",
		"Total Amount Due: £420.00",
		"Payment due within 30 days of issue.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("invoice missing line %q\n%s", want, out)
		}
	}
}

func TestRenderRejectsIneligible(t *testing.T) {
	req := completedRequest()
	req.Status = domain.StatusInProgress
	if _, err := Render(req, Details{}, time.Now()); err == nil {
		t.Fatalf("expected error for non-completed request")
	}

	req = completedRequest()
	req.ActualCost = 0
	if _, err := Render(req, Details{}, time.Now()); err == nil {
		t.Fatalf("expected error for zero actual cost")
	}
}

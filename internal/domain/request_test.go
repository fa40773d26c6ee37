package domain

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusSubmitted, StatusInProgress, true},
		{StatusSubmitted, StatusCancelled, true},
		{StatusSubmitted, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusSubmitted, false},
		{StatusInProgress, StatusCancelled, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusSubmitted, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCancelled, StatusInProgress, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.allowed {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.allowed)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	if StatusSubmitted.Terminal() || StatusInProgress.Terminal() {
		t.Fatalf("submitted and in_progress must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Fatalf("completed and cancelled must be terminal")
	}
}

func TestInvoiceEligible(t *testing.T) {
	cases := []struct {
		status   Status
		cost     float64
		eligible bool
	}{
		{StatusCompleted, 420.00, true},
		{StatusCompleted, 0, false},
		{StatusCompleted, -5, false},
		{StatusInProgress, 420.00, false},
		{StatusSubmitted, 100, false},
		{StatusCancelled, 100, false},
	}

	for _, c := range cases {
		r := &MaintenanceRequest{Status: c.status, ActualCost: c.cost}
		if got := r.InvoiceEligible(); got != c.eligible {
			t.Errorf("status=%s cost=%.2f: eligible=%v, want %v", c.status, c.cost, got, c.eligible)
		}
	}
}

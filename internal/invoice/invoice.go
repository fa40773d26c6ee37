package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/upkeephq/upkeep/internal/domain"
)

// Details carries the resolved display fields an invoice needs beyond the
// request row itself.
type Details struct {
	TenantName      string
	PropertyAddress string
	WorkerName      string
}

// paymentTermDays is the static payment term printed on every invoice.
const paymentTermDays = 30

// Number derives the invoice identifier from a request ID: INV- plus the last
// eight characters of the ID, uppercased so hex UUID tails print as document
// numbers rather than lowercase fragments.
func Number(requestID string) string {
	id := requestID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "INV-" + strings.ToUpper(id)
}

// Render produces the fixed-layout plain-text invoice for a completed, costed
// request. It is pure: no persistence, no clock beyond the completion date on
// the request (falling back to issuedAt for the issue date line).
func Render(req *domain.MaintenanceRequest, details Details, issuedAt time.Time) (string, error) {
	if req == nil {
		return "", fmt.Errorf("request required")
	}
	if !req.InvoiceEligible() {
		return "", fmt.Errorf("%w: request %s is not invoice eligible", domain.ErrValidation, req.ID)
	}

	completed := issuedAt
	if req.CompletedAt != nil {
		completed = *req.CompletedAt
	}

	var b strings.Builder
	line := strings.Repeat("=", 50)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "                MAINTENANCE INVOICE")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Invoice Number: %s\n", Number(req.ID))
	fmt.Fprintf(&b, "Issue Date:     %s\n", issuedAt.Format("02 Jan 2006"))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Tenant:         %s\n", details.TenantName)
	fmt.Fprintf(&b, "Property:       %s\n", details.PropertyAddress)
	fmt.Fprintf(&b, "Completed By:   %s\n", details.WorkerName)
	fmt.Fprintf(&b, "Completed On:   %s\n", completed.Format("02 Jan 2006"))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Work:           %s\n", req.Title)
	fmt.Fprintf(&b, "Category:       %s", req.Category)
	if req.Subcategory != "" {
		fmt.Fprintf(&b, " / %s", req.Subcategory)
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, strings.Repeat("-", 50))
	fmt.Fprintf(&b, "Estimated Cost: £%.2f\n", req.EstimatedCost)
	fmt.Fprintf(&b, "Actual Cost:    £%.2f\n", req.ActualCost)
	fmt.Fprintln(&b, strings.Repeat("-", 50))
	fmt.Fprintf(&b, "Total Amount Due: £%.2f\n", req.ActualCost)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Payment due within %d days of issue.\n", paymentTermDays)
	fmt.Fprintln(&b, line)

	return b.String(), nil
}

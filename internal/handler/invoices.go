package handler

import (
	"log/slog"
	"net/http"

	"github.com/upkeephq/upkeep/internal/security"
	"github.com/upkeephq/upkeep/internal/service"
)

// InvoiceHandler handles invoice endpoints. Invoices are rendered on demand
// from completed requests, never stored.
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	requestService *service.RequestService
	authz          *security.AuthorizationService
	logger         *slog.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService, requestService *service.RequestService, logger *slog.Logger) *InvoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &InvoiceHandler{
		invoiceService: invoiceService,
		requestService: requestService,
		authz:          security.NewAuthorizationService(logger),
		logger:         logger,
	}
}

// Render handles GET /api/requests/{id}/invoice and responds with the
// plain-text invoice document.
func (h *InvoiceHandler) Render(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	text, err := h.invoiceService.Render(r.Context(), actorFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

// ListEligible handles GET /api/invoices, returning the invoice-eligible
// subset of the actor's visible requests. Tenants fetch single invoices via
// the request endpoint instead.
func (h *InvoiceHandler) ListEligible(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)

	if err := h.authz.ValidatePermission(actor.Role, security.PermViewInvoices); err != nil {
		writeError(w, err)
		return
	}

	visible, err := h.requestService.List(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.invoiceService.ListEligible(r.Context(), actor, visible))
}

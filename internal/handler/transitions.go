package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/upkeephq/upkeep/internal/featureflags"
	"github.com/upkeephq/upkeep/internal/security"
	"github.com/upkeephq/upkeep/internal/service"
)

// TransitionHandler handles the lifecycle endpoints on a single request.
// Each endpoint maps onto exactly one guarded status change.
type TransitionHandler struct {
	requestService *service.RequestService
	authz          *security.AuthorizationService
	logger         *slog.Logger
}

// NewTransitionHandler creates a new transition handler
func NewTransitionHandler(requestService *service.RequestService, logger *slog.Logger) *TransitionHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &TransitionHandler{
		requestService: requestService,
		authz:          security.NewAuthorizationService(logger),
		logger:         logger,
	}
}

// AssignRequest represents a worker assignment
type AssignRequest struct {
	WorkerID   string `json:"workerId"`
	AgentNotes string `json:"agentNotes"`
}

// DecisionRequest carries the landlord's notes on an approve or deny
type DecisionRequest struct {
	Notes string `json:"notes"`
}

// CompleteRequest represents request completion with its final cost
type CompleteRequest struct {
	ActualCost float64 `json:"actualCost"`
	AgentNotes string  `json:"agentNotes"`
}

// Assign handles POST /api/requests/{id}/assign
func (h *TransitionHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.authz.ValidatePermission(actorFromRequest(r).Role, security.PermAssignWorker); err != nil {
		writeError(w, err)
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	request, err := h.requestService.Assign(r.Context(), actorFromRequest(r), id, req.WorkerID, req.AgentNotes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// Approve handles POST /api/requests/{id}/approve
func (h *TransitionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.authz.ValidatePermission(actorFromRequest(r).Role, security.PermApproveRequest); err != nil {
		writeError(w, err)
		return
	}

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	request, err := h.requestService.Approve(r.Context(), actorFromRequest(r), id, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// Deny handles POST /api/requests/{id}/deny. The endpoint ships dark behind a
// feature flag until the landlord flow is rolled out everywhere.
func (h *TransitionHandler) Deny(w http.ResponseWriter, r *http.Request) {
	if !featureflags.Enabled(featureflags.DenyTransition) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}

	id := r.PathValue("id")

	if err := h.authz.ValidatePermission(actorFromRequest(r).Role, security.PermDenyRequest); err != nil {
		writeError(w, err)
		return
	}

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	request, err := h.requestService.Deny(r.Context(), actorFromRequest(r), id, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// Complete handles POST /api/requests/{id}/complete
func (h *TransitionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.authz.ValidatePermission(actorFromRequest(r).Role, security.PermCompleteRequest); err != nil {
		writeError(w, err)
		return
	}

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	request, err := h.requestService.Complete(r.Context(), actorFromRequest(r), id, req.ActualCost, req.AgentNotes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

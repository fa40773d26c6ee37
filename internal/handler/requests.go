package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/internal/security/middleware"
	"github.com/upkeephq/upkeep/internal/service"
)

// RequestHandler handles maintenance request endpoints
type RequestHandler struct {
	requestService *service.RequestService
	logger         *slog.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService *service.RequestService, logger *slog.Logger) *RequestHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &RequestHandler{
		requestService: requestService,
		logger:         logger,
	}
}

// actorFromRequest builds the service actor from verified token claims.
// Returns a zero actor when the request carries no claims; services treat
// that as unauthenticated.
func actorFromRequest(r *http.Request) service.Actor {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{
		ID:   claims.UserID,
		Role: claims.Role,
	}
}

// SubmitRequestRequest represents a new maintenance request submission
type SubmitRequestRequest struct {
	Category      string  `json:"category"`
	Subcategory   string  `json:"subcategory"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Room          string  `json:"room"`
	Priority      string  `json:"priority"`
	EstimatedCost float64 `json:"estimatedCost"`
	MaxBudget     float64 `json:"maxBudget"`
	TenantNotes   string  `json:"tenantNotes"`
}

// Create handles POST /api/requests
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	request, err := h.requestService.Submit(r.Context(), actorFromRequest(r), service.SubmitInput{
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Title:         req.Title,
		Description:   req.Description,
		Room:          req.Room,
		Priority:      domain.Priority(req.Priority),
		EstimatedCost: req.EstimatedCost,
		MaxBudget:     req.MaxBudget,
		TenantNotes:   req.TenantNotes,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// List handles GET /api/requests
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.List(r.Context(), actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// Get handles GET /api/requests/{id}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "request id is required"})
		return
	}

	request, err := h.requestService.Get(r.Context(), actorFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/upkeephq/upkeep/internal/security"
	"github.com/upkeephq/upkeep/internal/service"
)

// WorkerHandler handles worker roster endpoints
type WorkerHandler struct {
	workerService *service.WorkerService
	authz         *security.AuthorizationService
	logger        *slog.Logger
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(workerService *service.WorkerService, logger *slog.Logger) *WorkerHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &WorkerHandler{
		workerService: workerService,
		authz:         security.NewAuthorizationService(logger),
		logger:        logger,
	}
}

// CreateWorkerRequest represents a new roster entry
type CreateWorkerRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Category  string `json:"category"`
}

// Create handles POST /api/workers
func (h *WorkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.ValidatePermission(actorFromRequest(r).Role, security.PermManageWorkers); err != nil {
		writeError(w, err)
		return
	}

	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	worker, err := h.workerService.Create(r.Context(), actorFromRequest(r), service.CreateWorkerInput{
		Name:      req.Name,
		Specialty: req.Specialty,
		Category:  req.Category,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, worker)
}

// List handles GET /api/workers?category=
func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request) {
	workers, err := h.workerService.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workers)
}

// ToggleFavorite handles POST /api/workers/{id}/favorite
func (h *WorkerHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.ValidatePermission(actorFromRequest(r).Role, security.PermManageWorkers); err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")

	worker, err := h.workerService.ToggleFavorite(r.Context(), actorFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, worker)
}

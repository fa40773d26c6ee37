package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/upkeephq/upkeep/internal/security"
	"github.com/upkeephq/upkeep/internal/service"
)

// PropertyHandler handles property endpoints
type PropertyHandler struct {
	propertyService *service.PropertyService
	authz           *security.AuthorizationService
	logger          *slog.Logger
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(propertyService *service.PropertyService, logger *slog.Logger) *PropertyHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &PropertyHandler{
		propertyService: propertyService,
		authz:           security.NewAuthorizationService(logger),
		logger:          logger,
	}
}

// CreatePropertyRequest represents a new property
type CreatePropertyRequest struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Type        string  `json:"type"`
	Units       int     `json:"units"`
	RentPerUnit float64 `json:"rentPerUnit"`
	LandlordID  string  `json:"landlordId"`
}

// AssignTenantRequest links a tenant to a property
type AssignTenantRequest struct {
	TenantID string `json:"tenantId"`
}

// Create handles POST /api/properties
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.ValidatePermission(actorFromRequest(r).Role, security.PermManageProperty); err != nil {
		writeError(w, err)
		return
	}

	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	property, err := h.propertyService.Create(r.Context(), actorFromRequest(r), service.CreatePropertyInput{
		Name:        req.Name,
		Address:     req.Address,
		Type:        req.Type,
		Units:       req.Units,
		RentPerUnit: req.RentPerUnit,
		LandlordID:  req.LandlordID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, property)
}

// List handles GET /api/properties
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	properties, err := h.propertyService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, properties)
}

// Get handles GET /api/properties/{id}
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	property, err := h.propertyService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, property)
}

// AssignTenant handles POST /api/properties/{id}/tenant
func (h *PropertyHandler) AssignTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.ValidatePermission(actorFromRequest(r).Role, security.PermManageProperty); err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")

	var req AssignTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if req.TenantID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "tenantId is required"})
		return
	}

	if err := h.propertyService.AssignTenant(r.Context(), actorFromRequest(r), id, req.TenantID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "tenant assigned"})
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/upkeephq/upkeep/internal/service"
)

// RatingHandler handles worker rating endpoints
type RatingHandler struct {
	ratingService *service.RatingService
	logger        *slog.Logger
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratingService *service.RatingService, logger *slog.Logger) *RatingHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &RatingHandler{
		ratingService: ratingService,
		logger:        logger,
	}
}

// SubmitRatingRequest represents a rating submission
type SubmitRatingRequest struct {
	WorkerID string `json:"workerId"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

// Submit handles POST /api/requests/{id}/ratings
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")

	var req SubmitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	rating, err := h.ratingService.SubmitRating(r.Context(), actorFromRequest(r), service.SubmitRatingInput{
		WorkerID:  req.WorkerID,
		RequestID: requestID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rating)
}

// ListByWorker handles GET /api/workers/{id}/ratings
func (h *RatingHandler) ListByWorker(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("id")

	ratings, err := h.ratingService.ListByWorker(r.Context(), workerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ratings)
}

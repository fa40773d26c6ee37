package handler

import (
	"log/slog"
	"net/http"

	"github.com/upkeephq/upkeep/internal/infrastructure/redis"
	"github.com/upkeephq/upkeep/pkg/database"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db     *database.ConnectionPool
	redis  *redis.Client
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler. Either dependency may be nil;
// readiness only checks what is wired.
func NewHealthHandler(db *database.ConnectionPool, redisClient *redis.Client, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz, checking the backing stores
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.Health(r.Context()); err != nil {
			h.logger.Error("database health check failed", slog.String("error", err.Error()))
			checks["database"] = "unavailable"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()); err != nil {
			h.logger.Error("redis health check failed", slog.String("error", err.Error()))
			checks["redis"] = "unavailable"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, checks)
}

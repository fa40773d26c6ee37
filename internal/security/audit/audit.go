package audit

import (
	"context"
	"log/slog"
	"time"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, role, action, resource, resourceID, status, details string) {
	requestID := ""
	if reqID := ctx.Value("request_id"); reqID != nil {
		requestID = reqID.(string)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("role", role),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogTransition(ctx context.Context, userID, role, requestID, from, to, status string) {
	al.LogAction(ctx, userID, role, "transition", "maintenance_request", requestID, status, from+" -> "+to)
}

func (al *Logger) LogRating(ctx context.Context, userID, role, workerID, status, details string) {
	al.LogAction(ctx, userID, role, "rate", "worker", workerID, status, details)
}

func (al *Logger) LogAuth(ctx context.Context, userID, action, status, details string) {
	al.LogAction(ctx, userID, "", action, "session", "", status, details)
}

func (al *Logger) LogDenied(ctx context.Context, userID, role, reason string) {
	al.LogAction(ctx, userID, role, "access_denied", "api", "", "denied", reason)
}

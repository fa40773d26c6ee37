package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upkeephq/upkeep/internal/handler"
	"github.com/upkeephq/upkeep/internal/infrastructure/logger"
	"github.com/upkeephq/upkeep/internal/infrastructure/redis"
	"github.com/upkeephq/upkeep/internal/observability/metrics"
	"github.com/upkeephq/upkeep/internal/observability/tracing"
	"github.com/upkeephq/upkeep/internal/repository"
	"github.com/upkeephq/upkeep/internal/security/audit"
	"github.com/upkeephq/upkeep/internal/security/auth"
	"github.com/upkeephq/upkeep/internal/security/middleware"
	"github.com/upkeephq/upkeep/internal/security/ratelimit"
	"github.com/upkeephq/upkeep/internal/service"
	"github.com/upkeephq/upkeep/pkg/cache"
	"github.com/upkeephq/upkeep/pkg/config"
	"github.com/upkeephq/upkeep/pkg/database"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting upkeep server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, log, "upkeep", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize Redis client
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 5. Initialize Postgres connection pool
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	// 6. Initialize repositories
	profileRepo := repository.NewPostgresProfileRepository(db, log)
	propertyRepo := repository.NewPostgresPropertyRepository(db, log)
	requestRepo := repository.NewPostgresRequestRepository(db, log)
	workerRepo := repository.NewPostgresWorkerRepository(db, log)
	ratingRepo := repository.NewPostgresRatingRepository(db, log)

	// 7. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "upkeep")
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)
	revocationStore := redis.NewRevocationStore(redisClient)

	// 8. Initialize services
	rosterTTL := time.Duration(cfg.RosterCacheSeconds) * time.Second
	authService := service.NewAuthService(profileRepo, tokenManager, revocationStore, cfg.EmailDomain, log)
	requestService := service.NewRequestService(requestRepo, propertyRepo, profileRepo, workerRepo, cfg.Categories, auditLogger, log)
	ratingService := service.NewRatingService(ratingRepo, requestRepo, workerRepo, auditLogger, log)
	propertyService := service.NewPropertyService(propertyRepo, profileRepo, cache.New(), rosterTTL, log)
	workerService := service.NewWorkerService(workerRepo, redisClient, rosterTTL, log)
	invoiceService := service.NewInvoiceService(requestRepo, profileRepo, propertyRepo, workerRepo, log)

	// 9. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, log)
	requestHandler := handler.NewRequestHandler(requestService, log)
	transitionHandler := handler.NewTransitionHandler(requestService, log)
	ratingHandler := handler.NewRatingHandler(ratingService, log)
	propertyHandler := handler.NewPropertyHandler(propertyService, log)
	workerHandler := handler.NewWorkerHandler(workerService, log)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, requestService, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient, log)

	// 10. Setup HTTP routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

	mux.HandleFunc("POST /api/requests", requestHandler.Create)
	mux.HandleFunc("GET /api/requests", requestHandler.List)
	mux.HandleFunc("GET /api/requests/{id}", requestHandler.Get)
	mux.HandleFunc("POST /api/requests/{id}/assign", transitionHandler.Assign)
	mux.HandleFunc("POST /api/requests/{id}/approve", transitionHandler.Approve)
	mux.HandleFunc("POST /api/requests/{id}/deny", transitionHandler.Deny)
	mux.HandleFunc("POST /api/requests/{id}/complete", transitionHandler.Complete)
	mux.HandleFunc("GET /api/requests/{id}/invoice", invoiceHandler.Render)
	mux.HandleFunc("GET /api/invoices", invoiceHandler.ListEligible)

	mux.HandleFunc("POST /api/requests/{id}/ratings", ratingHandler.Submit)
	mux.HandleFunc("GET /api/workers/{id}/ratings", ratingHandler.ListByWorker)

	mux.HandleFunc("POST /api/properties", propertyHandler.Create)
	mux.HandleFunc("GET /api/properties", propertyHandler.List)
	mux.HandleFunc("GET /api/properties/{id}", propertyHandler.Get)
	mux.HandleFunc("POST /api/properties/{id}/tenant", propertyHandler.AssignTenant)

	mux.HandleFunc("POST /api/workers", workerHandler.Create)
	mux.HandleFunc("GET /api/workers", workerHandler.List)
	mux.HandleFunc("POST /api/workers/{id}/favorite", workerHandler.ToggleFavorite)

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// JWT must run before the rate limiter and the audit middleware: both key
	// off the verified claims, so nesting them outside auth would leave them
	// looking at an empty user. The strict pre-auth limit inside the rate
	// limiter is path-based and unaffected.
	protected := middleware.JWTMiddleware(tokenManager, log)(
		middleware.RateLimitMiddleware(rateLimiter, log)(
			middleware.AuditMiddleware(auditLogger)(mux),
		),
	)

	// CORS sits outside auth so preflight requests never need a token
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		protected.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> content type -> CORS -> JWT -> rate limit -> audit -> mux
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.ValidateJSONContentType(log)(handlerWithCORS),
		),
		log,
	)

	// 11. Start HTTP server with tracing on the outermost layer
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "upkeep-http"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	rateLimiter.Stop()
	log.Info("server stopped")
}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		// String key matches what the audit logger reads back out
		ctx := context.WithValue(r.Context(), "request_id", reqID) //nolint:staticcheck
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}

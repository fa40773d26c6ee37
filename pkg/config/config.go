package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	RedisURL           string
	DatabaseHost       string
	DatabasePort       int
	DatabaseUser       string
	DatabasePassword   string
	DatabaseName       string
	DatabaseSSLMode    string
	JWTSecret          string
	EmailDomain        string
	LogLevel           string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	RosterCacheSeconds int
	Categories         []string
}

// Load reads configuration from the environment, preloading a .env file when
// one is present in the working directory.
func Load() (*Config, error) {
	// Missing .env is not an error; env vars win either way
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DATABASE_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_PORT: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	rosterCache, err := strconv.Atoi(getEnv("ROSTER_CACHE_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROSTER_CACHE_SECONDS: %w", err)
	}

	return &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		ServerPort:       port,
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		DatabaseHost:     getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:     dbPort,
		DatabaseUser:     getEnv("DATABASE_USER", "upkeep"),
		DatabasePassword: getEnv("DATABASE_PASSWORD", "dev"),
		DatabaseName:     getEnv("DATABASE_NAME", "upkeep"),
		DatabaseSSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		EmailDomain:      getEnv("EMAIL_DOMAIN", "upkeep.local"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
		},
		RateLimitPerMinute: rateLimit,
		RosterCacheSeconds: rosterCache,
		Categories: parseCSVEnv("REQUEST_CATEGORIES", []string{
			"Plumbing", "Electrical", "Heating", "Appliances", "Structural", "General",
		}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

package main

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/nexship/freightgate/internal/adapters/api"
	"github.com/nexship/freightgate/internal/adapters/carrier"
	"github.com/nexship/freightgate/internal/adapters/ratelimit"
	"github.com/nexship/freightgate/internal/adapters/repository"
	"github.com/nexship/freightgate/internal/config"
	"github.com/nexship/freightgate/internal/core/ports"
	"github.com/nexship/freightgate/internal/core/services"
	"github.com/nexship/freightgate/internal/infrastructure/metrics"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Warn("could not ping database", "error", err)
	}

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			metrics.DBConnectionsActive.Set(float64(db.Stats().OpenConnections))
		}
	}()

	repo := repository.NewPostgresRepository(db)

	aramex, err := carrier.New(carrier.Config{
		IdentityURL:   cfg.AramexIdentityURL,
		BaseURL:       cfg.AramexBaseURL,
		ClientID:      cfg.AramexClientID,
		ClientSecret:  cfg.AramexClientSecret,
		AccountNumber: cfg.AramexAccountNumber,
		CountryCode:   cfg.AramexAccountCountry,
	})
	if err != nil {
		log.Fatalf("carrier configuration: %v", err)
	}

	limiter := buildLimiter(cfg, logger)

	authSvc := services.NewAuthService(repo, cfg.JWTSecret, logger)
	freightSvc := services.NewFreightService(repo, aramex, cfg.QuoteValidity, logger)

	handler := api.NewAPIHandler(freightSvc, authSvc, limiter, repo, cfg.RateLimitMax, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	logger.Info("listening", "addr", cfg.HTTPAddr, "rate_limit_backend", cfg.RateLimitBackend)
	if err := http.ListenAndServe(cfg.HTTPAddr, api.CORS(mux)); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// buildLimiter selects the rate-limit backend. Redis gives one shared window
// across replicas; memory is per-process and needs no extra infrastructure.
func buildLimiter(cfg *config.Config, logger *slog.Logger) ports.RateLimiter {
	if cfg.RateLimitBackend == "redis" && cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		return ratelimit.NewRedisLimiter(redis.NewClient(opts), cfg.RateLimitWindow, cfg.RateLimitMax, logger)
	}

	limiter := ratelimit.NewMemoryLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	go func() {
		ticker := time.NewTicker(cfg.RateLimitWindow)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Cleanup()
		}
	}()
	return limiter
}

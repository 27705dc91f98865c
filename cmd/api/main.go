package main

import (
	"database/sql"
	"log"
	"net/http"

	jwtauth "dog-registry/internal/adapters/auth/jwt"
	memlimit "dog-registry/internal/adapters/ratelimit/memory"
	redislimit "dog-registry/internal/adapters/ratelimit/redis"
	pg "dog-registry/internal/adapters/storage/postgres"
	"dog-registry/internal/platform/config"
	"dog-registry/internal/platform/logger"
	"dog-registry/internal/platform/metrics"
	"dog-registry/internal/ports/auth"
	"dog-registry/internal/ports/ratelimit"
	"dog-registry/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	lg := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: logger.ParseFormat(cfg.Logging.Format),
		App:    "dog-registry",
	})

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("database error: %v", err)
		}
		defer db.Close()
	} else {
		lg.Warn("no database DSN configured, using in-memory repos", nil)
	}

	var verifier auth.AuthVerifier
	if cfg.Auth.JWTSigningKey != "" {
		verifier = jwtauth.NewVerifier(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)
	} else {
		lg.Warn("no JWT signing key configured, running in dev auth mode", nil)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		if cfg.Redis.URL != "" {
			rl, err := redislimit.NewLimiter(cfg.Redis.URL, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
			if err != nil {
				log.Fatalf("redis error: %v", err)
			}
			defer rl.Close()
			limiter = rl
		} else {
			limiter = memlimit.NewLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		}
	}

	m, metricsHandler := metrics.NewWithHandler()

	r := router.NewRouter(router.Options{
		AuthVerifier:   verifier,
		DB:             db,
		Limiter:        limiter,
		Log:            lg,
		Metrics:        m,
		MetricsHandler: metricsHandler,
		MaxGenerations: cfg.Pedigree.MaxGenerations,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	lg.Info("starting server", map[string]any{"addr": cfg.HTTP.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

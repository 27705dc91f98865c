package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "dog-registry/internal/adapters/storage/memory"
	pg "dog-registry/internal/adapters/storage/postgres"
	"dog-registry/internal/domain/breeding"
	"dog-registry/internal/domain/dogs"
	"dog-registry/internal/domain/pedigree"
	"dog-registry/internal/middleware"
	"dog-registry/internal/platform/logger"
	"dog-registry/internal/platform/metrics"
	"dog-registry/internal/ports/audit"
	"dog-registry/internal/ports/auth"
	"dog-registry/internal/ports/ratelimit"
	"dog-registry/internal/ports/visibility"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcionales; nil desactiva el concern.
	Limiter        ratelimit.Limiter
	Log            logger.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	// AuditSink opcional: si es nil se elige según DB (postgres
	// system_logs o in-memory).
	AuditSink audit.Sink

	// MaxGenerations acota los traversals de pedigree (0 = default).
	MaxGenerations int
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.RateLimit(opts.Limiter, opts.Log))
	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	var (
		dogRepo      dogs.Repository
		breedingRepo breeding.Repository
		sink         audit.Sink
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DOGREG_DATABASE_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		dogRepo = pg.NewDogsRepo(db)
		breedingRepo = pg.NewBreedingRepo(db)
		sink = pg.NewAuditSink(db)
	} else {
		dogRepo = mem.NewDogRepo()
		breedingRepo = mem.NewBreedingRepo()
		sink = mem.NewAuditSink()
	}
	if opts.AuditSink != nil {
		sink = opts.AuditSink
	}

	// Services por módulo
	dogsSvc := dogs.NewService(dogRepo)
	pedigreeSvc := pedigree.NewService(dogsSvc, visibility.RolePolicy{}, opts.Metrics, opts.MaxGenerations)
	breedingSvc := breeding.NewService(breedingRepo, dogsSvc, sink, opts.Log, opts.Metrics)

	// Rutas por módulo
	dogs.RegisterRoutes(r, dogsSvc)
	pedigree.RegisterRoutes(r, pedigreeSvc)
	breeding.RegisterRoutes(r, breedingSvc)

	return r
}

package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-iam/internal/observability"
	"github.com/odyssey-erp/odyssey-iam/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
	"github.com/odyssey-erp/odyssey-iam/jobs"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck probes one backing service for /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Handlers    Handlers
	JobHandler  *jobs.Handler
	Metrics     *observability.Metrics
	Idempotency *shared.IdempotencyStore
	Readiness   []ReadinessCheck
	// RequestLogging toggles chi's access log.
	RequestLogging bool
}

// NewRouter constructs the chi.Router with Odyssey defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      logger,
		Config:      params.Config,
		Metrics:     params.Metrics,
		Idempotency: params.Idempotency,
	}) {
		r.Use(mw)
	}
	if params.RequestLogging {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.StripSlashes)

	// set before mounting so sub-routers inherit them
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(logger, params.Readiness))

	if params.Handlers.Roles != nil {
		r.Route("/roles", params.Handlers.Roles.MountRoutes)
	}
	if params.Handlers.Permissions != nil {
		r.Route("/permissions", params.Handlers.Permissions.MountRoutes)
	}
	if params.Handlers.Users != nil {
		r.Route("/users", params.Handlers.Users.MountRoutes)
	}
	if params.Handlers.Audit != nil {
		r.Route("/audit-logs", params.Handlers.Audit.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func readinessHandler(logger *slog.Logger, checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for _, check := range checks {
			if check.Check == nil {
				continue
			}
			g.Go(func() error {
				if err := check.Check(gctx); err != nil {
					logger.Warn("readiness check failed", slog.String("check", check.Name), slog.Any("error", err))
					return &readinessError{name: check.Name}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			httpx.Error(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type readinessError struct {
	name string
}

func (e *readinessError) Error() string {
	return e.name + " unavailable."
}

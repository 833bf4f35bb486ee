// Package httptransport assembles the public HTTP surface: the middleware
// chain, operational endpoints, and the questionnaire routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"policywriter/internal/platform/metrics"
	"policywriter/internal/platform/middleware"
	dErrors "policywriter/pkg/domain-errors"
	"policywriter/pkg/platform/httputil"
	"policywriter/pkg/platform/middleware/metadata"
	"policywriter/pkg/platform/middleware/requesttime"
)

// RouteRegistrar mounts a feature's routes on the shared router.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a downstream dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps are the collaborators NewRouter needs. Gatherer and Readiness are
// optional; without them /metrics and /readyz are not mounted.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Readiness      HealthChecker
	RequestTimeout time.Duration
	Routes         []RouteRegistrar
}

const defaultRequestTimeout = 30 * time.Second

// NewRouter wires the middleware chain and every public endpoint.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(d.Metrics))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
			Error:            "method_not_allowed",
			ErrorDescription: "method not allowed on this route",
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Readiness != nil {
		r.Get("/readyz", readiness(d.Readiness, logger))
	}
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Use(middleware.ContentTypeJSON)
		for _, routes := range d.Routes {
			routes.Register(r)
		}
	})
	return r
}

// readiness reports 503 while the policy backend is unreachable.
func readiness(check HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := check.Health(ctx); err != nil {
			logger.WarnContext(ctx, "readiness check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"detail": "policy backend unreachable",
			})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"policywriter/internal/platform/metrics"
	"policywriter/internal/platform/middleware"
	"policywriter/pkg/platform/httputil"
	"policywriter/pkg/requestcontext"
	"policywriter/pkg/testutil"
)

type echoRoutes struct{}

func (echoRoutes) Register(r chi.Router) {
	r.Get("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"request_id": requestcontext.RequestID(ctx),
			"client_ip":  requestcontext.ClientIP(ctx),
		})
	})
	r.Post("/api/echo", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/api/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

type stubHealth struct{ err error }

func (s stubHealth) Health(context.Context) error { return s.err }

func newTestRouter(health HealthChecker) http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(Deps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Readiness: health,
		Routes:    []RouteRegistrar{echoRoutes{}},
	})
}

func TestRouter(t *testing.T) {
	testutil.Given(t, "the HTTP router", func(t *testing.T) {
		router := newTestRouter(stubHealth{})

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "it responds ok with a request id", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				assert.NotEmpty(t, rr.Header().Get(middleware.HeaderRequestID))
			})
		})

		testutil.When(t, "calling a feature route", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/api/echo")
			req.Header.Set(middleware.HeaderRequestID, "req-42")
			req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "request metadata reaches the handler", func(t *testing.T) {
				body := testutil.UnmarshalResponse[map[string]string](t, rr)
				assert.Equal(t, "req-42", (*body)["request_id"])
				assert.Equal(t, "203.0.113.9", (*body)["client_ip"])
			})
		})

		testutil.When(t, "calling an unknown route", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/nope"))

			testutil.Then(t, "it responds with a JSON not_found", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
			})
		})

		testutil.When(t, "using the wrong method", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/api/echo"))

			testutil.Then(t, "it responds 405", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusMethodNotAllowed, "method_not_allowed")
			})
		})

		testutil.When(t, "posting a non-JSON body to a feature route", func(t *testing.T) {
			req := testutil.NewRequestWithBody(t, http.MethodPost, "/api/echo", "a=b")
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it responds 415", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnsupportedMediaType, "unsupported_media_type")
			})
		})

		testutil.When(t, "a handler panics", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/panic"))

			testutil.Then(t, "it responds with internal_error", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
			})
		})
	})
}

func TestReadiness(t *testing.T) {
	router := newTestRouter(stubHealth{})
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/readyz"))
	testutil.AssertStatusOK(t, rr)

	router = newTestRouter(stubHealth{err: errors.New("connection refused")})
	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/readyz"))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	testutil.AssertJSONContains(t, rr, "status", "unavailable")
}

func TestMetricsEndpointExposesRouteLatency(t *testing.T) {
	router := newTestRouter(nil)
	testutil.AssertStatusOK(t, testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/echo")))

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
	body := rr.Body.String()
	assert.Contains(t, body, "policywriter_http_request_duration_seconds")
	assert.Contains(t, body, `route="/api/echo"`)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/readyz"))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

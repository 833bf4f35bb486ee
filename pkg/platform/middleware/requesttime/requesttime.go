// Package requesttime pins one "now" per request so every timestamp written
// while serving it (session updates, audit events) agrees.
package requesttime

import (
	"net/http"
	"time"

	"policywriter/pkg/requestcontext"
)

// Middleware stores the request start time in the context unless an earlier
// middleware already did.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, ok := ctx.Value(requestcontext.ContextKeyRequestTime).(time.Time); !ok {
			ctx = requestcontext.WithTime(ctx, time.Now())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

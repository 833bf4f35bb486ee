package testutil

import (
	"context"
	"net/http"
	"time"

	"policywriter/pkg/requestcontext"
)

// WithRequestMetadata adds what the middleware chain would have put on the
// context: request id, client IP and user agent.
func WithRequestMetadata(req *http.Request, requestID, clientIP, userAgent string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	ctx = requestcontext.WithClientMetadata(ctx, clientIP, userAgent)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), key, value))
}

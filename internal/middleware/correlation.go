// Package middleware provides the HTTP middleware shared by the portal server.
package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

type requestIDKey struct{}

// Inbound IDs end up in logs and response headers, so only short token-like values are kept.
var inboundIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// CorrelationID tags the request with an ID taken from X-Request-ID, then
// X-Correlation-ID, or a fresh UUID when neither holds a usable value. The ID is
// echoed in the X-Request-ID response header.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := inboundRequestID(r)
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

func inboundRequestID(r *http.Request) string {
	for _, h := range []string{HeaderRequestID, HeaderCorrelationID} {
		if v := r.Header.Get(h); inboundIDPattern.MatchString(v) {
			return v
		}
	}
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the ID set by CorrelationID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Package request provides middleware that assigns each request a
// correlation ID, honoring an inbound X-Request-ID header when present.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"mintledger/pkg/requestcontext"
)

// HeaderRequestID is the header carrying the request correlation ID.
const HeaderRequestID = "X-Request-ID"

// Middleware ensures every request has a correlation ID in its context and
// echoes it back on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

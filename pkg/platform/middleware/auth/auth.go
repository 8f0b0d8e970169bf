// Package auth provides middleware that authenticates the calling principal
// from a bearer token and makes it available via requestcontext.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "mintledger/pkg/domain"
	"mintledger/pkg/requestcontext"
)

// PrincipalExtractor validates a token string and returns the principal it
// authenticates.
type PrincipalExtractor interface {
	ExtractPrincipal(tokenString string) (id.Principal, error)
}

// Middleware authenticates requests that carry an Authorization: Bearer
// header. Requests without one pass through unauthenticated; handlers for
// mutating operations reject a missing principal themselves, which keeps
// read-only endpoints open.
func Middleware(extractor PrincipalExtractor, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"authorization header must use the Bearer scheme"}`))
				return
			}

			ctx := r.Context()
			principal, err := extractor.ExtractPrincipal(token)
			if err != nil {
				logger.WarnContext(ctx, "bearer token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"invalid bearer token"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

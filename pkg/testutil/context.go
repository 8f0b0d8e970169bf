package testutil

import (
	"net/http"

	id "mintledger/pkg/domain"
	"mintledger/pkg/requestcontext"
)

// WithPrincipal attaches an authenticated principal to the request context.
// This simulates what the auth middleware does for requests that carry a
// valid bearer token. An unparseable principal is silently ignored so the
// request stays anonymous.
func WithPrincipal(req *http.Request, principal string) *http.Request {
	parsed, err := id.ParsePrincipal(principal)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), parsed))
}

// WithRequestID attaches a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// Package httptransport assembles the HTTP surface: middleware chain, domain
// handlers, health, and metrics. It stays thin; business rules live in the
// domain services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mintledger/pkg/platform/middleware/auth"
	"mintledger/pkg/platform/middleware/request"
	"mintledger/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every domain handler that mounts routes.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs.
type Deps struct {
	Logger    *slog.Logger
	Extractor auth.PrincipalExtractor
	Handlers  []Registrar
}

// NewRouter builds the full router. The auth middleware only attaches a
// principal when a bearer token is present, so read endpoints stay open while
// mutations are authorized in the services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(auth.Middleware(deps.Extractor, deps.Logger))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range deps.Handlers {
		h.Register(r)
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Package httptransport assembles the HTTP surface: shared middleware,
// domain handlers behind their route policies, and the operational endpoints.
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradepost/internal/auth/gate"
	authhandler "tradepost/internal/auth/handler"
	producthandler "tradepost/internal/product/handler"
	userhandler "tradepost/internal/user/handler"
	"tradepost/pkg/platform/httputil"
	"tradepost/pkg/platform/middleware/metadata"
	"tradepost/pkg/platform/middleware/requestid"
	"tradepost/pkg/platform/middleware/requesttime"
)

// Handlers groups the domain handlers the router mounts.
type Handlers struct {
	Auth     *authhandler.Handler
	Users    *userhandler.Handler
	Products *producthandler.Handler
}

// HealthCheck probes one backing dependency for the /health endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewRouter builds the complete router. Middleware order matters: request ID
// first so every later log line can carry it, then the request timestamp that
// freezes "now" for the whole request, then client metadata.
func NewRouter(h Handlers, g *gate.Gate, checks ...HealthCheck) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	h.Auth.Register(r, g)
	h.Users.Register(r, g)
	h.Products.Register(r, g)

	r.Get("/health", handleHealth(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// handleHealth probes every configured backend. Any failure degrades the
// overall status to 503 so load balancers pull the instance.
func handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, c := range checks {
			if err := c.Check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[c.Name] = "unavailable"
			} else {
				body[c.Name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}

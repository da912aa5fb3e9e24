// Package handler exposes the dashboard service over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/finance-dashboard-go/internal/port"
	"github.com/boddenberg/finance-dashboard-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

const healthCheckTimeout = 2 * time.Second

// NewRouter creates the HTTP router with all routes and middleware.
// A nil verifier leaves the customer routes unauthenticated.
func NewRouter(svc *service.DashboardService, verifier *service.TokenVerifier, checkers []port.HealthChecker, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(checkers, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/categories", categoriesHandler())
		r.Get("/metrics/dashboard", dashboardMetricsHandler(metrics))

		// Ad-hoc lists
		r.Post("/dashboard", buildDashboardHandler(svc, logger))
		r.Post("/dashboard/batch", buildDashboardsHandler(svc, logger))

		// Stored customers
		r.Group(func(r chi.Router) {
			if verifier != nil {
				r.Use(JWTAuthMiddleware(verifier, logger))
				r.Use(RequireCustomerMatch(logger))
			}
			r.Get("/customers/{customerId}/dashboard", getDashboardHandler(svc, logger))
			r.Get("/customers/{customerId}/dashboard/summary", getSummaryHandler(svc, logger))
			r.Delete("/customers/{customerId}/dashboard/cache", invalidateCacheHandler(svc, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(checkers []port.HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "finance-dashboard", Status: "healthy", LastChecked: now},
		}

		for _, c := range checkers {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			start := time.Now()
			err := c.Ping(ctx)
			cancel()

			sh := domain.ServiceHealth{
				Name:        c.Name(),
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				logger.Warn("health check failed", zap.String("dependency", c.Name()), zap.Error(err))
				sh.Status = "degraded"
				sh.Error = err.Error()
			}
			services = append(services, sh)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = "degraded"
				break
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func categoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"categories": domain.Categories()})
	}
}

func dashboardMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

package handler

import (
	"net/http"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/boddenberg/finance-dashboard-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type dashboardRequest struct {
	Transactions []domain.TransactionRecord `json:"transactions"`
	Budget       *decimal.Decimal           `json:"budget,omitempty"`
	Currency     string                     `json:"currency,omitempty"`
}

type batchRequest struct {
	Lists    map[string][]domain.TransactionRecord `json:"lists"`
	Budget   *decimal.Decimal                      `json:"budget,omitempty"`
	Currency string                                `json:"currency,omitempty"`
}

type batchResponse struct {
	Dashboards map[string]*domain.Dashboard `json:"dashboards"`
}

func getDashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}/dashboard")
		defer span.End()

		customerID := chi.URLParam(r, "customerId")
		span.SetAttributes(attribute.String("customer.id", customerID))

		q, err := parseDashboardQuery(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		d, err := svc.GetDashboard(ctx, customerID, q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func getSummaryHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}/dashboard/summary")
		defer span.End()

		customerID := chi.URLParam(r, "customerId")
		span.SetAttributes(attribute.String("customer.id", customerID))

		q, err := parseDashboardQuery(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		s, err := svc.GetSummary(ctx, customerID, q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func invalidateCacheHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerId")
		svc.InvalidateCustomer(customerID)
		logger.Info("transactions cache invalidated", zap.String("customer_id", customerID))
		w.WriteHeader(http.StatusNoContent)
	}
}

func buildDashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dashboard")
		defer span.End()

		var req dashboardRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if req.Transactions == nil {
			handleServiceError(w, &domain.ErrValidation{Field: "transactions", Message: "required"}, logger)
			return
		}
		span.SetAttributes(attribute.Int("records.count", len(req.Transactions)))

		d, err := svc.BuildDashboard(ctx, req.Transactions, service.DashboardQuery{
			Budget:   req.Budget,
			Currency: req.Currency,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func buildDashboardsHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dashboard/batch")
		defer span.End()

		var req batchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("lists.count", len(req.Lists)))

		out, err := svc.BuildDashboards(ctx, req.Lists, service.DashboardQuery{
			Budget:   req.Budget,
			Currency: req.Currency,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, batchResponse{Dashboards: out})
	}
}

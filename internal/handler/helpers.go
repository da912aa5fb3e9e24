package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/boddenberg/finance-dashboard-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &domain.ErrValidation{Field: "body", Message: "request body is empty"}
		case errors.As(err, &maxErr):
			return &domain.ErrValidation{Field: "body", Message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)}
		default:
			return &domain.ErrValidation{Field: "body", Message: err.Error()}
		}
	}
	return nil
}

// parseDashboardQuery reads ?budget=&currency=&refresh= from the URL.
func parseDashboardQuery(r *http.Request) (service.DashboardQuery, error) {
	var q service.DashboardQuery
	values := r.URL.Query()

	if v := strings.TrimSpace(values.Get("budget")); v != "" {
		b, err := decimal.NewFromString(v)
		if err != nil {
			return q, &domain.ErrValidation{Field: "budget", Message: "must be a number"}
		}
		q.Budget = &b
	}
	if v := values.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			return q, &domain.ErrValidation{Field: "refresh", Message: "must be a boolean"}
		}
		q.Refresh = refresh
	}
	q.Currency = strings.TrimSpace(values.Get("currency"))
	return q, nil
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var forbidden *domain.ErrForbidden
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, unauthorized.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, forbidden.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, circuitOpen.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, timeout.Error())
	case errors.As(err, &external):
		logger.Error("upstream failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, fmt.Sprintf("upstream service %s unavailable", external.Service))
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

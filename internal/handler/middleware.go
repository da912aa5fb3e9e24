package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/boddenberg/finance-dashboard-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type contextKey string

const customerIDKey contextKey = "customerID"

// JWTAuthMiddleware validates Bearer tokens and injects customerID into context.
func JWTAuthMiddleware(verifier *service.TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), customerIDKey, claims.CustomerID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCustomerMatch rejects requests whose {customerId} differs from the
// authenticated customer. It must run after JWTAuthMiddleware.
func RequireCustomerMatch(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticated := CustomerIDFromContext(r.Context())
			requested := chi.URLParam(r, "customerId")
			if authenticated == "" || authenticated != requested {
				handleServiceError(w, &domain.ErrForbidden{Action: "read dashboard of customer " + requested}, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CustomerIDFromContext extracts the authenticated customer ID from context.
func CustomerIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(customerIDKey).(string)
	return v
}

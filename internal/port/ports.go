// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
)

// TransactionsFetcher retrieves a customer's normalized transactions.
type TransactionsFetcher interface {
	GetTransactions(ctx context.Context, customerID string) ([]domain.Transaction, error)
}

// HealthChecker probes a dependency.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

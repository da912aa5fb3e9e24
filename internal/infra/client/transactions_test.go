package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/client"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/resilience"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newClient(baseURL string, metrics *observability.Metrics) *client.TransactionsClient {
	return client.NewTransactionsClient(
		&http.Client{Timeout: 2 * time.Second},
		baseURL,
		resilience.NewCircuitBreaker("test", zap.NewNop()),
		resilience.Config{MaxRetries: 2, InitialBackoff: 5 * time.Millisecond},
		time.UTC,
		metrics,
		zap.NewNop(),
	)
}

func TestGetTransactions_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/customers/cust-1/transactions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"_id":"a1","amount":100,"transactionType":"credit","category":"Salary","date":"2024-03-01T00:00:00Z"},
			{"_id":"a2","amount":"40.25","transactionType":"expense","category":"Food","date":"2024-03-02"}
		]`))
	}))
	defer srv.Close()

	txns, err := newClient(srv.URL, observability.NewMetrics()).GetTransactions(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	if txns[0].ID != "a1" || !txns[0].IsIncome() {
		t.Errorf("unexpected first transaction: %+v", txns[0])
	}
	if !txns[1].Amount.Equal(decimal.RequireFromString("40.25")) || !txns[1].IsExpense() {
		t.Errorf("unexpected second transaction: %+v", txns[1])
	}
}

func TestGetTransactions_EnvelopeAndInvalidRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transactions":[
			{"amount":10,"transactionType":"expense","category":"Rent","date":"2024-03-01"},
			{"amount":10,"transactionType":"refund","category":"Rent","date":"2024-03-01"}
		]}`))
	}))
	defer srv.Close()

	metrics := observability.NewMetrics()
	txns, err := newClient(srv.URL, metrics).GetTransactions(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected invalid record to be skipped, got %d transactions", len(txns))
	}
	if got := metrics.Snapshot().RejectedRecords; got != 1 {
		t.Errorf("expected 1 rejected record, got %v", got)
	}
}

func TestGetTransactions_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, observability.NewMetrics()).GetTransactions(context.Background(), "ghost")

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single upstream call, got %d", calls.Load())
	}
}

func TestGetTransactions_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	txns, err := newClient(srv.URL, observability.NewMetrics()).GetTransactions(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("expected empty list, got %d", len(txns))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestGetTransactions_ExternalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	metrics := observability.NewMetrics()
	_, err := newClient(srv.URL, metrics).GetTransactions(context.Background(), "cust-1")

	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if got := metrics.Snapshot().ExternalErrors; got != 1 {
		t.Errorf("expected 1 external error, got %v", got)
	}
}

func TestGetTransactions_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, observability.NewMetrics()).GetTransactions(context.Background(), "cust-1")

	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestGetTransactions_CircuitOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := client.NewTransactionsClient(
		&http.Client{Timeout: time.Second},
		srv.URL,
		resilience.NewCircuitBreaker("test", zap.NewNop()),
		resilience.Config{MaxRetries: 0},
		time.UTC,
		nil,
		zap.NewNop(),
	)

	var err error
	for i := 0; i < 6; i++ {
		_, err = c.GetTransactions(context.Background(), "cust-1")
	}

	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen after repeated failures, got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := newClient(srv.URL, nil).Ping(context.Background()); err != nil {
		t.Fatalf("expected healthy upstream, got %v", err)
	}
}

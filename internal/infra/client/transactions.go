package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

const serviceName = "transactions"

// TransactionsClient fetches transaction data from the Transactions API.
type TransactionsClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	loc        *time.Location
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewTransactionsClient creates a new TransactionsClient. Plain dates in
// upstream records are read in loc.
func NewTransactionsClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, loc *time.Location, metrics *observability.Metrics, logger *zap.Logger) *TransactionsClient {
	if loc == nil {
		loc = time.Local
	}
	return &TransactionsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		loc:        loc,
		metrics:    metrics,
		logger:     logger,
	}
}

// Name identifies the client in health reports.
func (c *TransactionsClient) Name() string { return "transactions-api" }

// GetTransactions fetches customer transactions with retry, circuit breaker, and tracing.
// Records that fail validation are skipped and counted.
func (c *TransactionsClient) GetTransactions(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionsClient.GetTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	records, err := resilience.Execute(ctx, c.cb, c.cfg, func(ctx context.Context) ([]domain.TransactionRecord, error) {
		return c.fetch(ctx, customerID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, c.wrapError(customerID, err)
	}

	txns, rejected := domain.NormalizeRecords(records, c.loc)
	for _, r := range rejected {
		c.logger.Warn("transactions: skipping invalid record",
			zap.String("customer_id", customerID),
			zap.Int("index", r.Index),
			zap.String("field", r.Err.Field),
			zap.String("reason", r.Err.Message),
		)
		if c.metrics != nil {
			c.metrics.IncrRejectedRecord(serviceName, r.Err.Field)
		}
	}
	span.SetAttributes(
		attribute.Int("transactions.count", len(txns)),
		attribute.Int("transactions.rejected", len(rejected)),
	)

	return txns, nil
}

func (c *TransactionsClient) fetch(ctx context.Context, customerID string) ([]domain.TransactionRecord, error) {
	endpoint := fmt.Sprintf("%s/v1/customers/%s/transactions", c.baseURL, url.PathEscape(customerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, resilience.Permanent(&domain.ErrNotFound{Resource: "transactions", ID: customerID})
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, resilience.Permanent(fmt.Errorf("transactions API returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transactions API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(body)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	return records, nil
}

// decodeRecords accepts either a bare JSON array or {"transactions": [...]}.
func decodeRecords(body []byte) ([]domain.TransactionRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []domain.TransactionRecord{}, nil
	}

	var records []domain.TransactionRecord
	if body[0] == '{' {
		var envelope struct {
			Transactions []domain.TransactionRecord `json:"transactions"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decode transactions envelope: %w", err)
		}
		records = envelope.Transactions
	} else if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	if records == nil {
		records = []domain.TransactionRecord{}
	}
	return records, nil
}

func (c *TransactionsClient) wrapError(customerID string, err error) error {
	var notFound *domain.ErrNotFound
	switch {
	case errors.As(err, &notFound):
		return notFound
	case resilience.IsBreakerRejection(err):
		if c.metrics != nil {
			c.metrics.IncrExternalError(serviceName)
		}
		return &domain.ErrCircuitOpen{Service: serviceName}
	case errors.Is(err, context.DeadlineExceeded):
		if c.metrics != nil {
			c.metrics.IncrExternalError(serviceName)
		}
		return &domain.ErrTimeout{Operation: "fetch transactions for " + customerID}
	default:
		if c.metrics != nil {
			c.metrics.IncrExternalError(serviceName)
		}
		return &domain.ErrExternalService{Service: serviceName, Err: err}
	}
}

// Ping checks that the Transactions API answers its health endpoint.
func (c *TransactionsClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("transactions API health returned %d", resp.StatusCode)
	}
	return nil
}

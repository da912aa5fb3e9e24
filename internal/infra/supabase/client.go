// Package supabase reads customer transactions from a Supabase project
// through its PostgREST API.
package supabase

import (
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

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

const (
	serviceName     = "supabase/transactions"
	defaultPageSize = 1000
)

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	pageSize       int
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	loc            *time.Location
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, loc *time.Location, metrics *observability.Metrics, logger *zap.Logger) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		pageSize:       defaultPageSize,
		cb:             cb,
		cfg:            cfg,
		loc:            loc,
		metrics:        metrics,
		logger:         logger,
	}
}

// WithPageSize overrides how many rows are requested per page.
func (c *Client) WithPageSize(n int) *Client {
	if n > 0 {
		c.pageSize = n
	}
	return c
}

// Name identifies the client in health reports.
func (c *Client) Name() string { return "supabase" }

// doRequest executes an authenticated GET against PostgREST.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		err := fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode < 500 {
			return nil, resilience.Permanent(err)
		}
		return nil, err
	}

	c.logger.Debug("supabase: request OK", zap.String("path", path), zap.Int("status", resp.StatusCode))
	return body, nil
}

// transactionRow maps the transactions table columns.
type transactionRow struct {
	ID              string           `json:"id"`
	CustomerID      string           `json:"customer_id"`
	Amount          *decimal.Decimal `json:"amount"`
	TransactionType string           `json:"transaction_type"`
	Category        string           `json:"category"`
	Date            string           `json:"date"`
	Description     string           `json:"description"`
}

func (r transactionRow) record() domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:              r.ID,
		Amount:          r.Amount,
		TransactionType: r.TransactionType,
		Category:        r.Category,
		Date:            r.Date,
		Description:     r.Description,
	}
}

// GetTransactions fetches every transaction of a customer, page by page.
func (c *Client) GetTransactions(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	var records []domain.TransactionRecord
	for offset := 0; ; offset += c.pageSize {
		page, err := resilience.Execute(ctx, c.cb, c.cfg, func(ctx context.Context) ([]transactionRow, error) {
			return c.fetchPage(ctx, customerID, offset)
		})
		if err != nil {
			span.RecordError(err)
			return nil, c.wrapError(err)
		}
		for _, row := range page {
			records = append(records, row.record())
		}
		if len(page) < c.pageSize {
			break
		}
	}

	txns, rejected := domain.NormalizeRecords(records, c.loc)
	for _, r := range rejected {
		c.logger.Warn("supabase: skipping invalid transaction row",
			zap.String("customer_id", customerID),
			zap.Int("index", r.Index),
			zap.String("field", r.Err.Field),
			zap.String("reason", r.Err.Message),
		)
		if c.metrics != nil {
			c.metrics.IncrRejectedRecord(serviceName, r.Err.Field)
		}
	}
	span.SetAttributes(attribute.Int("transactions.count", len(txns)))

	return txns, nil
}

func (c *Client) fetchPage(ctx context.Context, customerID string, offset int) ([]transactionRow, error) {
	q := url.Values{}
	q.Set("customer_id", "eq."+customerID)
	q.Set("select", "id,customer_id,amount,transaction_type,category,date,description")
	q.Set("order", "date.desc,id.desc")
	q.Set("limit", fmt.Sprint(c.pageSize))
	q.Set("offset", fmt.Sprint(offset))

	body, err := c.doRequest(ctx, "transactions?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("decode transactions: %w", err))
	}
	return rows, nil
}

func (c *Client) wrapError(err error) error {
	if c.metrics != nil {
		c.metrics.IncrExternalError(serviceName)
	}
	switch {
	case resilience.IsBreakerRejection(err):
		return &domain.ErrCircuitOpen{Service: serviceName}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: "supabase transactions query"}
	default:
		return &domain.ErrExternalService{Service: serviceName, Err: err}
	}
}

// Ping issues a one-row query to check connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, "transactions?select=id&limit=1")
	return err
}

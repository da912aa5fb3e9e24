// Package service holds the dashboard business logic: aggregation of a
// transaction list, rendering of the six dashboard cards, and the
// orchestration that fetches, caches and measures each request.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/resilience"
	"github.com/boddenberg/finance-dashboard-go/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

const (
	transactionsCache = "transactions"
	maxCustomerIDLen  = 128
	maxBatchLists     = 50

	sourceCustomer = "customer"
	sourceAdhoc    = "adhoc"
	sourceBatch    = "batch"
)

// DashboardOptions configures a DashboardService.
type DashboardOptions struct {
	DefaultBudget  decimal.Decimal
	CurrencySymbol string
	Location       *time.Location
	MaxConcurrency int
	Now            func() time.Time
}

// DashboardQuery carries the per-request overrides.
type DashboardQuery struct {
	Budget   *decimal.Decimal // nil uses the configured default
	Currency string           // empty uses the configured symbol
	Refresh  bool             // bypass the transactions cache
}

// DashboardService orchestrates fetching, aggregation and rendering.
type DashboardService struct {
	fetcher  port.TransactionsFetcher
	cache    port.Cache[[]domain.Transaction]
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
	opts     DashboardOptions
}

// NewDashboardService creates a new dashboard service. cache and metrics may be nil.
func NewDashboardService(
	fetcher port.TransactionsFetcher,
	cache port.Cache[[]domain.Transaction],
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts DashboardOptions,
) *DashboardService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 8
	}
	return &DashboardService{
		fetcher:  fetcher,
		cache:    cache,
		bulkhead: resilience.NewBulkhead(opts.MaxConcurrency),
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
	}
}

// GetDashboard renders the dashboard of a stored customer.
func (s *DashboardService) GetDashboard(ctx context.Context, customerID string, q DashboardQuery) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.GetDashboard")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	start := time.Now()
	defer func() { s.recordDuration("get_dashboard", time.Since(start)) }()

	sum, err := s.summarizeCustomer(ctx, customerID, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	d := s.render(sum, customerID, q)
	s.recordDashboard(sourceCustomer, sum)
	span.SetAttributes(attribute.Bool("budget.exceeded", sum.BudgetExceeded))

	s.logger.Info("dashboard rendered",
		zap.String("customer_id", customerID),
		zap.Int("transactions", sum.TotalCount),
		zap.Bool("budget_exceeded", sum.BudgetExceeded),
	)
	return d, nil
}

// GetSummary returns the unrounded statistics of a stored customer.
func (s *DashboardService) GetSummary(ctx context.Context, customerID string, q DashboardQuery) (*domain.Summary, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.GetSummary")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	start := time.Now()
	defer func() { s.recordDuration("get_summary", time.Since(start)) }()

	sum, err := s.summarizeCustomer(ctx, customerID, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return sum, nil
}

// BuildDashboard renders a caller-supplied transaction list.
// The list is rejected as a whole if any record is invalid.
func (s *DashboardService) BuildDashboard(ctx context.Context, records []domain.TransactionRecord, q DashboardQuery) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.BuildDashboard")
	defer span.End()
	span.SetAttributes(attribute.Int("records.count", len(records)))

	start := time.Now()
	defer func() { s.recordDuration("build_dashboard", time.Since(start)) }()

	budget, err := s.resolveBudget(q)
	if err != nil {
		return nil, err
	}

	d, err := s.buildFromRecords(ctx, sourceAdhoc, "transactions", records, budget, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return d, nil
}

// BuildDashboards renders several named lists concurrently. It fails as a
// whole on the first invalid list.
func (s *DashboardService) BuildDashboards(ctx context.Context, batch map[string][]domain.TransactionRecord, q DashboardQuery) (map[string]*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.BuildDashboards")
	defer span.End()
	span.SetAttributes(attribute.Int("lists.count", len(batch)))

	start := time.Now()
	defer func() { s.recordDuration("build_dashboards", time.Since(start)) }()

	if len(batch) == 0 {
		return nil, &domain.ErrValidation{Field: "lists", Message: "at least one list is required"}
	}
	if len(batch) > maxBatchLists {
		return nil, &domain.ErrValidation{Field: "lists", Message: fmt.Sprintf("at most %d lists are allowed", maxBatchLists)}
	}

	budget, err := s.resolveBudget(q)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(batch))
	for name := range batch {
		if name == "" {
			return nil, &domain.ErrValidation{Field: "lists", Message: "list names must not be empty"}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		mu  sync.Mutex
		out = make(map[string]*domain.Dashboard, len(batch))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		records := batch[name]
		g.Go(func() error {
			return s.bulkhead.Do(gctx, func() error {
				d, err := s.buildFromRecords(gctx, sourceBatch, fmt.Sprintf("lists.%s", name), records, budget, q)
				if err != nil {
					return err
				}
				mu.Lock()
				out[name] = d
				mu.Unlock()
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// InvalidateCustomer drops the cached transactions of customerID.
func (s *DashboardService) InvalidateCustomer(customerID string) {
	if s.cache != nil {
		s.cache.Delete(customerID)
	}
}

// buildFromRecords renders one caller-supplied list. source labels its
// metrics; field prefixes validation errors.
func (s *DashboardService) buildFromRecords(ctx context.Context, source, field string, records []domain.TransactionRecord, budget decimal.Decimal, q DashboardQuery) (*domain.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txns, rejected := domain.NormalizeRecords(records, s.opts.Location)
	if len(rejected) > 0 {
		for _, r := range rejected {
			if s.metrics != nil {
				s.metrics.IncrRejectedRecord(source, r.Err.Field)
			}
		}
		first := rejected[0]
		s.logger.Warn("rejecting transaction list",
			zap.String("list", field),
			zap.Int("invalid_records", len(rejected)),
			zap.Int("first_index", first.Index),
			zap.String("first_field", first.Err.Field),
		)
		return nil, &domain.ErrValidation{
			Field:   fmt.Sprintf("%s[%d].%s", field, first.Index, first.Err.Field),
			Message: first.Err.Message,
		}
	}

	sum := Aggregate(txns, s.now(), budget)
	s.recordDashboard(source, sum)
	return s.render(sum, "", q), nil
}

func (s *DashboardService) summarizeCustomer(ctx context.Context, customerID string, q DashboardQuery) (*domain.Summary, error) {
	if customerID == "" {
		return nil, &domain.ErrValidation{Field: "customerId", Message: "required"}
	}
	if len(customerID) > maxCustomerIDLen {
		return nil, &domain.ErrValidation{Field: "customerId", Message: fmt.Sprintf("must be at most %d characters", maxCustomerIDLen)}
	}

	budget, err := s.resolveBudget(q)
	if err != nil {
		return nil, err
	}

	txns, err := s.transactions(ctx, customerID, q.Refresh)
	if err != nil {
		return nil, err
	}
	return Aggregate(txns, s.now(), budget), nil
}

// transactions reads through the cache unless refresh is set.
func (s *DashboardService) transactions(ctx context.Context, customerID string, refresh bool) ([]domain.Transaction, error) {
	if s.cache != nil && !refresh {
		if txns, ok := s.cache.Get(customerID); ok {
			if s.metrics != nil {
				s.metrics.IncrCacheHit(transactionsCache)
			}
			return txns, nil
		}
		if s.metrics != nil {
			s.metrics.IncrCacheMiss(transactionsCache)
		}
	}

	txns, err := s.fetcher.GetTransactions(ctx, customerID)
	if err != nil {
		s.logger.Error("failed to fetch transactions",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(customerID, txns)
	}
	return txns, nil
}

func (s *DashboardService) resolveBudget(q DashboardQuery) (decimal.Decimal, error) {
	if q.Budget == nil {
		return s.opts.DefaultBudget, nil
	}
	if !q.Budget.IsPositive() {
		return decimal.Zero, &domain.ErrValidation{Field: "budget", Message: "must be positive"}
	}
	return *q.Budget, nil
}

func (s *DashboardService) render(sum *domain.Summary, customerID string, q DashboardQuery) *domain.Dashboard {
	currency := s.opts.CurrencySymbol
	if q.Currency != "" {
		currency = q.Currency
	}
	return Render(sum, RenderOptions{
		CustomerID:     customerID,
		CurrencySymbol: currency,
		GeneratedAt:    s.now().UTC(),
	})
}

func (s *DashboardService) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *DashboardService) recordDuration(op string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordRequestDuration(op, d)
	}
}

func (s *DashboardService) recordDashboard(source string, sum *domain.Summary) {
	if s.metrics == nil {
		return
	}
	ratio := sum.BudgetUsagePercent.Div(hundred).InexactFloat64()
	s.metrics.RecordDashboard(source, ratio, sum.BudgetExceeded)
}

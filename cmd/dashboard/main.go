package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/config"
	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/boddenberg/finance-dashboard-go/internal/handler"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/cache"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/client"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/resilience"
	"github.com/boddenberg/finance-dashboard-go/internal/infra/supabase"
	"github.com/boddenberg/finance-dashboard-go/internal/port"
	"github.com/boddenberg/finance-dashboard-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Float64("monthly_budget", cfg.MonthlyBudget),
		zap.String("timezone", loc.String()),
		zap.Bool("auth_enabled", cfg.AuthEnabled),
	)

	// --- Tracing ---
	endpoint := ""
	if cfg.TracingEnabled {
		endpoint = cfg.OTLPEndpoint
	}
	shutdown, err := observability.InitTracer(context.Background(), endpoint, "finance-dashboard")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	txCache := cache.New[[]domain.Transaction](cfg.CacheTTL)
	defer txCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("transactions-source", logger)

	// --- Transactions source ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var fetcher port.TransactionsFetcher
	var checker port.HealthChecker

	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as transactions source",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		sb := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			loc,
			metrics,
			logger,
		)
		fetcher, checker = sb, sb
	} else {
		logger.Info("using transactions API as source",
			zap.String("url", cfg.TransactionsAPIURL),
		)
		tc := client.NewTransactionsClient(httpClient, cfg.TransactionsAPIURL, cb, resilienceCfg, loc, metrics, logger)
		fetcher, checker = tc, tc
	}

	// --- Services ---
	dashboardSvc := service.NewDashboardService(fetcher, txCache, metrics, logger, service.DashboardOptions{
		DefaultBudget:  decimal.NewFromFloat(cfg.MonthlyBudget),
		CurrencySymbol: cfg.CurrencySymbol,
		Location:       loc,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	var verifier *service.TokenVerifier
	if cfg.AuthEnabled {
		verifier = service.NewTokenVerifier(cfg.JWTSecret, 0)
		logger.Info("JWT auth enabled for customer routes")
	} else {
		logger.Warn("JWT auth disabled: customer dashboards are readable without a token")
	}

	// --- Router ---
	router := handler.NewRouter(dashboardSvc, verifier, []port.HealthChecker{checker}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

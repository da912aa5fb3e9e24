package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestMetricsSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.RecordDashboard("customer", 0.4, false)
	m.RecordDashboard("adhoc", 1.3, true)
	m.IncrCacheHit("transactions")
	m.IncrCacheHit("transactions")
	m.IncrCacheHit("transactions")
	m.IncrCacheMiss("transactions")
	m.IncrRejectedRecord("http", "amount")
	m.IncrExternalError("transactions")
	m.RecordRequestDuration("GetDashboard", 20*time.Millisecond)
	m.RecordRequestDuration("GetDashboard", 40*time.Millisecond)

	snap := m.Snapshot()

	if snap.DashboardsRendered != 2 {
		t.Errorf("expected 2 dashboards, got %v", snap.DashboardsRendered)
	}
	if snap.BudgetExceeded != 1 {
		t.Errorf("expected 1 exceeded budget, got %v", snap.BudgetExceeded)
	}
	if snap.RejectedRecords != 1 {
		t.Errorf("expected 1 rejected record, got %v", snap.RejectedRecords)
	}
	if snap.ExternalErrors != 1 {
		t.Errorf("expected 1 external error, got %v", snap.ExternalErrors)
	}
	if snap.CacheHitRate != 0.75 {
		t.Errorf("expected hit rate 0.75, got %v", snap.CacheHitRate)
	}
	if snap.AvgLatencyMs < 29 || snap.AvgLatencyMs > 31 {
		t.Errorf("expected avg latency ~30ms, got %v", snap.AvgLatencyMs)
	}
}

func TestMetricsSnapshot_Empty(t *testing.T) {
	snap := observability.NewMetrics().Snapshot()

	if snap.DashboardsRendered != 0 || snap.CacheHitRate != 0 || snap.AvgLatencyMs != 0 {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
	if snap.Period != "all_time" {
		t.Errorf("expected all_time period, got %q", snap.Period)
	}
}

func TestZapLoggerMiddleware_RecordsRoute(t *testing.T) {
	m := observability.NewMetrics()

	r := chi.NewRouter()
	r.Use(observability.ZapLoggerMiddleware(zap.NewNop(), m))
	r.Get("/v1/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/items/42", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() != "dashboard_http_request_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["route"] == "/v1/items/{id}" && labels["status"] == "418" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected request to be recorded under its route pattern")
	}
}

func TestInitTracer_NoExporter(t *testing.T) {
	shutdown, err := observability.InitTracer(context.Background(), "", "dashboard-test")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer shutdown(context.Background())

	var gotTraceID trace.TraceID
	h := observability.TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceID = trace.SpanContextFromContext(r.Context()).TraceID()
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotTraceID.String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("expected propagated trace id, got %s", gotTraceID)
	}
}

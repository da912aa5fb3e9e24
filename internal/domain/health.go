package domain

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// DashboardMetrics is returned by GET /v1/metrics/dashboard.
type DashboardMetrics struct {
	DashboardsRendered float64 `json:"dashboardsRendered"`
	BudgetExceeded     float64 `json:"budgetExceeded"`
	RejectedRecords    float64 `json:"rejectedRecords"`
	ExternalErrors     float64 `json:"externalErrors"`
	CacheHitRate       float64 `json:"cacheHitRate"`
	AvgLatencyMs       float64 `json:"avgLatencyMs"`
	Period             string  `json:"period"`
}

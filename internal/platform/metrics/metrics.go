package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	IssuesFound    *prometheus.CounterVec
	RepairsApplied *prometheus.CounterVec
	RepairErrors   *prometheus.CounterVec
	ScanDuration   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IssuesFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterd_sanity_issues_found_total",
			Help: "Total discrepancies reported by sanity check scans",
		}, []string{"check"}),
		RepairsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterd_sanity_repairs_applied_total",
			Help: "Total per-person repairs applied successfully",
		}, []string{"check"}),
		RepairErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterd_sanity_repair_errors_total",
			Help: "Total per-person repairs that reported an error",
		}, []string{"check"}),
		ScanDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rosterd_sanity_scan_duration_seconds",
			Help:    "Latency of sanity check issue scans",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"check"}),
	}
}

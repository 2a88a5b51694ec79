// Package telemetry provides application-level observability for BottleCRM.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and served on
// the side-channel HTTP server started by cmd/server:
//
//	GET http://<host>:<BCRM_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not mounted on the API router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Lead conversion outcomes
//   - CRM record creation counters by entity
//   - Database connection pool gauge (polled every 30 s)
//
// HTTP metrics use c.FullPath() (route template such as /api/leads/:id) rather than
// the raw request URL so record ids never become label values.
package telemetry

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Error rate (%):       sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route: histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Lead conversion outcomes.
const (
	ConversionConverted        = "converted"
	ConversionAlreadyConverted = "already_converted"
	ConversionNotFound         = "not_found"
	ConversionFailed           = "failed"
)

// LeadConversionsTotal counts conversion attempts by outcome. A rising "failed"
// series means conversions are being rolled back.
//
// Example PromQL queries:
//   - Conversion rate: sum(rate(lead_conversions_total{outcome="converted"}[1h]))
//   - Failure alert:   increase(lead_conversions_total{outcome="failed"}[15m]) > 0
var LeadConversionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lead_conversions_total",
		Help: "Total number of lead conversion attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RecordsCreatedTotal counts CRM records created, by entity
// (lead, contact, account, opportunity, task, case, comment, organization).
var RecordsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crm_records_created_total",
		Help: "Total number of CRM records created, by entity.",
	},
	[]string{"entity"},
)

// DBOpenConnections tracks the number of open connections held by the pool.
// It is sampled every 30 seconds by StartDBStatsCollector.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector samples pool statistics every interval until ctx is done
// or the database becomes unreachable. Call it once after the pool is opened.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := db.PingContext(ctx); err != nil {
					slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
					return
				}
				DBOpenConnections.Set(float64(db.Stats().OpenConnections))
			}
		}
	}()
}

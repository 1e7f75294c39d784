// Package metrics exposes Prometheus instrumentation for click ingestion
// and the HTTP layer.
//
// Metrics are served at /metrics in Prometheus text format.
//
// Click metrics:
//   - utm_clicks_ingested_total: ingestion attempts (counter)
//     Labels: outcome (recorded, not_found, invalid, error)
//   - utm_ingest_duration_seconds: ingestion latency (histogram)
//   - utm_counter_skips_total: counter increments skipped because the link vanished (counter)
//
// HTTP metrics:
//   - utm_http_requests_total: requests served (counter)
//     Labels: method, route, status
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
)

// Ingestion outcomes.
const (
	OutcomeRecorded = "recorded"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

var (
	ClicksIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "utm_clicks_ingested_total",
			Help: "Click ingestion attempts by outcome",
		},
		[]string{"outcome"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "utm_ingest_duration_seconds",
			Help:    "Duration of click ingestion including the store transaction",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)

	CounterSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "utm_counter_skips_total",
			Help: "Counter increments skipped because the link no longer existed",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "utm_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)
)

// RecordIngest records the outcome and latency of one ingestion.
func RecordIngest(start time.Time, err error) {
	IngestDuration.Observe(time.Since(start).Seconds())
	ClicksIngested.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeRecorded
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// RecordHTTPRequest counts one served request.
func RecordHTTPRequest(method, route string, status int) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

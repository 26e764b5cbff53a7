// Package metrics documents the Prometheus metrics exposed by the
// epstein-search client. All metrics are defined next to the code that
// records them (pkg/client) via promauto; this package is the reference for
// what is available.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client. All
// metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Request metrics (pkg/client):
//   - library_requests_total{endpoint, status} (Counter): requests by
//     endpoint and HTTP status ("network_error" for transport failures)
//   - library_request_duration_seconds{endpoint} (Histogram): request
//     duration by endpoint
//   - library_errors_total{class} (Counter): errors by class
//     (client, server, network)
//
// Retry metrics (pkg/client):
//   - library_retries_total{error_class} (Counter): retry attempts
//   - library_retry_backoff_seconds{error_class} (Histogram): backoff
//     durations actually slept
//   - library_retry_exhausted_total{error_class} (Counter): requests that
//     ran out of attempts
//
// Example Prometheus queries:
//
//   # Request error rate
//   rate(library_errors_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(library_request_duration_seconds_bucket[5m]))

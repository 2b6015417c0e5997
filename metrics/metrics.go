// Package metrics exposes the proxy's Prometheus counters/histograms
// and the per-request correlation helper used to tie a structured log
// line to a trace id. Grounded on the teacher's
// server/middleware/registry.go (CounterVec construction style,
// namespace/subsystem convention, init-time MustRegister) and
// metrics/request_info.go (per-request correlation value), adapted
// from HTTP-middleware metadata to the raw-socket proxy's own
// cache/upstream/blacklist outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relayhttp/relay/internal/constants"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Subsystem: "proxy",
		Name:      "requests_total",
		Help:      "Total requests handled, labeled by method and cache status.",
	}, []string{"method", "cache_status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: constants.AppName,
		Subsystem: "proxy",
		Name:      "request_duration_seconds",
		Help:      "Request handling latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "cache_status"})

	blacklistRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Subsystem: "proxy",
		Name:      "blacklist_rejections_total",
		Help:      "Total requests rejected because the target host/IP was blacklisted.",
	})

	upstreamErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Subsystem: "proxy",
		Name:      "upstream_errors_total",
		Help:      "Total upstream connect/read failures.",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, blacklistRejections, upstreamErrors)
}

// Recorder is the handle internal/proxyconn records request,
// blacklist and upstream outcomes through. Every Recorder writes to
// the same package-level Prometheus collectors.
type Recorder struct{}

// NewRecorder returns a Recorder backed by the package-level
// Prometheus collectors.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ObserveRequest records one completed request's method, cache
// status, and latency. The target URL is deliberately not a label —
// it is unbounded cardinality and belongs in the per-request log line
// instead.
func (r *Recorder) ObserveRequest(method, cacheStatus string, duration time.Duration) {
	requestsTotal.WithLabelValues(method, cacheStatus).Inc()
	requestDuration.WithLabelValues(method, cacheStatus).Observe(duration.Seconds())
}

// ObserveBlacklistRejection records one 403 issued for a blacklisted
// host/IP.
func (r *Recorder) ObserveBlacklistRejection() {
	blacklistRejections.Inc()
}

// ObserveUpstreamError records one upstream connect/read failure.
func (r *Recorder) ObserveUpstreamError() {
	upstreamErrors.Inc()
}

package metrics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type requestMetricKey struct{}

// RequestMetric correlates one connection handler's request/response
// cycle across its log lines, the way the teacher's
// metrics.RequestMetric correlates one net/http request. Adapted to
// the raw-socket proxy: there is no inbound http.Header to carry a
// request id, so TraceID is always minted locally rather than parsed
// from a header.
type RequestMetric struct {
	StartAt     time.Time
	TraceID     string
	ThreadID    uint64
	RemoteAddr  string
	Method      string
	URL         string
	CacheStatus string
}

// WithRequestMetric builds a RequestMetric for one request on the
// connection identified by threadID/remoteAddr, and attaches it to ctx
// for later retrieval via FromContext.
func WithRequestMetric(ctx context.Context, threadID uint64, remoteAddr string) (context.Context, *RequestMetric) {
	metric := &RequestMetric{
		StartAt:    time.Now(),
		TraceID:    uuid.NewString(),
		ThreadID:   threadID,
		RemoteAddr: remoteAddr,
	}
	return context.WithValue(ctx, requestMetricKey{}, metric), metric
}

// FromContext returns the RequestMetric attached to ctx, or a
// zero-value one if none was attached.
func FromContext(ctx context.Context) *RequestMetric {
	if v, ok := ctx.Value(requestMetricKey{}).(*RequestMetric); ok {
		return v
	}
	return &RequestMetric{}
}

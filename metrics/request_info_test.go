package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRequestMetricAttachesTraceIDAndFields(t *testing.T) {
	ctx, rm := WithRequestMetric(context.Background(), 7, "127.0.0.1:5555")

	assert.NotEmpty(t, rm.TraceID)
	assert.Equal(t, uint64(7), rm.ThreadID)
	assert.Equal(t, "127.0.0.1:5555", rm.RemoteAddr)
	assert.False(t, rm.StartAt.IsZero())

	assert.Same(t, rm, FromContext(ctx))
}

func TestWithRequestMetricMintsDistinctTraceIDs(t *testing.T) {
	_, a := WithRequestMetric(context.Background(), 1, "")
	_, b := WithRequestMetric(context.Background(), 2, "")

	assert.NotEqual(t, a.TraceID, b.TraceID)
}

func TestFromContextWithoutMetricReturnsZeroValue(t *testing.T) {
	rm := FromContext(context.Background())
	assert.Empty(t, rm.TraceID)
	assert.Zero(t, rm.ThreadID)
}

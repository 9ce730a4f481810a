// internal/common/metrics/metrics_test.go
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStage(t *testing.T) {
	before := testutil.ToFloat64(StageTotal.WithLabelValues("search_hotels", OutcomeDegraded))

	ObserveStage("search_hotels", OutcomeDegraded, 120*time.Millisecond)

	after := testutil.ToFloat64(StageTotal.WithLabelValues("search_hotels", OutcomeDegraded))
	assert.Equal(t, before+1, after)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(StageDuration), 1)
}

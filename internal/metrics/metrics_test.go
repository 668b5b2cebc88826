package metrics_test

import (
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/asehra/shuttle-pool/backend/internal/metrics"
	"github.com/asehra/shuttle-pool/backend/internal/service"
)

var _ service.Metrics = (*metrics.Collector)(nil)

func TestCollector_Counters(t *testing.T) {
	c := metrics.NewCollector()

	c.RequestsExpiredAdd(3)
	c.RemindersSentInc()
	c.RemindersSentInc()
	c.SendFailuresInc()
	c.BroadcastsInc()

	assert.Equal(t, 3.0, promtestutil.ToFloat64(c.RequestsExpired))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(c.RemindersSent))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.SendFailures))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.Broadcasts))
}

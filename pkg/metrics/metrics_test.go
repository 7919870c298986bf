package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.ObservePoll(200*time.Millisecond, false)
	c.ObservePoll(time.Second, true)
	c.Published(12, 1, 3)
	c.Consumed(true)
	c.Consumed(false)
	c.SetVehiclesTracked(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Polls))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PollFailures))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.VehiclesPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PublishErrors))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.VehiclesSkipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.MessagesConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DecodeErrors))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.VehiclesTracked))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.ObservePoll(time.Second, true)
		c.Published(1, 1, 1)
		c.Consumed(false)
		c.SetVehiclesTracked(1)
		c.SetGTFSLoadDuration(time.Second)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.SetGTFSLoadDuration(1500 * time.Millisecond)

	recorder := httptest.NewRecorder()
	c.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(recorder.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tracker_gtfs_load_duration_seconds 1.5")
	assert.Contains(t, string(body), "tracker_polls_total 0")
}

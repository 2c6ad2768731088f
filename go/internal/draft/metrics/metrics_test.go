package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)

	m.RecordPick(PickManual)
	m.RecordPick(PickAuto)
	m.RecordPick(PickAuto)
	m.RecordRejection("NOT_YOUR_TURN")
	m.RecordCommissionerAction("undo_pick")
	m.RecordClockExpiry()
	m.DraftActivated()
	m.DraftActivated()
	m.DraftReleased()
	m.ConnectionOpened()
	m.RecordPersistFailure()
	m.RecordEventPublished("PickMade", true, 5*time.Millisecond)
	m.RecordOutboxLag(7)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.picks.WithLabelValues(PickManual)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.picks.WithLabelValues(PickAuto)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("NOT_YOUR_TURN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commissioner.WithLabelValues("undo_pick")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clockExpiries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeDrafts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("PickMade", "success")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.outboxLag))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)
	m.RecordPick(PickForced)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `draft_picks_total{kind="forced"} 1`)
}

func TestNoOp(t *testing.T) {
	var c Collector = NoOp{}
	assert.NotPanics(t, func() {
		c.RecordPick(PickManual)
		c.DraftActivated()
		c.RecordEventPublished("x", false, time.Second)
	})
}

// Package metrics exposes draft engine counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pick kinds recorded by RecordPick.
const (
	PickManual = "manual"
	PickAuto   = "auto"
	PickForced = "forced"
)

// Collector is what the engine, broadcaster and outbox report to.
type Collector interface {
	RecordPick(kind string)
	RecordRejection(reason string)
	RecordCommissionerAction(action string)
	RecordClockExpiry()
	DraftActivated()
	DraftReleased()
	ConnectionOpened()
	ConnectionClosed()
	RecordPersistFailure()
	RecordEventPublished(eventType string, success bool, duration time.Duration)
	RecordOutboxLag(lag int)
}

// NoOp discards everything. It is the default when no registry is configured.
type NoOp struct{}

func (NoOp) RecordPick(string)                                {}
func (NoOp) RecordRejection(string)                           {}
func (NoOp) RecordCommissionerAction(string)                  {}
func (NoOp) RecordClockExpiry()                               {}
func (NoOp) DraftActivated()                                  {}
func (NoOp) DraftReleased()                                   {}
func (NoOp) ConnectionOpened()                                {}
func (NoOp) ConnectionClosed()                                {}
func (NoOp) RecordPersistFailure()                            {}
func (NoOp) RecordEventPublished(string, bool, time.Duration) {}
func (NoOp) RecordOutboxLag(int)                              {}

// Prometheus implements Collector with client_golang collectors.
type Prometheus struct {
	picks           *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	commissioner    *prometheus.CounterVec
	clockExpiries   prometheus.Counter
	activeDrafts    prometheus.Gauge
	connections     prometheus.Gauge
	persistFailures prometheus.Counter
	eventsPublished *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	outboxLag       prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		picks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draft_picks_total",
			Help: "Picks recorded, by kind",
		}, []string{"kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draft_pick_rejections_total",
			Help: "Rejected picks, by reason",
		}, []string{"reason"}),
		commissioner: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draft_commissioner_actions_total",
			Help: "Commissioner actions executed, by type",
		}, []string{"action"}),
		clockExpiries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draft_clock_expiries_total",
			Help: "Pick clocks that ran out",
		}),
		activeDrafts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "draft_active_drafts",
			Help: "Drafts currently held in memory",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "draft_websocket_connections",
			Help: "Open websocket connections",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draft_persist_failures_total",
			Help: "Failed draft state writes",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draft_outbox_events_published_total",
			Help: "Outbox events published to the bus, by type and status",
		}, []string{"event_type", "status"}),
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "draft_outbox_publish_duration_seconds",
			Help:    "Time to publish one outbox event",
			Buckets: prometheus.DefBuckets,
		}, []string{"event_type"}),
		outboxLag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "draft_outbox_lag",
			Help: "Unsent outbox rows seen in the last batch",
		}),
	}

	reg.MustRegister(
		m.picks,
		m.rejections,
		m.commissioner,
		m.clockExpiries,
		m.activeDrafts,
		m.connections,
		m.persistFailures,
		m.eventsPublished,
		m.publishDuration,
		m.outboxLag,
	)
	return m
}

func (m *Prometheus) RecordPick(kind string)        { m.picks.WithLabelValues(kind).Inc() }
func (m *Prometheus) RecordRejection(reason string) { m.rejections.WithLabelValues(reason).Inc() }
func (m *Prometheus) RecordCommissionerAction(action string) {
	m.commissioner.WithLabelValues(action).Inc()
}
func (m *Prometheus) RecordClockExpiry()    { m.clockExpiries.Inc() }
func (m *Prometheus) DraftActivated()       { m.activeDrafts.Inc() }
func (m *Prometheus) DraftReleased()        { m.activeDrafts.Dec() }
func (m *Prometheus) ConnectionOpened()     { m.connections.Inc() }
func (m *Prometheus) ConnectionClosed()     { m.connections.Dec() }
func (m *Prometheus) RecordPersistFailure() { m.persistFailures.Inc() }

func (m *Prometheus) RecordEventPublished(eventType string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.eventsPublished.WithLabelValues(eventType, status).Inc()
	m.publishDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

func (m *Prometheus) RecordOutboxLag(lag int) { m.outboxLag.Set(float64(lag)) }

// Handler serves the gathered metrics in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

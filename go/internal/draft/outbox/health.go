package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Connected is satisfied by *nats.Conn.
type Connected interface {
	IsConnected() bool
}

// HealthStatus is the outbox pipeline's health at one instant.
type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	DatabaseConnected bool      `json:"database_connected"`
	NATSConnected     bool      `json:"nats_connected"`
	PendingEvents     int       `json:"pending_events"`
	EventsPublished   uint64    `json:"events_published"`
	LastRelayRun      time.Time `json:"last_relay_run"`
	Errors            []string  `json:"errors"`
}

// HealthChecker reports whether events are flowing from the outbox to NATS.
type HealthChecker struct {
	db      Pinger
	nats    Connected
	store   Store
	relay   *Relay
	maxLag  int
	stale   time.Duration
	nowFunc func() time.Time
}

// NewHealthChecker creates a checker. nats and relay may be nil when events
// are not relayed.
func NewHealthChecker(db Pinger, nats Connected, store Store, relay *Relay, maxLag int, stale time.Duration) *HealthChecker {
	return &HealthChecker{
		db:      db,
		nats:    nats,
		store:   store,
		relay:   relay,
		maxLag:  maxLag,
		stale:   stale,
		nowFunc: time.Now,
	}
}

// Check probes each dependency.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true, Errors: []string{}}
	fail := func(format string, args ...any) {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf(format, args...))
	}

	if err := h.db.PingContext(ctx); err != nil {
		fail("database ping failed: %v", err)
	} else {
		status.DatabaseConnected = true
	}

	if h.nats != nil {
		status.NATSConnected = h.nats.IsConnected()
		if !status.NATSConnected {
			fail("NATS disconnected")
		}
	}

	if status.DatabaseConnected {
		pending, err := h.store.CountUnsent(ctx)
		if err != nil {
			status.Errors = append(status.Errors, fmt.Sprintf("failed to count pending events: %v", err))
		} else {
			status.PendingEvents = pending
			if h.maxLag > 0 && pending > h.maxLag {
				status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", pending))
			}
		}
	}

	if h.relay != nil {
		stats := h.relay.Stats()
		status.EventsPublished = stats.Published
		status.LastRelayRun = stats.LastRun
		if status.PendingEvents > 0 && !stats.LastRun.IsZero() && h.nowFunc().Sub(stats.LastRun) > h.stale {
			fail("relay has not run for %s", h.nowFunc().Sub(stats.LastRun).Round(time.Second))
		}
	}
	return status
}

// ServeHTTP serves GET /health.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)
	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}

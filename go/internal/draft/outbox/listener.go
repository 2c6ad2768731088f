package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// ListenerConfig configures the LISTEN connection that wakes the relay.
type ListenerConfig struct {
	DatabaseURL   string
	NotifyChannel string
	PingInterval  time.Duration
}

// DefaultListenerConfig returns the default listener configuration.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel: "draft_outbox_events",
		PingInterval:  90 * time.Second,
	}
}

// Listener turns Postgres notifications on the outbox channel into relay wake-ups.
type Listener struct {
	listener *pq.Listener
	cfg      ListenerConfig
	wake     chan struct{}
}

// NewListener opens a LISTEN connection.
func NewListener(cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(cfg.DatabaseURL, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Error().Err(err).Msg("outbox listener event")
		}
	})
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}
	log.Info().Str("channel", cfg.NotifyChannel).Msg("listening for outbox notifications")
	return &Listener{listener: l, cfg: cfg, wake: make(chan struct{}, 1)}, nil
}

// Wake fires after one or more notifications arrive.
func (l *Listener) Wake() <-chan struct{} {
	return l.wake
}

// Run forwards notifications until ctx is done, then closes the connection.
func (l *Listener) Run(ctx context.Context) error {
	ping := time.NewTicker(l.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.listener.Close()
		case <-l.listener.Notify:
			// A nil notification follows a reconnect; rows may have been
			// missed, so it wakes the relay too.
			select {
			case l.wake <- struct{}{}:
			default:
			}
		case <-ping.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping outbox listener")
			}
		}
	}
}

package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/rs/zerolog/log"
)

// RelayConfig tunes polling and publish retries.
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
	RetryDelay   time.Duration
}

// DefaultRelayConfig returns the default relay configuration.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// Relay moves unsent outbox records to the publisher. Several relays may run
// against one database; row locks keep them from publishing the same batch.
type Relay struct {
	store     Store
	publisher Publisher
	config    RelayConfig
	metrics   metrics.Collector

	mu        sync.Mutex
	published uint64
	lastRun   time.Time
	lastErr   error
}

// NewRelay creates a relay.
func NewRelay(store Store, publisher Publisher, cfg RelayConfig, m metrics.Collector) *Relay {
	if m == nil {
		m = metrics.NoOp{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultRelayConfig().BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultRelayConfig().PollInterval
	}
	return &Relay{store: store, publisher: publisher, config: cfg, metrics: m}
}

// Run polls every PollInterval and whenever wake fires, until ctx is done.
// wake may be nil.
func (r *Relay) Run(ctx context.Context, wake <-chan struct{}) {
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	log.Info().
		Dur("poll_interval", r.config.PollInterval).
		Int("batch_size", r.config.BatchSize).
		Msg("outbox relay started")

	r.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox relay stopped")
			return
		case <-ticker.C:
			r.drain(ctx)
		case <-wake:
			r.drain(ctx)
		}
	}
}

// drain processes batches until one comes back short or fails to publish.
func (r *Relay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := r.ProcessBatch(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to process outbox batch")
			return
		}
		if n < r.config.BatchSize {
			return
		}
	}
}

// ProcessBatch publishes one batch and returns how many records it published.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	claimed := 0
	var published int
	err := r.store.ClaimUnsent(ctx, r.config.BatchSize, func(records []Record) []uuid.UUID {
		claimed = len(records)
		sent := make([]uuid.UUID, 0, len(records))
		for _, rec := range records {
			if err := r.publishWithRetry(ctx, rec); err != nil {
				log.Error().
					Err(err).
					Str("event_id", rec.ID.String()).
					Str("event_type", string(rec.EventType)).
					Msg("failed to publish outbox event")
				// Later records of the same draft must not overtake this one.
				break
			}
			sent = append(sent, rec.ID)
		}
		published = len(sent)
		return sent
	})

	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastErr = err
	if err == nil {
		r.published += uint64(published)
	}
	r.mu.Unlock()

	if err != nil {
		return published, err
	}
	if lag, err := r.store.CountUnsent(ctx); err == nil {
		r.metrics.RecordOutboxLag(lag)
	}
	if claimed > 0 {
		log.Debug().Int("claimed", claimed).Int("published", published).Msg("processed outbox batch")
	}
	return published, nil
}

func (r *Relay) publishWithRetry(ctx context.Context, rec Record) error {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.RetryDelay * time.Duration(attempt)):
			}
		}

		start := time.Now()
		err := r.publisher.Publish(ctx, rec)
		r.metrics.RecordEventPublished(string(rec.EventType), err == nil, time.Since(start))
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Str("event_id", rec.ID.String()).
			Msg("failed to publish, retrying")
	}
	return fmt.Errorf("publish failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

// RelayStats describes the relay's progress.
type RelayStats struct {
	Published uint64
	LastRun   time.Time
	LastErr   error
}

// Stats returns a snapshot of the relay's progress.
func (r *Relay) Stats() RelayStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RelayStats{Published: r.published, LastRun: r.lastRun, LastErr: r.lastErr}
}

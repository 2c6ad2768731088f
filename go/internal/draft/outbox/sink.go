package outbox

import (
	"context"
	"time"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/rs/zerolog/log"
)

// SinkConfig tunes the sink's buffer and insert retries.
type SinkConfig struct {
	Buffer       int
	MaxRetries   int
	RetryDelay   time.Duration
	DrainTimeout time.Duration
	// Skip lists event types that are not worth keeping.
	Skip []events.EventType
}

// DefaultSinkConfig skips timer ticks, which are only useful live.
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		Buffer:       4096,
		MaxRetries:   3,
		RetryDelay:   200 * time.Millisecond,
		DrainTimeout: 5 * time.Second,
		Skip:         []events.EventType{events.EventTypeTimerTick},
	}
}

// Sink is an engine event subscriber that writes events to the outbox. Handle
// never blocks the engine's dispatcher; inserts happen on Run's goroutine.
type Sink struct {
	store   Store
	config  SinkConfig
	metrics metrics.Collector
	queue   chan Record
	skip    map[events.EventType]bool
}

// NewSink creates a sink over store.
func NewSink(store Store, cfg SinkConfig, m metrics.Collector) *Sink {
	if m == nil {
		m = metrics.NoOp{}
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultSinkConfig().Buffer
	}
	skip := make(map[events.EventType]bool, len(cfg.Skip))
	for _, t := range cfg.Skip {
		skip[t] = true
	}
	return &Sink{
		store:   store,
		config:  cfg,
		metrics: m,
		queue:   make(chan Record, cfg.Buffer),
		skip:    skip,
	}
}

// Handle queues evt for insertion.
func (s *Sink) Handle(evt events.Event) {
	if s.skip[evt.Type] {
		return
	}
	select {
	case s.queue <- FromEvent(evt):
	default:
		log.Error().
			Str("draft_id", evt.DraftID.String()).
			Str("event_type", string(evt.Type)).
			Str("event_id", evt.ID.String()).
			Msg("outbox sink full, dropping event")
		s.metrics.RecordPersistFailure()
	}
}

// Run inserts queued records until ctx is done, then drains what is left.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case rec := <-s.queue:
			s.insert(ctx, rec)
		case <-ctx.Done():
			s.drain()
			return
		}
	}
}

func (s *Sink) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.DrainTimeout)
	defer cancel()
	for {
		select {
		case rec := <-s.queue:
			s.insert(ctx, rec)
		default:
			return
		}
	}
}

func (s *Sink) insert(ctx context.Context, rec Record) {
	var err error
retry:
	for attempt := 1; ; attempt++ {
		if err = s.store.Insert(ctx, rec); err == nil {
			return
		}
		if attempt > s.config.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			break retry
		case <-time.After(s.config.RetryDelay * time.Duration(attempt)):
		}
	}

	s.metrics.RecordPersistFailure()
	log.Error().
		Err(err).
		Str("draft_id", rec.DraftID.String()).
		Str("event_type", string(rec.EventType)).
		Str("event_id", rec.ID.String()).
		Msg("failed to write outbox event")
}

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/rs/zerolog/log"
)

// Persister writes draft snapshots to a Store off the actor goroutines. Only the
// newest snapshot per draft is kept; failed writes are retried with backoff.
type Persister struct {
	store      Store
	metrics    metrics.Collector
	backoff    time.Duration
	maxBackoff time.Duration

	mu      sync.Mutex
	pending map[uuid.UUID]*state.DraftState
	wake    chan struct{}
}

// NewPersister creates a Persister. backoff is the first retry delay.
func NewPersister(store Store, m metrics.Collector, backoff time.Duration) *Persister {
	if m == nil {
		m = metrics.NoOp{}
	}
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	return &Persister{
		store:      store,
		metrics:    m,
		backoff:    backoff,
		maxBackoff: 30 * time.Second,
		pending:    make(map[uuid.UUID]*state.DraftState),
		wake:       make(chan struct{}, 1),
	}
}

// Enqueue schedules s for writing, replacing any older unsaved snapshot of the same draft.
func (p *Persister) Enqueue(s *state.DraftState) {
	p.mu.Lock()
	if cur, ok := p.pending[s.DraftID]; !ok || cur.Version <= s.Version {
		p.pending[s.DraftID] = s
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Pending returns a copy of the unsaved snapshot for draftID, if any.
func (p *Persister) Pending(draftID uuid.UUID) *state.DraftState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending[draftID].Clone()
}

// Backlog is the number of drafts with unsaved snapshots.
func (p *Persister) Backlog() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Run writes snapshots until ctx is cancelled.
func (p *Persister) Run(ctx context.Context) {
	delay := p.backoff
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		}

		for p.flushOnce(ctx) > 0 {
			log.Warn().Dur("retry_in", delay).Int("backlog", p.Backlog()).Msg("draft state writes failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > p.maxBackoff {
				delay = p.maxBackoff
			}
		}
		delay = p.backoff
	}
}

// Flush makes one pass over all pending snapshots and reports how many still failed.
func (p *Persister) Flush(ctx context.Context) int {
	return p.flushOnce(ctx)
}

func (p *Persister) flushOnce(ctx context.Context) int {
	p.mu.Lock()
	batch := make([]*state.DraftState, 0, len(p.pending))
	for _, s := range p.pending {
		batch = append(batch, s)
	}
	p.mu.Unlock()

	failed := 0
	for _, s := range batch {
		if err := p.store.SaveDraftState(ctx, s); err != nil {
			failed++
			p.metrics.RecordPersistFailure()
			log.Error().Err(err).
				Str("draft_id", s.DraftID.String()).
				Int64("version", s.Version).
				Msg("failed to save draft state")
			continue
		}

		p.mu.Lock()
		if p.pending[s.DraftID] == s {
			delete(p.pending, s.DraftID)
		}
		p.mu.Unlock()
	}
	return failed
}

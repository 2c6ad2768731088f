package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
)

type memStore struct {
	mu       sync.Mutex
	records  []Record
	failNext int
}

func (s *memStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return errors.New("connection reset")
	}
	for _, r := range s.records {
		if r.ID == rec.ID {
			return nil
		}
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memStore) ClaimUnsent(_ context.Context, limit int, publish func([]Record) []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var batch []Record
	for _, r := range s.records {
		if r.SentAt == nil && len(batch) < limit {
			batch = append(batch, r)
		}
	}
	if len(batch) == 0 {
		return nil
	}
	now := time.Now()
	for _, id := range publish(batch) {
		for i := range s.records {
			if s.records[i].ID == id {
				s.records[i].SentAt = &now
			}
		}
	}
	return nil
}

func (s *memStore) CountUnsent(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.SentAt == nil {
			n++
		}
	}
	return n, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type recordingPublisher struct {
	mu     sync.Mutex
	sent   []uuid.UUID
	failOn map[uuid.UUID]bool
}

func (p *recordingPublisher) Publish(_ context.Context, rec Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn[rec.ID] {
		return errors.New("nats: timeout")
	}
	p.sent = append(p.sent, rec.ID)
	return nil
}

type outboxMetrics struct {
	metrics.NoOp
	mu              sync.Mutex
	persistFailures int
	published       int
	failed          int
	lag             int
}

func (m *outboxMetrics) RecordPersistFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistFailures++
}

func (m *outboxMetrics) RecordEventPublished(_ string, success bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.published++
	} else {
		m.failed++
	}
}

func (m *outboxMetrics) RecordOutboxLag(lag int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lag = lag
}

func newEvent(draftID uuid.UUID, t events.EventType, version int64) events.Event {
	evt, err := events.New(draftID, t, version, time.Now(), map[string]any{"version": version})
	if err != nil {
		panic(err)
	}
	return evt
}

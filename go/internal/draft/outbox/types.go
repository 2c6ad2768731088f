// Package outbox records engine events in Postgres and relays them to NATS
// JetStream, so downstream consumers (notifications, chat, analytics) see every
// event at least once even across restarts.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
)

// Record is one row of the outbox.
type Record struct {
	ID        uuid.UUID
	DraftID   uuid.UUID
	EventType events.EventType
	Version   int64
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}

// FromEvent converts an engine event into an outbox record.
func FromEvent(evt events.Event) Record {
	return Record{
		ID:        evt.ID,
		DraftID:   evt.DraftID,
		EventType: evt.Type,
		Version:   evt.Version,
		Payload:   evt.Data,
		CreatedAt: evt.ServerTimestamp,
	}
}

// Event rebuilds the event envelope the record was made from.
func (r Record) Event() events.Event {
	return events.Event{
		ID:              r.ID,
		DraftID:         r.DraftID,
		Type:            r.EventType,
		Version:         r.Version,
		Data:            r.Payload,
		ServerTimestamp: r.CreatedAt.UTC(),
	}
}

// Store persists outbox records.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	// ClaimUnsent locks up to limit unsent records, passes them to publish in
	// insertion order and marks the returned ids sent, all in one transaction.
	ClaimUnsent(ctx context.Context, limit int, publish func([]Record) []uuid.UUID) error
	CountUnsent(ctx context.Context) (int, error)
}

// Publisher delivers a record to the message bus.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

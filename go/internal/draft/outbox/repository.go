package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

// Schema creates the outbox table.
const Schema = `
CREATE TABLE IF NOT EXISTS draft_outbox (
	seq        BIGSERIAL   NOT NULL,
	id         UUID        PRIMARY KEY,
	draft_id   UUID        NOT NULL,
	event_type TEXT        NOT NULL,
	version    BIGINT      NOT NULL,
	payload    JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	sent_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS draft_outbox_unsent_idx ON draft_outbox (seq) WHERE sent_at IS NULL;
`

const (
	insertOutbox = `
INSERT INTO draft_outbox (id, draft_id, event_type, version, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`

	notifyOutbox = `SELECT pg_notify($1, $2)`

	fetchUnsentOutbox = `
SELECT id, draft_id, event_type, version, payload, created_at
FROM draft_outbox
WHERE sent_at IS NULL
ORDER BY seq
LIMIT $1
FOR UPDATE SKIP LOCKED`

	markOutboxSent = `UPDATE draft_outbox SET sent_at = NOW() WHERE id = ANY($1::uuid[])`

	countUnsentOutbox = `SELECT COUNT(*) FROM draft_outbox WHERE sent_at IS NULL`
)

// Repository is the Postgres outbox store, over database/sql with lib/pq.
type Repository struct {
	db            *sql.DB
	notifyChannel string
}

// NewRepository creates a repository. When notifyChannel is set every insert
// also issues a NOTIFY carrying the record id.
func NewRepository(db *sql.DB, notifyChannel string) *Repository {
	return &Repository{db: db, notifyChannel: notifyChannel}
}

// Migrate creates the outbox table if needed.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate outbox schema: %w", err)
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, rec Record) error {
	payload := pqtype.NullRawMessage{RawMessage: rec.Payload, Valid: len(rec.Payload) > 0}
	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertOutbox,
			rec.ID, rec.DraftID, string(rec.EventType), rec.Version, payload, rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert %s outbox event: %w", rec.EventType, err)
		}
		if r.notifyChannel == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx, notifyOutbox, r.notifyChannel, rec.ID.String()); err != nil {
			return fmt.Errorf("failed to notify outbox listeners: %w", err)
		}
		return nil
	})
}

func (r *Repository) ClaimUnsent(ctx context.Context, limit int, publish func([]Record) []uuid.UUID) error {
	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		records, err := fetchUnsent(ctx, tx, limit)
		if err != nil || len(records) == 0 {
			return err
		}

		sent := publish(records)
		if len(sent) == 0 {
			return nil
		}
		ids := make([]string, len(sent))
		for i, id := range sent {
			ids[i] = id.String()
		}
		if _, err := tx.ExecContext(ctx, markOutboxSent, pq.Array(ids)); err != nil {
			return fmt.Errorf("failed to mark outbox events as sent: %w", err)
		}
		return nil
	})
}

func fetchUnsent(ctx context.Context, tx *sql.Tx, limit int) ([]Record, error) {
	rows, err := tx.QueryContext(ctx, fetchUnsentOutbox, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			eventType string
			payload   pqtype.NullRawMessage
		)
		if err := rows.Scan(&rec.ID, &rec.DraftID, &eventType, &rec.Version, &payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		rec.EventType = events.EventType(eventType)
		if payload.Valid {
			rec.Payload = payload.RawMessage
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outbox events: %w", err)
	}
	return records, nil
}

func (r *Repository) CountUnsent(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countUnsentOutbox).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unsent outbox events: %w", err)
	}
	return n, nil
}

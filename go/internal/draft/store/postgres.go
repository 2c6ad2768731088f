package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/draftroom/go/internal/dbconfig"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/rs/zerolog/log"
)

// Schema creates the snapshot table.
const Schema = `
CREATE TABLE IF NOT EXISTS draft_states (
	draft_id   UUID PRIMARY KEY,
	status     TEXT        NOT NULL,
	version    BIGINT      NOT NULL,
	state      JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps one JSONB snapshot row per draft.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPool opens and pings a pgx pool for cfg.
func NewPool(ctx context.Context, cfg dbconfig.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("database connection established")
	return pool, nil
}

// NewPostgresStore wraps pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the snapshot table if it is missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create draft_states: %w", err)
	}
	return nil
}

// LoadDraftState reads the latest snapshot for draftID.
func (p *PostgresStore) LoadDraftState(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error) {
	const q = `SELECT state FROM draft_states WHERE draft_id = $1`

	var raw []byte
	if err := p.pool.QueryRow(ctx, q, draftID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, state.ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft state %s: %w", draftID, err)
	}

	var s state.DraftState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode draft state %s: %w", draftID, err)
	}
	return &s, nil
}

// SaveDraftState upserts s. Older versions never overwrite newer ones.
func (p *PostgresStore) SaveDraftState(ctx context.Context, s *state.DraftState) error {
	const q = `
		INSERT INTO draft_states (draft_id, status, version, state, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (draft_id) DO UPDATE
		SET status = EXCLUDED.status,
		    version = EXCLUDED.version,
		    state = EXCLUDED.state,
		    updated_at = now()
		WHERE draft_states.version <= EXCLUDED.version`

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode draft state %s: %w", s.DraftID, err)
	}
	if _, err := p.pool.Exec(ctx, q, s.DraftID, string(s.Status), s.Version, raw); err != nil {
		return fmt.Errorf("save draft state %s: %w", s.DraftID, err)
	}
	return nil
}

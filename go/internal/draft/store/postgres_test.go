package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database when DRAFTROOM_TEST_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DRAFTROOM_TEST_DSN")
	if dsn == "" {
		t.Skip("DRAFTROOM_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	p := NewPostgresStore(pool)
	require.NoError(t, p.Migrate(ctx))

	id := uuid.New()
	player := models.PlayerRef{ID: uuid.New(), FullName: "Test Player", Position: "WR", Rank: 12}
	s := &state.DraftState{
		DraftID:          id,
		Status:           models.DraftStatusInProgress,
		Version:          4,
		AvailablePlayers: map[uuid.UUID]models.PlayerRef{player.ID: player},
		DraftedPlayers:   map[uuid.UUID]models.PlayerRef{},
	}
	require.NoError(t, p.SaveDraftState(ctx, s))

	got, err := p.LoadDraftState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Version)
	assert.Equal(t, player, got.AvailablePlayers[player.ID])

	require.NoError(t, p.SaveDraftState(ctx, &state.DraftState{DraftID: id, Status: models.DraftStatusPaused, Version: 3}))
	got, err = p.LoadDraftState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusInProgress, got.Status)

	_, err = p.LoadDraftState(ctx, uuid.New())
	assert.ErrorIs(t, err, state.ErrDraftNotFound)
}

package outbox

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database when DRAFTROOM_TEST_DSN is set.
func TestRepository(t *testing.T) {
	dsn := os.Getenv("DRAFTROOM_TEST_DSN")
	if dsn == "" {
		t.Skip("DRAFTROOM_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db, "draft_outbox_test")
	require.NoError(t, repo.Migrate(ctx))
	_, err = db.ExecContext(ctx, `DELETE FROM draft_outbox`)
	require.NoError(t, err)

	draftID := uuid.New()
	first := FromEvent(newEvent(draftID, events.EventTypeDraftStarted, 1))
	second := FromEvent(newEvent(draftID, events.EventTypePickMade, 2))
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))
	require.NoError(t, repo.Insert(ctx, first), "duplicate ids are ignored")

	n, err := repo.CountUnsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var claimed []Record
	require.NoError(t, repo.ClaimUnsent(ctx, 10, func(recs []Record) []uuid.UUID {
		claimed = recs
		return []uuid.UUID{recs[0].ID}
	}))
	require.Len(t, claimed, 2)
	assert.Equal(t, first.ID, claimed[0].ID)
	assert.Equal(t, events.EventTypePickMade, claimed[1].EventType)
	assert.JSONEq(t, string(second.Payload), string(claimed[1].Payload))

	n, err = repo.CountUnsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

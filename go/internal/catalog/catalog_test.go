package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	leagueID   = uuid.MustParse("6f1c2b0e-4d7a-4c55-9a1e-0b8d3f2a9c01")
	commishID  = uuid.MustParse("0c4b6f6e-2a34-4f9e-8d9b-8e1f6a7c5d10")
	ownerTwo   = uuid.MustParse("0c4b6f6e-2a34-4f9e-8d9b-8e1f6a7c5d11")
	teamOne    = uuid.MustParse("1a0e0c6d-8f4f-4b0a-9d52-6a3c1e2b4f01")
	teamTwo    = uuid.MustParse("1a0e0c6d-8f4f-4b0a-9d52-6a3c1e2b4f02")
	draftID    = uuid.MustParse("9d3e5a7b-1c2d-4e6f-8a9b-0c1d2e3f4a01")
	quarterbck = uuid.MustParse("5b0f6b8c-0000-4000-8000-000000000001")
)

func load(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load("testdata/league.yaml")
	require.NoError(t, err)
	return c
}

func TestLoadPlayersSortedByRank(t *testing.T) {
	c := load(t)
	players, err := c.ListAvailablePlayers(context.Background(), draftID)
	require.NoError(t, err)
	require.Len(t, players, 4)
	assert.Equal(t, quarterbck, players[0].ID)
	assert.Equal(t, models.Position("QB"), players[0].Position)
	assert.Equal(t, "Cal Kicker", players[3].FullName)

	assert.Equal(t, 1.0, c.Rank(quarterbck))
	assert.Equal(t, 5.0, c.Rank(uuid.New()))

	// Callers get their own copy.
	players[0].FullName = "changed"
	again, _ := c.ListAvailablePlayers(context.Background(), draftID)
	assert.Equal(t, "Quinn Passer", again[0].FullName)
}

func TestDirectory(t *testing.T) {
	c := load(t)
	ctx := context.Background()

	id, err := c.CommissionerID(ctx, leagueID)
	require.NoError(t, err)
	assert.Equal(t, commishID, id)

	team, err := c.TeamForUser(ctx, leagueID, ownerTwo)
	require.NoError(t, err)
	assert.Equal(t, teamTwo, team)

	_, err = c.TeamForUser(ctx, leagueID, uuid.New())
	assert.ErrorIs(t, err, ErrNotInLeague)
	_, err = c.CommissionerID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrLeagueNotFound)
}

func TestDraftFixture(t *testing.T) {
	c := load(t)
	d, teams, ok := c.Draft(draftID)
	require.True(t, ok)
	assert.Equal(t, leagueID, d.LeagueID)
	assert.Equal(t, models.DraftTypeSnake, d.DraftType)
	assert.Equal(t, 3, d.Settings.Rounds)
	assert.Equal(t, []uuid.UUID{teamOne, teamTwo}, d.TeamIDs)
	require.Len(t, teams, 2)
	assert.Equal(t, leagueID, teams[0].LeagueID)
	assert.Equal(t, []uuid.UUID{draftID}, c.Drafts())

	_, _, ok = c.Draft(uuid.New())
	assert.False(t, ok)
}

func TestCheckConstraint(t *testing.T) {
	c := load(t)
	qb := models.PlayerRef{Position: "QB"}
	rb := models.PlayerRef{Position: "RB"}

	assert.NoError(t, c.CheckConstraint(teamOne, "QB", nil))
	assert.ErrorIs(t, c.CheckConstraint(teamOne, "QB", []models.PlayerRef{qb}), state.ErrPositionLimitExceeded)
	assert.NoError(t, c.CheckConstraint(teamOne, "RB", []models.PlayerRef{qb, rb}))
	assert.ErrorIs(t, c.CheckConstraint(teamOne, "WR", []models.PlayerRef{qb, rb, rb}), state.ErrRosterFull)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("players: [}"))
	assert.Error(t, err)

	_, err = Parse([]byte(`
players:
  - id: 5b0f6b8c-0000-4000-8000-000000000001
    full_name: A
  - id: 5b0f6b8c-0000-4000-8000-000000000001
    full_name: B
`))
	assert.Error(t, err)

	_, err = Load("testdata/missing.yaml")
	assert.Error(t, err)
}

package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestQueueThenRankCandidates(t *testing.T) {
	a := models.PlayerRef{ID: uuid.New(), Rank: 3}
	b := models.PlayerRef{ID: uuid.New(), Rank: 1}
	c := models.PlayerRef{ID: uuid.New(), Rank: 2}
	gone := uuid.New()
	teamID := uuid.New()

	s := &state.DraftState{
		AvailablePlayers: map[uuid.UUID]models.PlayerRef{a.ID: a, b.ID: b, c.ID: c},
		Teams: []state.TeamState{
			{TeamID: teamID, AutoPickQueue: []uuid.UUID{gone, a.ID, a.ID}},
		},
	}

	got := QueueThenRank{}.Candidates(s, teamID)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, got)

	// An external ranking overrides the snapshot's ranks.
	rank := map[uuid.UUID]float64{a.ID: 1, b.ID: 9, c.ID: 5}
	got = QueueThenRank{Rank: func(id uuid.UUID) float64 { return rank[id] }}.Candidates(s, uuid.New())
	assert.Equal(t, []uuid.UUID{a.ID, c.ID, b.ID}, got)
}

func TestQueueThenRankTieBreaksOnID(t *testing.T) {
	x := models.PlayerRef{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000b2"), Rank: 4}
	y := models.PlayerRef{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"), Rank: 4}
	s := &state.DraftState{AvailablePlayers: map[uuid.UUID]models.PlayerRef{x.ID: x, y.ID: y}}

	assert.Equal(t, []uuid.UUID{y.ID, x.ID}, QueueThenRank{}.Candidates(s, uuid.New()))
}

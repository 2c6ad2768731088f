package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *DraftState {
	teams := []uuid.UUID{uuid.New(), uuid.New()}
	p1 := models.PlayerRef{ID: uuid.New(), FullName: "A", Position: "QB", Rank: 2}
	p2 := models.PlayerRef{ID: uuid.New(), FullName: "B", Position: "RB", Rank: 1}
	p3 := models.PlayerRef{ID: uuid.New(), FullName: "C", Position: "WR", Rank: 1}
	now := time.Now()
	return &DraftState{
		DraftID:           uuid.New(),
		DraftType:         models.DraftTypeSnake,
		Settings:          models.DraftSettings{Rounds: 2, TimePerPickSec: 30},
		Status:            models.DraftStatusInProgress,
		CurrentPickNumber: 2,
		CurrentRound:      1,
		CurrentTeamID:     teams[1],
		TotalPicks:        4,
		PickOrder:         teams,
		Picks: []models.DraftPick{
			{PickNumber: 1, Round: 1, PickInRound: 1, TeamID: teams[0], PlayerID: p1.ID, Position: p1.Position},
		},
		AvailablePlayers: map[uuid.UUID]models.PlayerRef{p2.ID: p2, p3.ID: p3},
		DraftedPlayers:   map[uuid.UUID]models.PlayerRef{p1.ID: p1},
		Teams: []TeamState{
			{TeamID: teams[0], Roster: []models.PlayerRef{p1}, AutoPickQueue: []uuid.UUID{p2.ID}},
			{TeamID: teams[1]},
		},
		StartedAt: &now,
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := sample()
	c := s.Clone()
	require.Equal(t, s, c)

	c.Picks[0].PlayerID = uuid.New()
	c.Teams[0].Roster[0].FullName = "changed"
	c.Teams[0].AutoPickQueue[0] = uuid.New()
	c.PickOrder[0] = uuid.New()
	for id := range c.AvailablePlayers {
		delete(c.AvailablePlayers, id)
	}
	*c.StartedAt = c.StartedAt.Add(time.Hour)

	assert.NotEqual(t, s.Picks[0].PlayerID, c.Picks[0].PlayerID)
	assert.Equal(t, "A", s.Teams[0].Roster[0].FullName)
	assert.Len(t, s.AvailablePlayers, 2)
	assert.NotEqual(t, *s.StartedAt, *c.StartedAt)
	assert.NoError(t, s.CheckInvariants())
}

func TestAvailableByRank(t *testing.T) {
	s := sample()
	ranked := s.AvailableByRank()
	require.Len(t, ranked, 2)
	// Equal rank: lower id string first.
	assert.True(t, ranked[0].ID.String() < ranked[1].ID.String())
}

func TestCheckInvariants(t *testing.T) {
	cases := map[string]func(s *DraftState){
		"gap in picks":        func(s *DraftState) { s.Picks[0].PickNumber = 2 },
		"cursor drift":        func(s *DraftState) { s.CurrentPickNumber = 3 },
		"wrong team on clock": func(s *DraftState) { s.CurrentTeamID = s.PickOrder[0] },
		"negative timer":      func(s *DraftState) { s.TimeRemainingMs = -1 },
		"drafted and available": func(s *DraftState) {
			for id, p := range s.DraftedPlayers {
				s.AvailablePlayers[id] = p
			}
		},
		"duplicate player": func(s *DraftState) {
			dup := s.Picks[0]
			dup.PickNumber = 2
			s.Picks = append(s.Picks, dup)
			s.CurrentPickNumber = 3
			s.CurrentTeamID = s.PickOrder[1]
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := sample()
			mutate(s)
			assert.Error(t, s.CheckInvariants())
		})
	}
}

func TestPositionTo(t *testing.T) {
	s := sample()
	require.NoError(t, s.PositionTo(3))
	assert.Equal(t, 2, s.CurrentRound)
	assert.Equal(t, s.PickOrder[1], s.CurrentTeamID)

	require.NoError(t, s.PositionTo(5))
	assert.Equal(t, 5, s.CurrentPickNumber)
	assert.Equal(t, uuid.Nil, s.CurrentTeamID)

	assert.Error(t, s.PositionTo(0))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "NOT_YOUR_TURN", Code(fmt.Errorf("pick 3: %w", ErrNotYourTurn)))
	assert.Equal(t, "PICK_ALREADY_MADE", Code(ErrPickAlreadyMade))
	assert.Equal(t, "INTERNAL", Code(fmt.Errorf("boom")))
	assert.Equal(t, "", Code(nil))
}

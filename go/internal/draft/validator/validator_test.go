package validator

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limits struct {
	max    int
	perPos map[models.Position]int
}

func (l limits) CheckConstraint(_ uuid.UUID, pos models.Position, roster []models.PlayerRef) error {
	if len(roster) >= l.max {
		return state.ErrRosterFull
	}
	n := 0
	for _, p := range roster {
		if p.Position == pos {
			n++
		}
	}
	if limit, ok := l.perPos[pos]; ok && n >= limit {
		return state.ErrPositionLimitExceeded
	}
	return nil
}

func fixture() (*state.DraftState, []uuid.UUID, []models.PlayerRef) {
	teams := []uuid.UUID{uuid.New(), uuid.New()}
	players := []models.PlayerRef{
		{ID: uuid.New(), FullName: "QB One", Position: "QB", Rank: 1},
		{ID: uuid.New(), FullName: "QB Two", Position: "QB", Rank: 2},
		{ID: uuid.New(), FullName: "RB One", Position: "RB", Rank: 3},
	}
	s := &state.DraftState{
		DraftID:           uuid.New(),
		DraftType:         models.DraftTypeSnake,
		Settings:          models.DraftSettings{Rounds: 2, TimePerPickSec: 60},
		Status:            models.DraftStatusInProgress,
		CurrentPickNumber: 1,
		CurrentRound:      1,
		CurrentTeamID:     teams[0],
		TotalPicks:        4,
		PickOrder:         teams,
		AvailablePlayers:  map[uuid.UUID]models.PlayerRef{},
		DraftedPlayers:    map[uuid.UUID]models.PlayerRef{},
		Teams: []state.TeamState{
			{TeamID: teams[0]},
			{TeamID: teams[1]},
		},
	}
	for _, p := range players {
		s.AvailablePlayers[p.ID] = p
	}
	return s, teams, players
}

func TestValidate(t *testing.T) {
	s, teams, players := fixture()
	v := New(limits{max: 2, perPos: map[models.Position]int{"QB": 1}})

	require.NoError(t, v.Validate(s, teams[0], players[0].ID, Options{}))

	t.Run("wrong team", func(t *testing.T) {
		err := v.Validate(s, teams[1], players[0].ID, Options{})
		assert.ErrorIs(t, err, state.ErrNotYourTurn)
	})

	t.Run("force pick skips turn check", func(t *testing.T) {
		assert.NoError(t, v.Validate(s, teams[1], players[0].ID, Options{SkipTurnCheck: true}))
	})

	t.Run("unknown team", func(t *testing.T) {
		err := v.Validate(s, uuid.New(), players[0].ID, Options{SkipTurnCheck: true})
		assert.ErrorIs(t, err, state.ErrUnknownTeam)
	})

	t.Run("drafted player", func(t *testing.T) {
		c := s.Clone()
		delete(c.AvailablePlayers, players[0].ID)
		c.DraftedPlayers[players[0].ID] = players[0]
		err := v.Validate(c, teams[0], players[0].ID, Options{})
		assert.ErrorIs(t, err, state.ErrPlayerUnavailable)
	})

	t.Run("unknown player", func(t *testing.T) {
		err := v.Validate(s, teams[0], uuid.New(), Options{})
		assert.ErrorIs(t, err, state.ErrPlayerUnavailable)
	})

	t.Run("position limit", func(t *testing.T) {
		c := s.Clone()
		c.Teams[0].Roster = []models.PlayerRef{players[0]}
		err := v.Validate(c, teams[0], players[1].ID, Options{})
		assert.ErrorIs(t, err, state.ErrPositionLimitExceeded)
		assert.NoError(t, v.Validate(c, teams[0], players[2].ID, Options{}))
	})

	t.Run("roster full", func(t *testing.T) {
		c := s.Clone()
		c.Teams[0].Roster = []models.PlayerRef{{Position: "K"}, {Position: "DEF"}}
		err := v.Validate(c, teams[0], players[2].ID, Options{})
		assert.ErrorIs(t, err, state.ErrRosterFull)
	})

	t.Run("not in progress", func(t *testing.T) {
		for _, status := range []models.DraftStatus{
			models.DraftStatusNotStarted,
			models.DraftStatusPaused,
			models.DraftStatusCompleted,
		} {
			c := s.Clone()
			c.Status = status
			err := v.Validate(c, teams[0], players[0].ID, Options{})
			assert.ErrorIs(t, err, state.ErrInvalidTransition, status)
		}
	})
}

func TestValidateCheckOrder(t *testing.T) {
	s, teams, _ := fixture()
	v := New(limits{max: 0})

	// Wrong team and unknown player: turn is reported first.
	err := v.Validate(s, teams[1], uuid.New(), Options{})
	assert.True(t, errors.Is(err, state.ErrNotYourTurn))

	// Right team, unknown player, full roster: availability first.
	err = v.Validate(s, teams[0], uuid.New(), Options{})
	assert.True(t, errors.Is(err, state.ErrPlayerUnavailable))
}

func TestValidateDoesNotMutate(t *testing.T) {
	s, teams, players := fixture()
	before := s.Clone()
	_ = New(nil).Validate(s, teams[0], players[0].ID, Options{})
	assert.Equal(t, before, s)
}

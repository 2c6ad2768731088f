// Package validator decides whether a pick is legal against a draft snapshot.
package validator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// RosterSettings enforces league roster constraints.
type RosterSettings interface {
	// CheckConstraint returns state.ErrRosterFull or state.ErrPositionLimitExceeded
	// (possibly wrapped) when adding position to currentRoster is not allowed.
	CheckConstraint(teamID uuid.UUID, position models.Position, currentRoster []models.PlayerRef) error
}

// Options tunes which checks run.
type Options struct {
	// SkipTurnCheck is set for commissioner force-picks.
	SkipTurnCheck bool
}

// Validator runs pick checks in a fixed order: status, turn, availability, roster.
type Validator struct {
	roster RosterSettings
}

// New creates a Validator. A nil roster disables roster checks.
func New(roster RosterSettings) *Validator {
	return &Validator{roster: roster}
}

// Validate returns nil when teamID may draft playerID now. It never mutates s.
func (v *Validator) Validate(s *state.DraftState, teamID, playerID uuid.UUID, opts Options) error {
	if s.Status != models.DraftStatusInProgress {
		return fmt.Errorf("draft is %s: %w", s.Status, state.ErrInvalidTransition)
	}

	team := s.Team(teamID)
	if team == nil {
		return fmt.Errorf("team %s: %w", teamID, state.ErrUnknownTeam)
	}
	if !opts.SkipTurnCheck && s.CurrentTeamID != teamID {
		return fmt.Errorf("pick %d belongs to %s: %w", s.CurrentPickNumber, s.CurrentTeamID, state.ErrNotYourTurn)
	}

	player, ok := s.AvailablePlayers[playerID]
	if !ok {
		return fmt.Errorf("player %s: %w", playerID, state.ErrPlayerUnavailable)
	}

	if v.roster != nil {
		if err := v.roster.CheckConstraint(teamID, player.Position, team.Roster); err != nil {
			return err
		}
	}
	return nil
}

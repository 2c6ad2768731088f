package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/draft/validator"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

func (a *actor) commissioner(action CommissionerAction) (ActionResult, error) {
	res := ActionResult{Action: action.Type}
	var err error

	switch action.Type {
	case ActionUndoPick:
		var pick models.DraftPick
		if pick, err = a.undoPick(action.ActorID); err == nil {
			res.Pick = &pick
		}
	case ActionForcePick:
		var pick models.DraftPick
		if pick, err = a.forcePick(action.TeamID, action.PlayerID); err == nil {
			res.Pick = &pick
		}
	case ActionPauseDraft:
		reason := action.Reason
		if reason == "" {
			reason = ReasonCommissioner
		}
		err = a.pause(reason)
	case ActionResumeDraft:
		err = a.resume()
	case ActionResetTimer:
		err = a.resetTimer(action.ActorID)
	case ActionEndDraft:
		err = a.end()
	default:
		err = fmt.Errorf("unknown commissioner action %q: %w", action.Type, state.ErrInvalidTransition)
	}
	if err != nil {
		return ActionResult{}, err
	}

	a.touch()
	res.State = a.snapshot()
	log.Info().
		Str("draft_id", a.id.String()).
		Str("actor_id", action.ActorID.String()).
		Str("action", string(action.Type)).
		Msg("commissioner action applied")
	return res, nil
}

func (a *actor) undoPick(actorID uuid.UUID) (models.DraftPick, error) {
	if a.s.Status != models.DraftStatusInProgress && a.s.Status != models.DraftStatusPaused {
		return models.DraftPick{}, fmt.Errorf("undo while %s: %w", a.s.Status, state.ErrInvalidTransition)
	}
	n := len(a.s.Picks)
	if n == 0 {
		return models.DraftPick{}, state.ErrNothingToUndo
	}

	last := a.s.Picks[n-1]
	a.s.Picks = a.s.Picks[:n-1]
	player, ok := a.s.DraftedPlayers[last.PlayerID]
	if !ok {
		player = models.PlayerRef{ID: last.PlayerID, Position: last.Position}
	}
	delete(a.s.DraftedPlayers, last.PlayerID)
	a.s.AvailablePlayers[last.PlayerID] = player

	if team := a.s.Team(last.TeamID); team != nil {
		for i := len(team.Roster) - 1; i >= 0; i-- {
			if team.Roster[i].ID == last.PlayerID {
				team.Roster = append(team.Roster[:i], team.Roster[i+1:]...)
				break
			}
		}
	}
	if err := a.s.PositionTo(last.PickNumber); err != nil {
		return models.DraftPick{}, err
	}
	a.bump()

	a.emit(events.EventTypePickUndone, events.PickUndonePayload{
		PickNumber: last.PickNumber,
		TeamID:     last.TeamID,
		PlayerID:   last.PlayerID,
		ActorID:    actorID,
	})

	full := a.s.Settings.PickDuration()
	if a.s.Status == models.DraftStatusInProgress {
		a.startTurn(full)
	} else {
		a.disarm()
		a.s.TimeRemainingMs = full.Milliseconds()
	}
	return last, nil
}

func (a *actor) forcePick(teamID, playerID uuid.UUID) (models.DraftPick, error) {
	if err := a.e.validator.Validate(a.s, teamID, playerID, validator.Options{SkipTurnCheck: true}); err != nil {
		return models.DraftPick{}, err
	}
	return a.recordPick(teamID, a.s.AvailablePlayers[playerID], false, true), nil
}

func (a *actor) resetTimer(actorID uuid.UUID) error {
	if a.s.Status != models.DraftStatusInProgress && a.s.Status != models.DraftStatusPaused {
		return fmt.Errorf("reset timer while %s: %w", a.s.Status, state.ErrInvalidTransition)
	}
	full := a.s.Settings.PickDuration()
	a.s.TimeRemainingMs = full.Milliseconds()
	if a.s.Status == models.DraftStatusInProgress {
		a.arm(full)
	} else {
		a.disarm()
	}
	a.bump()

	a.emit(events.EventTypeTimerReset, events.TimerResetPayload{
		TeamID:          a.s.CurrentTeamID,
		PickNumber:      a.s.CurrentPickNumber,
		TimeRemainingMs: a.s.TimeRemainingMs,
		ActorID:         actorID,
	})
	return nil
}

func (a *actor) end() error {
	if a.s.Status.Terminal() {
		return fmt.Errorf("end while %s: %w", a.s.Status, state.ErrInvalidTransition)
	}
	a.complete(true)
	return nil
}

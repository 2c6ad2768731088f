package state

import "errors"

var (
	// ErrDraftNotFound is returned when no draft exists for an id.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrInvalidTransition is returned when the draft status does not allow the operation.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotYourTurn is returned when a team picks outside its turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrPlayerUnavailable is returned when the player was already drafted or is unknown.
	ErrPlayerUnavailable = errors.New("player already drafted or unavailable")
	// ErrRosterFull is returned when the team has no open roster spot.
	ErrRosterFull = errors.New("roster full")
	// ErrPositionLimitExceeded is returned when the team is at its limit for the position.
	ErrPositionLimitExceeded = errors.New("position limit exceeded")
	// ErrPickAlreadyMade is returned to the loser of a race for the same pick.
	ErrPickAlreadyMade = errors.New("pick already made")
	// ErrUnauthorized is returned when the actor may not perform a privileged action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNothingToUndo is returned by undo_pick on an empty pick list.
	ErrNothingToUndo = errors.New("no picks to undo")
	// ErrUnknownTeam is returned for team ids that are not part of the draft.
	ErrUnknownTeam = errors.New("team not in draft")
	// ErrInvalidSettings is returned by initialize for unusable draft settings.
	ErrInvalidSettings = errors.New("invalid draft settings")
	// ErrNoEligiblePlayers is returned when auto-pick cannot find a valid player.
	ErrNoEligiblePlayers = errors.New("no eligible players for auto-pick")
)

// Code returns the stable wire code for a draft error.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDraftNotFound):
		return "DRAFT_NOT_FOUND"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrNotYourTurn):
		return "NOT_YOUR_TURN"
	case errors.Is(err, ErrPlayerUnavailable):
		return "PLAYER_UNAVAILABLE"
	case errors.Is(err, ErrRosterFull):
		return "ROSTER_FULL"
	case errors.Is(err, ErrPositionLimitExceeded):
		return "POSITION_LIMIT_EXCEEDED"
	case errors.Is(err, ErrPickAlreadyMade):
		return "PICK_ALREADY_MADE"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrNothingToUndo):
		return "NOTHING_TO_UNDO"
	case errors.Is(err, ErrUnknownTeam):
		return "UNKNOWN_TEAM"
	case errors.Is(err, ErrInvalidSettings):
		return "INVALID_SETTINGS"
	case errors.Is(err, ErrNoEligiblePlayers):
		return "NO_ELIGIBLE_PLAYERS"
	default:
		return "INTERNAL"
	}
}

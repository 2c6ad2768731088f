package events

import (
	"time"

	"github.com/google/uuid"
)

// Event payload types shared by the engine, the broadcaster and the outbox.

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	DraftType   string      `json:"draft_type"`
	PickOrder   []uuid.UUID `json:"pick_order"`
	StartedAt   time.Time   `json:"started_at"`
	TotalRounds int         `json:"total_rounds"`
	TotalPicks  int         `json:"total_picks"`
}

// PickStartedPayload is the payload for a PickStarted event
type PickStartedPayload struct {
	TeamID          uuid.UUID `json:"team_id"`
	Round           int       `json:"round"`
	PickInRound     int       `json:"pick_in_round"`
	PickNumber      int       `json:"pick_number"`
	TimeRemainingMs int64     `json:"time_remaining_ms"`
	TimeoutAt       time.Time `json:"timeout_at"`
}

// PickMadePayload is the payload for a PickMade event
type PickMadePayload struct {
	TeamID      uuid.UUID `json:"team_id"`
	TeamName    string    `json:"team_name"`
	PlayerID    uuid.UUID `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	Position    string    `json:"position"`
	Round       int       `json:"round"`
	PickInRound int       `json:"pick_in_round"`
	PickNumber  int       `json:"pick_number"`
	IsAutoPick  bool      `json:"is_auto_pick"`
	IsForced    bool      `json:"is_forced"`
	MadeAt      time.Time `json:"made_at"`
}

// TurnAdvancedPayload is the payload for a TurnAdvanced event
type TurnAdvancedPayload struct {
	PreviousTeamID uuid.UUID `json:"previous_team_id"`
	TeamID         uuid.UUID `json:"team_id"`
	Round          int       `json:"round"`
	PickNumber     int       `json:"pick_number"`
}

// DraftPausedPayload is the payload for a DraftPaused event
type DraftPausedPayload struct {
	Reason          string    `json:"reason"`
	TimeRemainingMs int64     `json:"time_remaining_ms"`
	PausedAt        time.Time `json:"paused_at"`
}

// DraftResumedPayload is the payload for a DraftResumed event
type DraftResumedPayload struct {
	TimeRemainingMs int64     `json:"time_remaining_ms"`
	ResumedAt       time.Time `json:"resumed_at"`
}

// TimerResetPayload is the payload for a TimerReset event
type TimerResetPayload struct {
	TeamID          uuid.UUID `json:"team_id"`
	PickNumber      int       `json:"pick_number"`
	TimeRemainingMs int64     `json:"time_remaining_ms"`
	ActorID         uuid.UUID `json:"actor_id"`
}

// PickUndonePayload is the payload for a PickUndone event
type PickUndonePayload struct {
	PickNumber int       `json:"pick_number"`
	TeamID     uuid.UUID `json:"team_id"`
	PlayerID   uuid.UUID `json:"player_id"`
	ActorID    uuid.UUID `json:"actor_id"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	TotalPicks  int       `json:"total_picks"`
	EndedEarly  bool      `json:"ended_early,omitempty"`
}

// AutoQueueUpdatedPayload is the payload for an AutoQueueUpdated event
type AutoQueueUpdatedPayload struct {
	TeamID    uuid.UUID   `json:"team_id"`
	PlayerIDs []uuid.UUID `json:"player_ids"`
}

// PresenceChangedPayload is the payload for a PresenceChanged event
type PresenceChangedPayload struct {
	TeamID uuid.UUID `json:"team_id"`
	Status string    `json:"status"`
}

// TimerTickPayload contains periodic timer updates
type TimerTickPayload struct {
	TeamID          uuid.UUID `json:"team_id"`
	PickNumber      int       `json:"pick_number"`
	TimeRemainingMs int64     `json:"time_remaining_ms"`
}

// ChatMessagePayload is relayed from a room member to the room.
type ChatMessagePayload struct {
	UserID  uuid.UUID `json:"user_id"`
	TeamID  uuid.UUID `json:"team_id,omitempty"`
	Message string    `json:"message"`
}

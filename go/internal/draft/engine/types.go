package engine

import (
	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// Pause reasons set by the engine itself.
const (
	ReasonCommissioner      = "commissioner"
	ReasonIdle              = "idle"
	ReasonAutoPickExhausted = "auto_pick_exhausted"
)

// PickRequest is a pick submission.
type PickRequest struct {
	DraftID  uuid.UUID `json:"draft_id"`
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
	IsAuto   bool      `json:"is_auto"`
	// PickNumber is the pick the caller believes is on the clock. Zero means current.
	PickNumber int `json:"pick_number,omitempty"`
}

// CommissionerActionType names a privileged action.
type CommissionerActionType string

const (
	ActionUndoPick    CommissionerActionType = "undo_pick"
	ActionForcePick   CommissionerActionType = "force_pick"
	ActionPauseDraft  CommissionerActionType = "pause_draft"
	ActionResumeDraft CommissionerActionType = "resume_draft"
	ActionResetTimer  CommissionerActionType = "reset_timer"
	ActionEndDraft    CommissionerActionType = "end_draft"
)

// Valid reports whether t is a known action.
func (t CommissionerActionType) Valid() bool {
	switch t {
	case ActionUndoPick, ActionForcePick, ActionPauseDraft, ActionResumeDraft, ActionResetTimer, ActionEndDraft:
		return true
	}
	return false
}

// CommissionerAction is a privileged request. TeamID and PlayerID are used by
// force_pick, Reason by pause_draft and end_draft.
type CommissionerAction struct {
	Type     CommissionerActionType `json:"type"`
	ActorID  uuid.UUID              `json:"actor_id"`
	TeamID   uuid.UUID              `json:"team_id,omitempty"`
	PlayerID uuid.UUID              `json:"player_id,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
}

// ActionResult is what a commissioner action produced.
type ActionResult struct {
	Action CommissionerActionType `json:"action"`
	// Pick is the removed pick for undo_pick and the recorded pick for force_pick.
	Pick  *models.DraftPick `json:"pick,omitempty"`
	State *state.DraftState `json:"state"`
}

package rpc

import (
	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// ServiceName is the fully-qualified name of the draft command service.
const ServiceName = "draftroom.draft.v1.DraftService"

const (
	StartDraftProcedure                = "/" + ServiceName + "/StartDraft"
	SubmitPickProcedure                = "/" + ServiceName + "/SubmitPick"
	ExecuteCommissionerActionProcedure = "/" + ServiceName + "/ExecuteCommissionerAction"
	GetDraftStateProcedure             = "/" + ServiceName + "/GetDraftState"
)

type StartDraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
}

type StartDraftResponse struct {
	State *state.DraftState `json:"state"`
}

type SubmitPickRequest struct {
	DraftID    uuid.UUID `json:"draft_id"`
	TeamID     uuid.UUID `json:"team_id"`
	PlayerID   uuid.UUID `json:"player_id"`
	PickNumber int       `json:"pick_number,omitempty"`
}

type SubmitPickResponse struct {
	Pick models.DraftPick `json:"pick"`
}

type ExecuteCommissionerActionRequest struct {
	DraftID uuid.UUID                 `json:"draft_id"`
	Action  engine.CommissionerAction `json:"action"`
}

type ExecuteCommissionerActionResponse struct {
	Result engine.ActionResult `json:"result"`
}

type GetDraftStateRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
}

type GetDraftStateResponse struct {
	State *state.DraftState `json:"state"`
}

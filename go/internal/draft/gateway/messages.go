package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
)

// Intent is what a client asks the server to do.
type Intent string

const (
	IntentJoin         Intent = "join"
	IntentMakePick     Intent = "make_pick"
	IntentSetAutoQueue Intent = "set_auto_queue"
	IntentCommissioner Intent = "commissioner"
	IntentChat         Intent = "chat"
	IntentPing         Intent = "ping"
)

// Frame types that are not draft events.
const (
	FrameStateSnapshot = "state_snapshot"
	FrameError         = "error"
	FramePong          = "pong"
	FrameAck           = "ack"
)

// Error codes raised by the socket layer itself. Engine errors use state.Code.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeUnknownIntent = "UNKNOWN_INTENT"
	CodeNotJoined     = "NOT_JOINED"
)

// Inbound is a client message.
type Inbound struct {
	DraftID   uuid.UUID       `json:"draft_id"`
	Intent    Intent          `json:"intent"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Outbound is a server message.
type Outbound struct {
	DraftID         uuid.UUID       `json:"draft_id"`
	Type            string          `json:"type"`
	Version         int64           `json:"version,omitempty"`
	RequestID       string          `json:"request_id,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
	ServerTimestamp time.Time       `json:"server_timestamp"`
}

type makePickPayload struct {
	PlayerID   uuid.UUID `json:"player_id"`
	PickNumber int       `json:"pick_number,omitempty"`
}

type autoQueuePayload struct {
	PlayerIDs []uuid.UUID `json:"player_ids"`
}

type commissionerPayload struct {
	Type     string    `json:"type"`
	TeamID   uuid.UUID `json:"team_id,omitempty"`
	PlayerID uuid.UUID `json:"player_id,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

type chatPayload struct {
	Message string `json:"message"`
}

// ErrorData is the body of an error frame.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func eventFrame(evt events.Event) Outbound {
	return Outbound{
		DraftID:         evt.DraftID,
		Type:            string(evt.Type),
		Version:         evt.Version,
		Data:            evt.Data,
		ServerTimestamp: evt.ServerTimestamp,
	}
}

func snapshotFrame(s *state.DraftState, requestID string, now time.Time) (Outbound, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return Outbound{}, err
	}
	return Outbound{
		DraftID:         s.DraftID,
		Type:            FrameStateSnapshot,
		Version:         s.Version,
		RequestID:       requestID,
		Data:            data,
		ServerTimestamp: now.UTC(),
	}, nil
}

func errorFrame(draftID uuid.UUID, requestID, code, message string, now time.Time) Outbound {
	data, _ := json.Marshal(ErrorData{Code: code, Message: message})
	return Outbound{
		DraftID:         draftID,
		Type:            FrameError,
		RequestID:       requestID,
		Data:            data,
		ServerTimestamp: now.UTC(),
	}
}

func replyFrame(draftID uuid.UUID, frameType, requestID string, payload any, now time.Time) Outbound {
	out := Outbound{
		DraftID:         draftID,
		Type:            frameType,
		RequestID:       requestID,
		ServerTimestamp: now.UTC(),
	}
	if payload != nil {
		out.Data, _ = json.Marshal(payload)
	}
	return out
}

package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of draft event
type EventType string

const (
	EventTypeDraftStarted     EventType = "DraftStarted"
	EventTypePickStarted      EventType = "PickStarted"
	EventTypePickMade         EventType = "PickMade"
	EventTypeTurnAdvanced     EventType = "TurnAdvanced"
	EventTypeDraftPaused      EventType = "DraftPaused"
	EventTypeDraftResumed     EventType = "DraftResumed"
	EventTypeTimerReset       EventType = "TimerReset"
	EventTypePickUndone       EventType = "PickUndone"
	EventTypeDraftCompleted   EventType = "DraftCompleted"
	EventTypeAutoQueueUpdated EventType = "AutoQueueUpdated"
	EventTypePresenceChanged  EventType = "PresenceChanged"
	EventTypeTimerTick        EventType = "TimerTick"
	EventTypeChatMessage      EventType = "ChatMessage"
)

// Event is the envelope every draft event travels in, on the socket and on the bus.
type Event struct {
	ID              uuid.UUID       `json:"id"`
	DraftID         uuid.UUID       `json:"draft_id"`
	Type            EventType       `json:"type"`
	Version         int64           `json:"version"`
	Data            json.RawMessage `json:"data"`
	ServerTimestamp time.Time       `json:"server_timestamp"`
}

// New builds an envelope around payload.
func New(draftID uuid.UUID, eventType EventType, version int64, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:              uuid.New(),
		DraftID:         draftID,
		Type:            eventType,
		Version:         version,
		Data:            data,
		ServerTimestamp: at.UTC(),
	}, nil
}

// Subject is the bus subject the event is published on.
func (e Event) Subject() string {
	return "draft.events." + string(e.Type)
}

// Decode parses event data into the payload struct for its type.
func Decode(e Event) (any, error) {
	var payload any
	switch e.Type {
	case EventTypeDraftStarted:
		payload = &DraftStartedPayload{}
	case EventTypePickStarted:
		payload = &PickStartedPayload{}
	case EventTypePickMade:
		payload = &PickMadePayload{}
	case EventTypeTurnAdvanced:
		payload = &TurnAdvancedPayload{}
	case EventTypeDraftPaused:
		payload = &DraftPausedPayload{}
	case EventTypeDraftResumed:
		payload = &DraftResumedPayload{}
	case EventTypeTimerReset:
		payload = &TimerResetPayload{}
	case EventTypePickUndone:
		payload = &PickUndonePayload{}
	case EventTypeDraftCompleted:
		payload = &DraftCompletedPayload{}
	case EventTypeAutoQueueUpdated:
		payload = &AutoQueueUpdatedPayload{}
	case EventTypePresenceChanged:
		payload = &PresenceChangedPayload{}
	case EventTypeTimerTick:
		payload = &TimerTickPayload{}
	case EventTypeChatMessage:
		payload = &ChatMessagePayload{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Data, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return payload, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftPick represents a single recorded pick in a draft.
type DraftPick struct {
	PickNumber  int       `json:"pick_number"` // overall pick number, 1-based
	Round       int       `json:"round"`
	PickInRound int       `json:"pick_in_round"` // 1-based
	TeamID      uuid.UUID `json:"team_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	Position    Position  `json:"position"`
	IsAutoPick  bool      `json:"is_auto_pick"`
	IsForced    bool      `json:"is_forced"`
	PickedAt    time.Time `json:"picked_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftType defines the type of draft.
type DraftType string

const (
	DraftTypeSnake   DraftType = "SNAKE"
	DraftTypeLinear  DraftType = "LINEAR"
	DraftTypeAuction DraftType = "AUCTION"
)

// DraftStatus defines the status of a draft.
type DraftStatus string

const (
	DraftStatusNotStarted DraftStatus = "NOT_STARTED"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusPaused     DraftStatus = "PAUSED"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
	DraftStatusCancelled  DraftStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are possible from s.
func (s DraftStatus) Terminal() bool {
	return s == DraftStatusCompleted || s == DraftStatusCancelled
}

// DraftSettings holds per-draft configuration.
type DraftSettings struct {
	Rounds             int  `json:"rounds" yaml:"rounds"`
	TimePerPickSec     int  `json:"time_per_pick_sec" yaml:"time_per_pick_sec"`
	ThirdRoundReversal bool `json:"third_round_reversal,omitempty" yaml:"third_round_reversal"`
	RandomizeOrder     bool `json:"randomize_order,omitempty" yaml:"randomize_order"`
}

// PickDuration is the per-pick time limit.
func (s DraftSettings) PickDuration() time.Duration {
	return time.Duration(s.TimePerPickSec) * time.Second
}

// Draft represents a draft instance.
type Draft struct {
	ID          uuid.UUID     `json:"id"`
	LeagueID    uuid.UUID     `json:"league_id"`
	DraftType   DraftType     `json:"draft_type"`
	Status      DraftStatus   `json:"status"`
	Settings    DraftSettings `json:"settings"`
	TeamIDs     []uuid.UUID   `json:"team_ids"`
	ScheduledAt *time.Time    `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// TotalPicks is the number of pick slots (teams × rounds).
func (d Draft) TotalPicks() int {
	return len(d.TeamIDs) * d.Settings.Rounds
}

package models

import (
	"github.com/google/uuid"
)

// Position is a roster position code such as QB, RB or WR.
type Position string

// PlayerRef is the draft engine's view of a player from the catalog.
type PlayerRef struct {
	ID       uuid.UUID `json:"id" yaml:"id"`
	FullName string    `json:"full_name" yaml:"full_name"`
	Position Position  `json:"position" yaml:"position"`
	NFLTeam  string    `json:"nfl_team,omitempty" yaml:"nfl_team"`
	Rank     float64   `json:"rank" yaml:"rank"` // lower is better
}

package models

import (
	"github.com/google/uuid"
)

type FantasyTeam struct {
	ID       uuid.UUID `json:"id" yaml:"id"`
	LeagueID uuid.UUID `json:"league_id" yaml:"-"`
	OwnerID  uuid.UUID `json:"owner_id" yaml:"owner_id"`
	Name     string    `json:"name" yaml:"name"`
}

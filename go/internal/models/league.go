package models

import (
	"github.com/google/uuid"
)

// League represents a fantasy sports league
type League struct {
	ID             uuid.UUID     `json:"id" yaml:"id"`
	Name           string        `json:"name" yaml:"name"`
	Season         string        `json:"season" yaml:"season"`
	CommissionerID uuid.UUID     `json:"commissioner_id" yaml:"commissioner_id"`
	Teams          []FantasyTeam `json:"teams" yaml:"teams"`
}

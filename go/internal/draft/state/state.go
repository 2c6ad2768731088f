// Package state holds the in-memory representation of one draft.
//
// A DraftState is owned by exactly one engine actor. Everything handed to other
// goroutines is a Clone.
package state

import (
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/order"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// ConnectionStatus is informational presence derived from sockets.
type ConnectionStatus string

const (
	Connected    ConnectionStatus = "connected"
	Disconnected ConnectionStatus = "disconnected"
)

// TeamState is the per-team slice of a draft.
type TeamState struct {
	TeamID           uuid.UUID          `json:"team_id"`
	Name             string             `json:"name"`
	OwnerID          uuid.UUID          `json:"owner_id"`
	AutoPickQueue    []uuid.UUID        `json:"auto_pick_queue"`
	ConnectionStatus ConnectionStatus   `json:"connection_status"`
	Roster           []models.PlayerRef `json:"roster"`
}

// DraftState is the mutable core of a draft.
type DraftState struct {
	DraftID           uuid.UUID                      `json:"draft_id"`
	LeagueID          uuid.UUID                      `json:"league_id"`
	DraftType         models.DraftType               `json:"draft_type"`
	Settings          models.DraftSettings           `json:"settings"`
	Status            models.DraftStatus             `json:"status"`
	CurrentPickNumber int                            `json:"current_pick_number"`
	CurrentRound      int                            `json:"current_round"`
	CurrentTeamID     uuid.UUID                      `json:"current_team_id"`
	TimeRemainingMs   int64                          `json:"time_remaining_ms"`
	TotalPicks        int                            `json:"total_picks"`
	PickOrder         []uuid.UUID                    `json:"pick_order"`
	Picks             []models.DraftPick             `json:"picks"`
	AvailablePlayers  map[uuid.UUID]models.PlayerRef `json:"available_players"`
	DraftedPlayers    map[uuid.UUID]models.PlayerRef `json:"drafted_players"`
	Teams             []TeamState                    `json:"teams"`
	PauseReason       string                         `json:"pause_reason,omitempty"`
	StartedAt         *time.Time                     `json:"started_at,omitempty"`
	CompletedAt       *time.Time                     `json:"completed_at,omitempty"`
	LastActivity      time.Time                      `json:"last_activity"`
	Version           int64                          `json:"version"`
}

// Rules returns the pick-order rules for this draft.
func (s *DraftState) Rules() order.Rules {
	return order.Rules{
		DraftType:          s.DraftType,
		PickOrder:          s.PickOrder,
		Rounds:             s.Settings.Rounds,
		ThirdRoundReversal: s.Settings.ThirdRoundReversal,
	}
}

// Team returns the team with the given id, or nil.
func (s *DraftState) Team(teamID uuid.UUID) *TeamState {
	for i := range s.Teams {
		if s.Teams[i].TeamID == teamID {
			return &s.Teams[i]
		}
	}
	return nil
}

// IsAvailable reports whether the player can still be drafted.
func (s *DraftState) IsAvailable(playerID uuid.UUID) bool {
	_, ok := s.AvailablePlayers[playerID]
	return ok
}

// DraftedPlayerIDs lists drafted ids in pick order.
func (s *DraftState) DraftedPlayerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Picks))
	for _, p := range s.Picks {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

// AvailableByRank lists available players, best rank first. Ties break on id.
func (s *DraftState) AvailableByRank() []models.PlayerRef {
	players := make([]models.PlayerRef, 0, len(s.AvailablePlayers))
	for _, p := range s.AvailablePlayers {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Rank != players[j].Rank {
			return players[i].Rank < players[j].Rank
		}
		return players[i].ID.String() < players[j].ID.String()
	})
	return players
}

// PositionTo moves the cursor to pickNumber. Past the last slot the cursor parks on
// TotalPicks+1 with no team on the clock.
func (s *DraftState) PositionTo(pickNumber int) error {
	if pickNumber > s.TotalPicks {
		s.CurrentPickNumber = s.TotalPicks + 1
		s.CurrentRound = s.Settings.Rounds
		s.CurrentTeamID = uuid.Nil
		return nil
	}
	slot, err := s.Rules().SlotFor(pickNumber)
	if err != nil {
		return err
	}
	s.CurrentPickNumber = slot.PickNumber
	s.CurrentRound = slot.Round
	s.CurrentTeamID = slot.TeamID
	return nil
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s *DraftState) Clone() *DraftState {
	if s == nil {
		return nil
	}
	c := *s
	c.PickOrder = cloneSlice(s.PickOrder)
	c.Picks = cloneSlice(s.Picks)

	c.AvailablePlayers = maps.Clone(s.AvailablePlayers)
	c.DraftedPlayers = maps.Clone(s.DraftedPlayers)

	c.Teams = cloneSlice(s.Teams)
	for i, t := range c.Teams {
		t.AutoPickQueue = cloneSlice(t.AutoPickQueue)
		t.Roster = cloneSlice(t.Roster)
		c.Teams[i] = t
	}

	if s.StartedAt != nil {
		ts := *s.StartedAt
		c.StartedAt = &ts
	}
	if s.CompletedAt != nil {
		ts := *s.CompletedAt
		c.CompletedAt = &ts
	}
	return &c
}

func cloneSlice[T any](src []T) []T {
	if src == nil {
		return nil
	}
	dst := make([]T, len(src))
	copy(dst, src)
	return dst
}

// CheckInvariants verifies the structural guarantees of the draft.
func (s *DraftState) CheckInvariants() error {
	for i, p := range s.Picks {
		if p.PickNumber != i+1 {
			return fmt.Errorf("pick %d recorded with number %d", i+1, p.PickNumber)
		}
	}
	if s.Status != models.DraftStatusNotStarted && s.CurrentPickNumber != len(s.Picks)+1 {
		return fmt.Errorf("cursor at %d with %d picks recorded", s.CurrentPickNumber, len(s.Picks))
	}

	seen := make(map[uuid.UUID]struct{}, len(s.Picks))
	for _, p := range s.Picks {
		if _, dup := seen[p.PlayerID]; dup {
			return fmt.Errorf("player %s drafted twice", p.PlayerID)
		}
		seen[p.PlayerID] = struct{}{}
		if _, ok := s.DraftedPlayers[p.PlayerID]; !ok {
			return fmt.Errorf("player %s picked but not in drafted set", p.PlayerID)
		}
	}
	if len(seen) != len(s.DraftedPlayers) {
		return fmt.Errorf("drafted set has %d players, picks have %d", len(s.DraftedPlayers), len(seen))
	}
	for id := range s.DraftedPlayers {
		if _, ok := s.AvailablePlayers[id]; ok {
			return fmt.Errorf("player %s both drafted and available", id)
		}
	}

	if !s.Status.Terminal() && s.CurrentPickNumber >= 1 && s.CurrentPickNumber <= s.TotalPicks {
		slot, err := s.Rules().SlotFor(s.CurrentPickNumber)
		if err != nil {
			return err
		}
		if slot.TeamID != s.CurrentTeamID {
			return fmt.Errorf("team %s on the clock, order says %s", s.CurrentTeamID, slot.TeamID)
		}
	}
	if s.TimeRemainingMs < 0 {
		return fmt.Errorf("negative time remaining %d", s.TimeRemainingMs)
	}
	return nil
}

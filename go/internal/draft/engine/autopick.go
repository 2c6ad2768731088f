package engine

import (
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
)

// AutoPickStrategy lists players to try, best first, when a team's clock runs out.
// Every candidate still goes through the validator.
type AutoPickStrategy interface {
	Candidates(s *state.DraftState, teamID uuid.UUID) []uuid.UUID
}

// QueueThenRank takes the team's auto-pick queue first, then the rest of the
// available pool by rank. Equal ranks break on player id.
type QueueThenRank struct {
	Rank func(playerID uuid.UUID) float64
}

// Candidates implements AutoPickStrategy.
func (q QueueThenRank) Candidates(s *state.DraftState, teamID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(s.AvailablePlayers))
	out := make([]uuid.UUID, 0, len(s.AvailablePlayers))

	if team := s.Team(teamID); team != nil {
		for _, id := range team.AutoPickQueue {
			if _, dup := seen[id]; dup || !s.IsAvailable(id) {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	rest := make([]uuid.UUID, 0, len(s.AvailablePlayers))
	for id := range s.AvailablePlayers {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		ri, rj := q.rank(s, rest[i]), q.rank(s, rest[j])
		if ri != rj {
			return ri < rj
		}
		return rest[i].String() < rest[j].String()
	})
	return append(out, rest...)
}

func (q QueueThenRank) rank(s *state.DraftState, id uuid.UUID) float64 {
	if q.Rank != nil {
		return q.Rank(id)
	}
	return s.AvailablePlayers[id].Rank
}

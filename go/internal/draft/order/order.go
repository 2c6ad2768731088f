// Package order maps overall pick numbers to rounds and teams for each draft type.
package order

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// ErrOutOfRange is returned for pick numbers outside 1..teams×rounds.
var ErrOutOfRange = errors.New("pick number out of range")

// Slot describes who is on the clock for an overall pick number.
type Slot struct {
	PickNumber  int       `json:"pick_number"`
	Round       int       `json:"round"`
	PickInRound int       `json:"pick_in_round"`
	TeamID      uuid.UUID `json:"team_id"`
}

// Rules bundles what is needed to resolve a slot.
type Rules struct {
	DraftType          models.DraftType
	PickOrder          []uuid.UUID
	Rounds             int
	ThirdRoundReversal bool
}

// TotalPicks is teams × rounds.
func (r Rules) TotalPicks() int {
	return len(r.PickOrder) * r.Rounds
}

// Reversed reports whether the given 1-based round runs from the last team to the first.
// Snake drafts reverse every even round. With third round reversal the third round
// repeats the second round's direction and the alternation continues from there.
func (r Rules) Reversed(round int) bool {
	if r.DraftType != models.DraftTypeSnake {
		return false
	}
	if r.ThirdRoundReversal && round >= 3 {
		return round%2 == 1
	}
	return round%2 == 0
}

// SlotFor resolves the 1-based overall pick number.
func (r Rules) SlotFor(pickNumber int) (Slot, error) {
	n := len(r.PickOrder)
	if n == 0 {
		return Slot{}, fmt.Errorf("empty pick order: %w", ErrOutOfRange)
	}
	if pickNumber < 1 || pickNumber > r.TotalPicks() {
		return Slot{}, fmt.Errorf("pick %d of %d: %w", pickNumber, r.TotalPicks(), ErrOutOfRange)
	}

	idx := pickNumber - 1
	round := idx/n + 1
	inRound := idx % n

	teamIdx := inRound
	if r.Reversed(round) {
		teamIdx = n - 1 - inRound
	}

	return Slot{
		PickNumber:  pickNumber,
		Round:       round,
		PickInRound: inRound + 1,
		TeamID:      r.PickOrder[teamIdx],
	}, nil
}

// Slots lists every slot of the draft in pick order.
func (r Rules) Slots() []Slot {
	slots := make([]Slot, 0, r.TotalPicks())
	for p := 1; p <= r.TotalPicks(); p++ {
		s, _ := r.SlotFor(p)
		slots = append(slots, s)
	}
	return slots
}

// Shuffle returns a randomized copy of teams. The input is left untouched.
func Shuffle(teams []uuid.UUID, rng *rand.Rand) []uuid.UUID {
	out := make([]uuid.UUID, len(teams))
	copy(out, teams)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

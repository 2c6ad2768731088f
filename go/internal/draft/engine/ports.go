package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// PlayerCatalog supplies the player pool and rankings.
type PlayerCatalog interface {
	ListAvailablePlayers(ctx context.Context, draftID uuid.UUID) ([]models.PlayerRef, error)
	// Rank orders players for auto-pick fallback. Lower is better.
	Rank(playerID uuid.UUID) float64
}

// Store is the durability hook. LoadDraftState returns state.ErrDraftNotFound
// when nothing is stored.
type Store interface {
	LoadDraftState(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error)
	SaveDraftState(ctx context.Context, s *state.DraftState) error
}

// EventHandler receives every event the engine emits, in emission order per draft.
// Handlers run on the dispatcher goroutine and must not block.
type EventHandler func(evt events.Event)

// Package commissioner authorizes privileged draft actions before they reach the engine.
package commissioner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/rs/zerolog/log"
)

// LeagueDirectory resolves league membership.
type LeagueDirectory interface {
	CommissionerID(ctx context.Context, leagueID uuid.UUID) (uuid.UUID, error)
	TeamForUser(ctx context.Context, leagueID, userID uuid.UUID) (uuid.UUID, error)
}

// Engine is the part of the engine commissioner actions go through.
type Engine interface {
	GetState(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error)
	ExecuteCommissionerAction(ctx context.Context, draftID uuid.UUID, action engine.CommissionerAction) (engine.ActionResult, error)
}

// Gateway forwards commissioner actions once the actor is verified.
type Gateway struct {
	engine    Engine
	directory LeagueDirectory
	metrics   metrics.Collector
}

// NewGateway creates a Gateway. A nil collector records nothing.
func NewGateway(e Engine, dir LeagueDirectory, m metrics.Collector) *Gateway {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Gateway{engine: e, directory: dir, metrics: m}
}

// Authorize returns ErrUnauthorized unless actorID commissions the draft's league.
func (g *Gateway) Authorize(ctx context.Context, actorID, draftID uuid.UUID) error {
	s, err := g.engine.GetState(ctx, draftID)
	if err != nil {
		return err
	}
	return g.AuthorizeLeague(ctx, actorID, s.LeagueID)
}

// AuthorizeLeague returns ErrUnauthorized unless actorID commissions leagueID.
// It does not need the draft to be loaded.
func (g *Gateway) AuthorizeLeague(ctx context.Context, actorID, leagueID uuid.UUID) error {
	commish, err := g.directory.CommissionerID(ctx, leagueID)
	if err != nil {
		return fmt.Errorf("failed to resolve commissioner for league %s: %w", leagueID, err)
	}
	if actorID == uuid.Nil || actorID != commish {
		return fmt.Errorf("user %s is not commissioner of league %s: %w", actorID, leagueID, state.ErrUnauthorized)
	}
	return nil
}

// Execute authorizes actorID and applies action to the draft.
func (g *Gateway) Execute(ctx context.Context, actorID, draftID uuid.UUID, action engine.CommissionerAction) (engine.ActionResult, error) {
	if !action.Type.Valid() {
		return engine.ActionResult{}, fmt.Errorf("unknown commissioner action %q: %w", action.Type, state.ErrInvalidTransition)
	}
	if err := g.Authorize(ctx, actorID, draftID); err != nil {
		log.Warn().
			Err(err).
			Str("draft_id", draftID.String()).
			Str("actor_id", actorID.String()).
			Str("action", string(action.Type)).
			Msg("commissioner action rejected")
		g.metrics.RecordRejection(state.Code(err))
		return engine.ActionResult{}, err
	}

	action.ActorID = actorID
	return g.engine.ExecuteCommissionerAction(ctx, draftID, action)
}

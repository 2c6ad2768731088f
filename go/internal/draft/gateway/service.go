// Package gateway is the realtime broadcaster: authenticated websocket rooms per
// draft, fed by engine events.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Engine is the part of the draft engine the gateway drives.
type Engine interface {
	Subscribe(h engine.EventHandler) func()
	GetState(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error)
	SubmitPick(ctx context.Context, req engine.PickRequest) (models.DraftPick, error)
	SetAutoPickQueue(ctx context.Context, draftID, teamID uuid.UUID, playerIDs []uuid.UUID) error
	SetConnectionStatus(ctx context.Context, draftID, teamID uuid.UUID, status state.ConnectionStatus) error
	Chat(ctx context.Context, draftID uuid.UUID, msg events.ChatMessagePayload) error
}

// Commissioner executes privileged actions after authorizing the actor.
type Commissioner interface {
	Execute(ctx context.Context, actorID, draftID uuid.UUID, action engine.CommissionerAction) (engine.ActionResult, error)
}

// LeagueDirectory resolves league membership.
type LeagueDirectory interface {
	CommissionerID(ctx context.Context, leagueID uuid.UUID) (uuid.UUID, error)
	TeamForUser(ctx context.Context, leagueID, userID uuid.UUID) (uuid.UUID, error)
}

// Config holds configuration for the gateway.
type Config struct {
	ConnectionConfig ConnectionConfig
	// PresenceTimeout bounds each connection status update sent to the engine.
	PresenceTimeout time.Duration
}

// DefaultConfig returns default configuration for the gateway.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		PresenceTimeout:  5 * time.Second,
	}
}

// Service wires the connection manager to the engine.
type Service struct {
	config       Config
	engine       Engine
	manager      *ConnectionManager
	wsHandler    *WebSocketHandler
	stateHandler *StateHandler
	unsubscribe  func()
}

// NewService creates the gateway service.
func NewService(config Config, e Engine, commish Commissioner, dir LeagueDirectory, auth *Authenticator, m metrics.Collector) *Service {
	cm := NewConnectionManager(config.ConnectionConfig, m)
	s := &Service{
		config:       config,
		engine:       e,
		manager:      cm,
		wsHandler:    NewWebSocketHandler(cm, auth, e, commish, dir),
		stateHandler: NewStateHandler(e, auth),
	}
	cm.presence = s.updatePresence
	s.unsubscribe = e.Subscribe(cm.Broadcast)
	return s
}

// Start fans engine events out to the rooms until ctx is done, then closes
// every socket and stops listening to the engine.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting draft gateway service")
	defer s.unsubscribe()

	s.manager.Start(ctx)
	log.Info().Msg("draft gateway service stopped")
}

// RegisterRoutes registers the websocket and state routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterRoutes(mux)
	log.Info().Msg("draft gateway routes registered")
}

// Stats returns connection counts.
func (s *Service) Stats() Stats {
	return s.manager.Stats()
}

func (s *Service) updatePresence(draftID, teamID uuid.UUID, status state.ConnectionStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.PresenceTimeout)
	defer cancel()
	if err := s.engine.SetConnectionStatus(ctx, draftID, teamID, status); err != nil {
		log.Debug().
			Err(err).
			Str("draft_id", draftID.String()).
			Str("team_id", teamID.String()).
			Str("status", string(status)).
			Msg("presence update not applied")
	}
}

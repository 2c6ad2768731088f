// Package rpc exposes the engine's command surface as connect unary procedures.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Engine is the part of the draft engine the service drives.
type Engine interface {
	Initialize(ctx context.Context, d models.Draft, teams []models.FantasyTeam) (*state.DraftState, error)
	Start(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error)
	SubmitPick(ctx context.Context, req engine.PickRequest) (models.DraftPick, error)
	GetState(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error)
}

// Commissioner authorizes and executes privileged actions.
type Commissioner interface {
	Authorize(ctx context.Context, actorID, draftID uuid.UUID) error
	AuthorizeLeague(ctx context.Context, actorID, leagueID uuid.UUID) error
	Execute(ctx context.Context, actorID, draftID uuid.UUID, action engine.CommissionerAction) (engine.ActionResult, error)
}

// LeagueDirectory resolves which team a user drafts for.
type LeagueDirectory interface {
	TeamForUser(ctx context.Context, leagueID, userID uuid.UUID) (uuid.UUID, error)
}

// DraftSource supplies drafts that have not been loaded into the engine yet.
type DraftSource interface {
	Draft(draftID uuid.UUID) (models.Draft, []models.FantasyTeam, bool)
}

// Service implements the draft command procedures.
type Service struct {
	engine    Engine
	commish   Commissioner
	directory LeagueDirectory
	drafts    DraftSource
}

// NewService creates a new draft command service.
func NewService(e Engine, commish Commissioner, dir LeagueDirectory, drafts DraftSource) *Service {
	return &Service{engine: e, commish: commish, directory: dir, drafts: drafts}
}

// NewHandler mounts the service's procedures and returns the path prefix to
// register them under.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(StartDraftProcedure, connect.NewUnaryHandler(StartDraftProcedure, svc.StartDraft, opts...))
	mux.Handle(SubmitPickProcedure, connect.NewUnaryHandler(SubmitPickProcedure, svc.SubmitPick, opts...))
	mux.Handle(ExecuteCommissionerActionProcedure, connect.NewUnaryHandler(ExecuteCommissionerActionProcedure, svc.ExecuteCommissionerAction, opts...))
	mux.Handle(GetDraftStateProcedure, connect.NewUnaryHandler(GetDraftStateProcedure, svc.GetDraftState, opts...))
	return "/" + ServiceName + "/", mux
}

func caller(ctx context.Context) (uuid.UUID, error) {
	userID, ok := UserFromContext(ctx)
	if !ok {
		return uuid.Nil, connect.NewError(connect.CodeUnauthenticated, errors.New("no authenticated user"))
	}
	return userID, nil
}

// StartDraft loads the draft into the engine if needed and starts it. Only the
// league commissioner may start a draft.
func (s *Service) StartDraft(ctx context.Context, req *connect.Request[StartDraftRequest]) (*connect.Response[StartDraftResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	draftID := req.Msg.DraftID

	_, err = s.engine.GetState(ctx, draftID)
	switch {
	case errors.Is(err, state.ErrDraftNotFound):
		d, teams, ok := s.drafts.Draft(draftID)
		if !ok {
			return nil, toConnectError(err)
		}
		// Nothing is loaded for callers who may not start the draft.
		if err := s.commish.AuthorizeLeague(ctx, userID, d.LeagueID); err != nil {
			return nil, toConnectError(err)
		}
		if _, err := s.engine.Initialize(ctx, d, teams); err != nil {
			return nil, toConnectError(err)
		}
	case err != nil:
		return nil, toConnectError(err)
	default:
		if err := s.commish.Authorize(ctx, userID, draftID); err != nil {
			return nil, toConnectError(err)
		}
	}

	st, err := s.engine.Start(ctx, draftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	log.Info().Str("draft_id", draftID.String()).Str("user_id", userID.String()).Msg("draft started over rpc")
	return connect.NewResponse(&StartDraftResponse{State: st}), nil
}

// SubmitPick records a pick for a team the caller owns.
func (s *Service) SubmitPick(ctx context.Context, req *connect.Request[SubmitPickRequest]) (*connect.Response[SubmitPickResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	st, err := s.engine.GetState(ctx, msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	owned, err := s.directory.TeamForUser(ctx, st.LeagueID, userID)
	if err != nil || owned != msg.TeamID {
		return nil, toConnectError(fmt.Errorf("user %s does not own team %s: %w", userID, msg.TeamID, state.ErrUnauthorized))
	}

	pick, err := s.engine.SubmitPick(ctx, engine.PickRequest{
		DraftID:    msg.DraftID,
		TeamID:     msg.TeamID,
		PlayerID:   msg.PlayerID,
		PickNumber: msg.PickNumber,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SubmitPickResponse{Pick: pick}), nil
}

// ExecuteCommissionerAction applies a privileged action as the caller.
func (s *Service) ExecuteCommissionerAction(ctx context.Context, req *connect.Request[ExecuteCommissionerActionRequest]) (*connect.Response[ExecuteCommissionerActionResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !req.Msg.Action.Type.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown commissioner action %q", req.Msg.Action.Type))
	}
	res, err := s.commish.Execute(ctx, userID, req.Msg.DraftID, req.Msg.Action)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ExecuteCommissionerActionResponse{Result: res}), nil
}

// GetDraftState returns the current snapshot.
func (s *Service) GetDraftState(ctx context.Context, req *connect.Request[GetDraftStateRequest]) (*connect.Response[GetDraftStateResponse], error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	st, err := s.engine.GetState(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetDraftStateResponse{State: st}), nil
}

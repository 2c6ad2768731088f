package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// Client calls the draft command service.
type Client struct {
	startDraft   *connect.Client[StartDraftRequest, StartDraftResponse]
	submitPick   *connect.Client[SubmitPickRequest, SubmitPickResponse]
	commissioner *connect.Client[ExecuteCommissionerActionRequest, ExecuteCommissionerActionResponse]
	getState     *connect.Client[GetDraftStateRequest, GetDraftStateResponse]
}

// NewClient creates a client for the service at baseURL, authenticating with token.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(newBearerInterceptor(token)),
	}, opts...)
	return &Client{
		startDraft:   connect.NewClient[StartDraftRequest, StartDraftResponse](httpClient, baseURL+StartDraftProcedure, opts...),
		submitPick:   connect.NewClient[SubmitPickRequest, SubmitPickResponse](httpClient, baseURL+SubmitPickProcedure, opts...),
		commissioner: connect.NewClient[ExecuteCommissionerActionRequest, ExecuteCommissionerActionResponse](httpClient, baseURL+ExecuteCommissionerActionProcedure, opts...),
		getState:     connect.NewClient[GetDraftStateRequest, GetDraftStateResponse](httpClient, baseURL+GetDraftStateProcedure, opts...),
	}
}

func (c *Client) StartDraft(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error) {
	res, err := c.startDraft.CallUnary(ctx, connect.NewRequest(&StartDraftRequest{DraftID: draftID}))
	if err != nil {
		return nil, err
	}
	return res.Msg.State, nil
}

func (c *Client) SubmitPick(ctx context.Context, req SubmitPickRequest) (models.DraftPick, error) {
	res, err := c.submitPick.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return models.DraftPick{}, err
	}
	return res.Msg.Pick, nil
}

func (c *Client) ExecuteCommissionerAction(ctx context.Context, draftID uuid.UUID, action engine.CommissionerAction) (engine.ActionResult, error) {
	res, err := c.commissioner.CallUnary(ctx, connect.NewRequest(&ExecuteCommissionerActionRequest{DraftID: draftID, Action: action}))
	if err != nil {
		return engine.ActionResult{}, err
	}
	return res.Msg.Result, nil
}

func (c *Client) GetDraftState(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error) {
	res, err := c.getState.CallUnary(ctx, connect.NewRequest(&GetDraftStateRequest{DraftID: draftID}))
	if err != nil {
		return nil, err
	}
	return res.Msg.State, nil
}

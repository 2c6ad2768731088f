package rpc

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
)

// ErrorCodeHeader carries the draft error code alongside the connect code.
const ErrorCodeHeader = "Draft-Error-Code"

func toConnectError(err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, state.ErrDraftNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, state.ErrUnauthorized):
		code = connect.CodePermissionDenied
	case errors.Is(err, state.ErrPickAlreadyMade):
		code = connect.CodeAborted
	case errors.Is(err, state.ErrUnknownTeam), errors.Is(err, state.ErrInvalidSettings):
		code = connect.CodeInvalidArgument
	case errors.Is(err, state.ErrNotYourTurn),
		errors.Is(err, state.ErrInvalidTransition),
		errors.Is(err, state.ErrPlayerUnavailable),
		errors.Is(err, state.ErrRosterFull),
		errors.Is(err, state.ErrPositionLimitExceeded),
		errors.Is(err, state.ErrNothingToUndo),
		errors.Is(err, state.ErrNoEligiblePlayers):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, engine.ErrEngineClosed):
		code = connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	default:
		code = connect.CodeInternal
	}

	cerr := connect.NewError(code, err)
	cerr.Meta().Set(ErrorCodeHeader, state.Code(err))
	return cerr
}

// DraftErrorCode returns the draft error code of an error returned by Client.
func DraftErrorCode(err error) string {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr.Meta().Get(ErrorCodeHeader)
	}
	return ""
}

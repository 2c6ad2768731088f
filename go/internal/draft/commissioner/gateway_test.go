package commissioner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	states  map[uuid.UUID]*state.DraftState
	applied []engine.CommissionerAction
}

func (f *fakeEngine) GetState(_ context.Context, draftID uuid.UUID) (*state.DraftState, error) {
	s, ok := f.states[draftID]
	if !ok {
		return nil, state.ErrDraftNotFound
	}
	return s, nil
}

func (f *fakeEngine) ExecuteCommissionerAction(_ context.Context, draftID uuid.UUID, action engine.CommissionerAction) (engine.ActionResult, error) {
	f.applied = append(f.applied, action)
	return engine.ActionResult{Action: action.Type, State: f.states[draftID]}, nil
}

type fakeDirectory map[uuid.UUID]uuid.UUID

func (d fakeDirectory) CommissionerID(_ context.Context, leagueID uuid.UUID) (uuid.UUID, error) {
	id, ok := d[leagueID]
	if !ok {
		return uuid.Nil, assert.AnError
	}
	return id, nil
}

func (d fakeDirectory) TeamForUser(context.Context, uuid.UUID, uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, assert.AnError
}

type rejections struct {
	metrics.NoOp
	reasons []string
}

func (r *rejections) RecordRejection(reason string) { r.reasons = append(r.reasons, reason) }

func setup() (*Gateway, *fakeEngine, *rejections, uuid.UUID, uuid.UUID) {
	leagueID, draftID, commish := uuid.New(), uuid.New(), uuid.New()
	fe := &fakeEngine{states: map[uuid.UUID]*state.DraftState{
		draftID: {DraftID: draftID, LeagueID: leagueID, Status: models.DraftStatusInProgress},
	}}
	rec := &rejections{}
	return NewGateway(fe, fakeDirectory{leagueID: commish}, rec), fe, rec, draftID, commish
}

func TestExecuteForwardsForCommissioner(t *testing.T) {
	gw, fe, _, draftID, commish := setup()

	res, err := gw.Execute(context.Background(), commish, draftID, engine.CommissionerAction{Type: engine.ActionPauseDraft})
	require.NoError(t, err)
	assert.Equal(t, engine.ActionPauseDraft, res.Action)
	require.Len(t, fe.applied, 1)
	assert.Equal(t, commish, fe.applied[0].ActorID)
}

func TestExecuteOverridesClaimedActor(t *testing.T) {
	gw, fe, _, draftID, commish := setup()

	_, err := gw.Execute(context.Background(), commish, draftID, engine.CommissionerAction{Type: engine.ActionUndoPick, ActorID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, commish, fe.applied[0].ActorID)
}

func TestExecuteRejectsNonCommissioner(t *testing.T) {
	gw, fe, rec, draftID, _ := setup()

	_, err := gw.Execute(context.Background(), uuid.New(), draftID, engine.CommissionerAction{Type: engine.ActionEndDraft})
	assert.ErrorIs(t, err, state.ErrUnauthorized)
	assert.Empty(t, fe.applied)
	assert.Equal(t, []string{"UNAUTHORIZED"}, rec.reasons)

	_, err = gw.Execute(context.Background(), uuid.Nil, draftID, engine.CommissionerAction{Type: engine.ActionEndDraft})
	assert.ErrorIs(t, err, state.ErrUnauthorized)
}

func TestExecuteUnknownDraftAndAction(t *testing.T) {
	gw, fe, _, draftID, commish := setup()

	_, err := gw.Execute(context.Background(), commish, uuid.New(), engine.CommissionerAction{Type: engine.ActionResetTimer})
	assert.ErrorIs(t, err, state.ErrDraftNotFound)

	_, err = gw.Execute(context.Background(), commish, draftID, engine.CommissionerAction{Type: "rewind"})
	assert.ErrorIs(t, err, state.ErrInvalidTransition)
	assert.Empty(t, fe.applied)
}

func TestAuthorizeDirectoryFailure(t *testing.T) {
	leagueID, draftID := uuid.New(), uuid.New()
	fe := &fakeEngine{states: map[uuid.UUID]*state.DraftState{draftID: {DraftID: draftID, LeagueID: leagueID}}}
	gw := NewGateway(fe, fakeDirectory{}, nil)

	err := gw.Authorize(context.Background(), uuid.New(), draftID)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAuthorizeLeagueWithoutLoadedDraft(t *testing.T) {
	leagueID, commish := uuid.New(), uuid.New()
	fe := &fakeEngine{states: map[uuid.UUID]*state.DraftState{}}
	gw := NewGateway(fe, fakeDirectory{leagueID: commish}, nil)
	ctx := context.Background()

	require.NoError(t, gw.AuthorizeLeague(ctx, commish, leagueID))
	assert.ErrorIs(t, gw.AuthorizeLeague(ctx, uuid.New(), leagueID), state.ErrUnauthorized)
	assert.ErrorIs(t, gw.AuthorizeLeague(ctx, uuid.Nil, leagueID), state.ErrUnauthorized)
	assert.ErrorIs(t, gw.AuthorizeLeague(ctx, commish, uuid.New()), assert.AnError)
}

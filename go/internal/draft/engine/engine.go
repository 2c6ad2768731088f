// Package engine is the draft state machine. Each live draft is owned by one
// actor goroutine that applies commands in arrival order; clock expiries arrive
// as commands on the same queue as user requests.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/mcdev12/draftroom/go/internal/draft/order"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/draft/store"
	"github.com/mcdev12/draftroom/go/internal/draft/validator"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrEngineClosed is returned after Shutdown.
var ErrEngineClosed = errors.New("draft engine is shut down")

var errActorGone = errors.New("draft actor released")

// Config wires the engine's collaborators. Catalog is required.
type Config struct {
	Catalog  PlayerCatalog
	Roster   validator.RosterSettings
	Store    Store
	Metrics  metrics.Collector
	AutoPick AutoPickStrategy
	Clock    clockwork.Clock
	Rand     *rand.Rand

	// TickInterval enables TimerTick events when positive.
	TickInterval time.Duration
	// IdleTimeout pauses an in-progress draft nobody is connected to.
	IdleTimeout time.Duration
	// AbandonTimeout releases drafts that were never started.
	AbandonTimeout  time.Duration
	JanitorInterval time.Duration

	CommandBuffer  int
	EventBuffer    int
	PersistBackoff time.Duration
}

type subscriber struct {
	id int
	h  EventHandler
}

// Engine serves many drafts concurrently. Drafts never share a lock.
type Engine struct {
	cfg       Config
	clock     clockwork.Clock
	validator *validator.Validator
	autoPick  AutoPickStrategy
	metrics   metrics.Collector
	persister *Persister

	rngMu sync.Mutex
	rng   *rand.Rand

	initMu sync.Mutex
	mu     sync.RWMutex
	actors map[uuid.UUID]*actor

	subsMu  sync.RWMutex
	subs    []subscriber
	nextSub int

	events chan events.Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates an engine and starts its dispatcher, persister and janitor.
func New(cfg Config) *Engine {
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoOp{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.AutoPick == nil {
		cfg.AutoPick = QueueThenRank{Rank: cfg.Catalog.Rank}
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 64
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 1024
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:       cfg,
		clock:     cfg.Clock,
		validator: validator.New(cfg.Roster),
		autoPick:  cfg.AutoPick,
		metrics:   cfg.Metrics,
		persister: NewPersister(cfg.Store, cfg.Metrics, cfg.PersistBackoff),
		rng:       cfg.Rand,
		actors:    make(map[uuid.UUID]*actor),
		events:    make(chan events.Event, cfg.EventBuffer),
		ctx:       ctx,
		cancel:    cancel,
	}

	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.dispatch()
	}()
	go func() {
		defer e.wg.Done()
		e.persister.Run(ctx)
	}()
	if cfg.JanitorInterval > 0 && (cfg.IdleTimeout > 0 || cfg.AbandonTimeout > 0) {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.runJanitor()
		}()
	}
	return e
}

// Subscribe registers h for all future events and returns a function that removes it.
func (e *Engine) Subscribe(h EventHandler) func() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscriber{id: id, h: h})
	return func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Initialize builds the draft's initial state. Calling it again for a known
// draft returns the existing state unchanged.
func (e *Engine) Initialize(ctx context.Context, d models.Draft, teams []models.FantasyTeam) (*state.DraftState, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if existing, err := e.GetState(ctx, d.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, state.ErrDraftNotFound) {
		return nil, err
	}

	teamIDs, err := teamOrder(d, teams)
	if err != nil {
		return nil, err
	}
	if d.Settings.Rounds < 1 || d.Settings.TimePerPickSec < 1 {
		return nil, fmt.Errorf("rounds=%d time_per_pick_sec=%d: %w", d.Settings.Rounds, d.Settings.TimePerPickSec, state.ErrInvalidSettings)
	}
	draftType := d.DraftType
	switch draftType {
	case "":
		draftType = models.DraftTypeSnake
	case models.DraftTypeSnake, models.DraftTypeLinear, models.DraftTypeAuction:
	default:
		return nil, fmt.Errorf("draft type %q: %w", draftType, state.ErrInvalidSettings)
	}

	players, err := e.cfg.Catalog.ListAvailablePlayers(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("list available players for draft %s: %w", d.ID, err)
	}

	pickOrder := teamIDs
	if d.Settings.RandomizeOrder {
		e.rngMu.Lock()
		pickOrder = order.Shuffle(teamIDs, e.rng)
		e.rngMu.Unlock()
	}

	byID := make(map[uuid.UUID]models.FantasyTeam, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}

	now := e.clock.Now()
	s := &state.DraftState{
		DraftID:          d.ID,
		LeagueID:         d.LeagueID,
		DraftType:        draftType,
		Settings:         d.Settings,
		Status:           models.DraftStatusNotStarted,
		TimeRemainingMs:  d.Settings.PickDuration().Milliseconds(),
		TotalPicks:       len(pickOrder) * d.Settings.Rounds,
		PickOrder:        pickOrder,
		AvailablePlayers: make(map[uuid.UUID]models.PlayerRef, len(players)),
		DraftedPlayers:   make(map[uuid.UUID]models.PlayerRef),
		LastActivity:     now,
		Version:          1,
	}
	for _, p := range players {
		s.AvailablePlayers[p.ID] = p
	}
	for _, id := range teamIDs {
		t := byID[id]
		s.Teams = append(s.Teams, state.TeamState{
			TeamID:           id,
			Name:             t.Name,
			OwnerID:          t.OwnerID,
			ConnectionStatus: state.Disconnected,
		})
	}
	if err := s.PositionTo(1); err != nil {
		return nil, err
	}

	out := s.Clone()
	e.persister.Enqueue(s.Clone())
	if _, err := e.adopt(s); err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Str("draft_type", string(draftType)).
		Int("teams", len(pickOrder)).
		Int("players", len(players)).
		Msg("draft initialized")
	return out, nil
}

func teamOrder(d models.Draft, teams []models.FantasyTeam) ([]uuid.UUID, error) {
	ids := d.TeamIDs
	if len(ids) == 0 {
		for _, t := range teams {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no teams: %w", state.ErrInvalidSettings)
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("team %s listed twice: %w", id, state.ErrInvalidSettings)
		}
		seen[id] = struct{}{}
	}
	return append([]uuid.UUID(nil), ids...), nil
}

// Start moves the draft from NOT_STARTED to IN_PROGRESS and arms the clock for pick 1.
func (e *Engine) Start(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error) {
	v, err := e.do(ctx, draftID, func(a *actor) (any, error) {
		if err := a.start(); err != nil {
			return nil, err
		}
		return a.snapshot(), nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return v.(*state.DraftState), nil
}

// SubmitPick records a pick for the team on the clock.
func (e *Engine) SubmitPick(ctx context.Context, req PickRequest) (models.DraftPick, error) {
	v, err := e.do(ctx, req.DraftID, func(a *actor) (any, error) {
		return a.submitPick(req)
	}, func(s *state.DraftState) (any, error) {
		if err := stalePick(s, req); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("draft is %s: %w", s.Status, state.ErrInvalidTransition)
	})
	if err != nil {
		e.metrics.RecordRejection(state.Code(err))
		log.Debug().Err(err).
			Str("draft_id", req.DraftID.String()).
			Str("team_id", req.TeamID.String()).
			Str("player_id", req.PlayerID.String()).
			Msg("pick rejected")
		return models.DraftPick{}, err
	}
	return v.(models.DraftPick), nil
}

// Pause stops the clock and keeps the time left on it.
func (e *Engine) Pause(ctx context.Context, draftID uuid.UUID, reason string) error {
	_, err := e.do(ctx, draftID, func(a *actor) (any, error) {
		return nil, a.pause(reason)
	}, nil)
	return err
}

// Resume restarts the clock with the time that was left at pause.
func (e *Engine) Resume(ctx context.Context, draftID uuid.UUID) error {
	_, err := e.do(ctx, draftID, func(a *actor) (any, error) {
		return nil, a.resume()
	}, nil)
	return err
}

// ExecuteCommissionerAction applies a privileged action. Authorization is the
// caller's job.
func (e *Engine) ExecuteCommissionerAction(ctx context.Context, draftID uuid.UUID, action CommissionerAction) (ActionResult, error) {
	if !action.Type.Valid() {
		return ActionResult{}, fmt.Errorf("unknown commissioner action %q: %w", action.Type, state.ErrInvalidTransition)
	}
	v, err := e.do(ctx, draftID, func(a *actor) (any, error) {
		return a.commissioner(action)
	}, nil)
	if err != nil {
		return ActionResult{}, err
	}
	e.metrics.RecordCommissionerAction(string(action.Type))
	return v.(ActionResult), nil
}

// SetAutoPickQueue replaces a team's ranked auto-pick list.
func (e *Engine) SetAutoPickQueue(ctx context.Context, draftID, teamID uuid.UUID, playerIDs []uuid.UUID) error {
	_, err := e.do(ctx, draftID, func(a *actor) (any, error) {
		return nil, a.setAutoPickQueue(teamID, playerIDs)
	}, nil)
	return err
}

// SetConnectionStatus records a team's presence.
func (e *Engine) SetConnectionStatus(ctx context.Context, draftID, teamID uuid.UUID, status state.ConnectionStatus) error {
	_, err := e.do(ctx, draftID, func(a *actor) (any, error) {
		return nil, a.setConnectionStatus(teamID, status)
	}, nil)
	return err
}

// Chat relays a room message to every subscriber in draft order. It does not
// change draft state.
func (e *Engine) Chat(ctx context.Context, draftID uuid.UUID, msg events.ChatMessagePayload) error {
	if strings.TrimSpace(msg.Message) == "" {
		return fmt.Errorf("empty chat message: %w", state.ErrInvalidTransition)
	}
	_, err := e.do(ctx, draftID, func(a *actor) (any, error) {
		a.emit(events.EventTypeChatMessage, msg)
		return nil, nil
	}, nil)
	return err
}

// GetState returns a consistent copy of the draft. Released drafts are served
// from their last snapshot.
func (e *Engine) GetState(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error) {
	v, err := e.do(ctx, draftID, func(a *actor) (any, error) {
		return a.snapshot(), nil
	}, func(s *state.DraftState) (any, error) {
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*state.DraftState), nil
}

// ActiveDrafts is the number of drafts held in memory.
func (e *Engine) ActiveDrafts() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.actors)
}

// Shutdown stops every actor, clock and background loop and makes a last attempt
// at saving pending snapshots.
func (e *Engine) Shutdown(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.mu.RLock()
	actors := make([]*actor, 0, len(e.actors))
	for _, a := range e.actors {
		actors = append(actors, a)
	}
	e.mu.RUnlock()

	e.cancel()
	for _, a := range actors {
		select {
		case <-a.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if failed := e.persister.Flush(ctx); failed > 0 {
		return fmt.Errorf("%d draft snapshots not saved on shutdown", failed)
	}
	log.Info().Int("drafts", len(actors)).Msg("draft engine stopped")
	return nil
}

// do runs fn on the draft's actor. When the draft is terminal and no actor
// exists, terminal is called with the last snapshot instead.
func (e *Engine) do(ctx context.Context, draftID uuid.UUID, fn func(a *actor) (any, error), terminal func(s *state.DraftState) (any, error)) (any, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	if terminal == nil {
		terminal = func(s *state.DraftState) (any, error) {
			return nil, fmt.Errorf("draft is %s: %w", s.Status, state.ErrInvalidTransition)
		}
	}

	for attempt := 0; attempt < 3; attempt++ {
		a, snap, err := e.actorFor(ctx, draftID)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return terminal(snap)
		}
		v, err := a.call(ctx, fn)
		if errors.Is(err, errActorGone) {
			continue
		}
		return v, err
	}
	return nil, fmt.Errorf("draft %s: %w", draftID, errActorGone)
}

func (e *Engine) actorFor(ctx context.Context, draftID uuid.UUID) (*actor, *state.DraftState, error) {
	e.mu.RLock()
	a := e.actors[draftID]
	e.mu.RUnlock()
	if a != nil {
		return a, nil, nil
	}

	s, err := e.loadSnapshot(ctx, draftID)
	if err != nil {
		return nil, nil, err
	}
	if s.Status.Terminal() {
		return nil, s, nil
	}
	a, err = e.adopt(s)
	return a, nil, err
}

func (e *Engine) loadSnapshot(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error) {
	if s := e.persister.Pending(draftID); s != nil {
		return s, nil
	}
	s, err := e.cfg.Store.LoadDraftState(ctx, draftID)
	if err != nil {
		if errors.Is(err, state.ErrDraftNotFound) {
			return nil, fmt.Errorf("draft %s: %w", draftID, state.ErrDraftNotFound)
		}
		return nil, fmt.Errorf("load draft %s: %w", draftID, err)
	}
	return s, nil
}

// adopt starts an actor for s unless one is already running for the draft.
func (e *Engine) adopt(s *state.DraftState) (*actor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	if a, ok := e.actors[s.DraftID]; ok {
		return a, nil
	}
	a := newActor(e, s)
	e.actors[s.DraftID] = a
	e.metrics.DraftActivated()

	if s.Status == models.DraftStatusInProgress {
		remaining := time.Duration(s.TimeRemainingMs) * time.Millisecond
		if remaining <= 0 {
			remaining = s.Settings.PickDuration()
		}
		a.arm(remaining)
		log.Info().
			Str("draft_id", s.DraftID.String()).
			Int("pick_number", s.CurrentPickNumber).
			Dur("remaining", remaining).
			Msg("resumed draft clock from snapshot")
	}

	go a.run()
	return a, nil
}

func (e *Engine) release(a *actor) {
	e.mu.Lock()
	if e.actors[a.id] == a {
		delete(e.actors, a.id)
		e.metrics.DraftReleased()
	}
	e.mu.Unlock()
	log.Info().Str("draft_id", a.id.String()).Str("status", string(a.s.Status)).Msg("draft released")
}

func (e *Engine) publish(evt events.Event) {
	select {
	case e.events <- evt:
	case <-e.ctx.Done():
	}
}

func (e *Engine) dispatch() {
	for {
		select {
		case evt := <-e.events:
			e.deliver(evt)
		case <-e.ctx.Done():
			for {
				select {
				case evt := <-e.events:
					e.deliver(evt)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) deliver(evt events.Event) {
	e.subsMu.RLock()
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	e.subsMu.RUnlock()

	for _, s := range subs {
		s.h(evt)
	}
}

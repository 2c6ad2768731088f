package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/stretchr/testify/require"
)

var positions = []models.Position{"QB", "RB", "WR", "TE"}

type fakeCatalog struct {
	players []models.PlayerRef
	ranks   map[uuid.UUID]float64
}

func newFakeCatalog(n int) *fakeCatalog {
	c := &fakeCatalog{ranks: make(map[uuid.UUID]float64, n)}
	for i := 0; i < n; i++ {
		p := models.PlayerRef{
			ID:       uuid.New(),
			FullName: fmt.Sprintf("Player %03d", i+1),
			Position: positions[i%len(positions)],
			Rank:     float64(i + 1),
		}
		c.players = append(c.players, p)
		c.ranks[p.ID] = p.Rank
	}
	return c
}

func (c *fakeCatalog) ListAvailablePlayers(context.Context, uuid.UUID) ([]models.PlayerRef, error) {
	return c.players, nil
}

func (c *fakeCatalog) Rank(id uuid.UUID) float64 {
	if r, ok := c.ranks[id]; ok {
		return r
	}
	return 1e9
}

type rosterLimits struct {
	max    int
	perPos map[models.Position]int
}

func (l rosterLimits) CheckConstraint(_ uuid.UUID, pos models.Position, roster []models.PlayerRef) error {
	if l.max > 0 && len(roster) >= l.max {
		return state.ErrRosterFull
	}
	n := 0
	for _, p := range roster {
		if p.Position == pos {
			n++
		}
	}
	if limit, ok := l.perPos[pos]; ok && n >= limit {
		return state.ErrPositionLimitExceeded
	}
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) types(draftID uuid.UUID) []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.EventType
	for _, e := range r.events {
		if e.DraftID == draftID && e.Type != events.EventTypeTimerTick {
			out = append(out, e.Type)
		}
	}
	return out
}

func (r *recorder) count(draftID uuid.UUID, t events.EventType) int {
	n := 0
	for _, got := range r.types(draftID) {
		if got == t {
			n++
		}
	}
	return n
}

type harness struct {
	e       *Engine
	clock   *clockwork.FakeClock
	catalog *fakeCatalog
	store   Store
	rec     *recorder
}

func newHarness(t *testing.T, players int, mutate func(cfg *Config)) *harness {
	t.Helper()
	h := &harness{
		clock:   clockwork.NewFakeClockAt(time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)),
		catalog: newFakeCatalog(players),
		rec:     &recorder{},
	}
	cfg := Config{
		Catalog:        h.catalog,
		Clock:          h.clock,
		PersistBackoff: 5 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	h.e = New(cfg)
	h.store = h.e.cfg.Store
	h.e.Subscribe(h.rec.handle)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.e.Shutdown(ctx)
	})
	return h
}

func newTeams(n int) []models.FantasyTeam {
	teams := make([]models.FantasyTeam, n)
	for i := range teams {
		teams[i] = models.FantasyTeam{
			ID:      uuid.New(),
			OwnerID: uuid.New(),
			Name:    fmt.Sprintf("T%d", i+1),
		}
	}
	return teams
}

func (h *harness) setup(t *testing.T, nTeams, rounds, secs int) (models.Draft, []models.FantasyTeam) {
	t.Helper()
	teams := newTeams(nTeams)
	d := models.Draft{
		ID:        uuid.New(),
		LeagueID:  uuid.New(),
		DraftType: models.DraftTypeSnake,
		Settings:  models.DraftSettings{Rounds: rounds, TimePerPickSec: secs},
	}
	for _, tm := range teams {
		d.TeamIDs = append(d.TeamIDs, tm.ID)
	}
	_, err := h.e.Initialize(context.Background(), d, teams)
	require.NoError(t, err)
	return d, teams
}

func (h *harness) started(t *testing.T, nTeams, rounds, secs int) (models.Draft, []models.FantasyTeam) {
	t.Helper()
	d, teams := h.setup(t, nTeams, rounds, secs)
	_, err := h.e.Start(context.Background(), d.ID)
	require.NoError(t, err)
	return d, teams
}

func (h *harness) state(t *testing.T, id uuid.UUID) *state.DraftState {
	t.Helper()
	s, err := h.e.GetState(context.Background(), id)
	require.NoError(t, err)
	return s
}

// pickBest submits the best available player for whoever is on the clock.
func (h *harness) pickBest(t *testing.T, id uuid.UUID) models.DraftPick {
	t.Helper()
	s := h.state(t, id)
	best := s.AvailableByRank()[0]
	pick, err := h.e.SubmitPick(context.Background(), PickRequest{
		DraftID:    id,
		TeamID:     s.CurrentTeamID,
		PlayerID:   best.ID,
		PickNumber: s.CurrentPickNumber,
	})
	require.NoError(t, err)
	return pick
}

func (h *harness) waitForPicks(t *testing.T, id uuid.UUID, n int) *state.DraftState {
	t.Helper()
	var s *state.DraftState
	require.Eventually(t, func() bool {
		got, err := h.e.GetState(context.Background(), id)
		if err != nil {
			return false
		}
		s = got
		return len(got.Picks) >= n
	}, 2*time.Second, 5*time.Millisecond)
	return s
}

func (h *harness) waitForStatus(t *testing.T, id uuid.UUID, status models.DraftStatus) *state.DraftState {
	t.Helper()
	var s *state.DraftState
	require.Eventually(t, func() bool {
		got, err := h.e.GetState(context.Background(), id)
		if err != nil {
			return false
		}
		s = got
		return got.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return s
}

// fireExpiry runs the clock-expiry command for token synchronously, as if
// raised by the live countdown.
func fireExpiry(ctx context.Context, e *Engine, id uuid.UUID, token int) (models.DraftPick, error) {
	v, err := e.do(ctx, id, func(a *actor) (any, error) {
		return a.expire(token, a.armID)
	}, func(s *state.DraftState) (any, error) {
		return models.DraftPick{}, fmt.Errorf("expiry for pick %d: %w", token, state.ErrPickAlreadyMade)
	})
	if err != nil {
		return models.DraftPick{}, err
	}
	return v.(models.DraftPick), nil
}

// liveArm returns the arm id of the draft's running countdown.
func liveArm(t *testing.T, e *Engine, id uuid.UUID) uint64 {
	t.Helper()
	v, err := e.do(context.Background(), id, func(a *actor) (any, error) {
		return a.armID, nil
	}, nil)
	require.NoError(t, err)
	return v.(uint64)
}

// hold blocks the draft's actor until the returned func is called.
func hold(t *testing.T, e *Engine, id uuid.UUID) (*actor, func()) {
	t.Helper()
	entered := make(chan *actor, 1)
	release := make(chan struct{})
	go func() {
		_, _ = e.do(context.Background(), id, func(a *actor) (any, error) {
			entered <- a
			<-release
			return nil, nil
		}, nil)
	}()
	select {
	case a := <-entered:
		return a, func() { close(release) }
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for actor")
		return nil, nil
	}
}

func normalize(s *state.DraftState) *state.DraftState {
	c := s.Clone()
	c.Version = 0
	c.LastActivity = time.Time{}
	for i := range c.Picks {
		c.Picks[i].PickedAt = time.Time{}
	}
	return c
}

// Package catalog serves league, roster and player data from a YAML fixture.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	ErrLeagueNotFound = errors.New("league not found")
	ErrNotInLeague    = errors.New("user has no team in league")
)

// RosterRules bounds what a team may draft.
type RosterRules struct {
	MaxPlayers     int                     `yaml:"max_players"`
	PositionLimits map[models.Position]int `yaml:"position_limits"`
}

// DraftFixture describes a draft that can be initialized from the fixture.
type DraftFixture struct {
	ID        uuid.UUID            `yaml:"id"`
	DraftType models.DraftType     `yaml:"draft_type"`
	Settings  models.DraftSettings `yaml:"settings"`
}

// LeagueFixture is one league with its drafts.
type LeagueFixture struct {
	models.League `yaml:",inline"`
	Drafts        []DraftFixture `yaml:"drafts"`
}

// Fixture is the on-disk layout.
type Fixture struct {
	Leagues []LeagueFixture    `yaml:"leagues"`
	Roster  RosterRules        `yaml:"roster"`
	Players []models.PlayerRef `yaml:"players"`
}

type draftEntry struct {
	draft models.Draft
	teams []models.FantasyTeam
}

// Catalog implements the engine's player catalog, the validator's roster
// settings and the league directory.
type Catalog struct {
	roster  RosterRules
	players []models.PlayerRef
	ranks   map[uuid.UUID]float64
	leagues map[uuid.UUID]models.League
	drafts  map[uuid.UUID]draftEntry
}

// Load reads and parses a fixture file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read league fixture: %w", err)
	}
	return Parse(data)
}

// Parse builds a Catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse league fixture: %w", err)
	}
	return New(f)
}

// New validates f and indexes it.
func New(f Fixture) (*Catalog, error) {
	c := &Catalog{
		roster:  f.Roster,
		players: append([]models.PlayerRef(nil), f.Players...),
		ranks:   make(map[uuid.UUID]float64, len(f.Players)),
		leagues: make(map[uuid.UUID]models.League, len(f.Leagues)),
		drafts:  make(map[uuid.UUID]draftEntry),
	}

	for _, p := range f.Players {
		if p.ID == uuid.Nil {
			return nil, fmt.Errorf("player %q has no id", p.FullName)
		}
		if _, dup := c.ranks[p.ID]; dup {
			return nil, fmt.Errorf("player %s listed twice", p.ID)
		}
		c.ranks[p.ID] = p.Rank
	}
	sort.SliceStable(c.players, func(i, j int) bool { return c.players[i].Rank < c.players[j].Rank })

	for _, lf := range f.Leagues {
		league := lf.League
		if league.ID == uuid.Nil {
			return nil, fmt.Errorf("league %q has no id", league.Name)
		}
		teams := make([]models.FantasyTeam, len(league.Teams))
		teamIDs := make([]uuid.UUID, len(league.Teams))
		for i, t := range league.Teams {
			t.LeagueID = league.ID
			teams[i] = t
			teamIDs[i] = t.ID
		}
		league.Teams = teams
		c.leagues[league.ID] = league

		for _, df := range lf.Drafts {
			c.drafts[df.ID] = draftEntry{
				draft: models.Draft{
					ID:        df.ID,
					LeagueID:  league.ID,
					DraftType: df.DraftType,
					Status:    models.DraftStatusNotStarted,
					Settings:  df.Settings,
					TeamIDs:   teamIDs,
				},
				teams: teams,
			}
		}
	}
	return c, nil
}

// ListAvailablePlayers returns the full pool, best rank first.
func (c *Catalog) ListAvailablePlayers(_ context.Context, _ uuid.UUID) ([]models.PlayerRef, error) {
	return append([]models.PlayerRef(nil), c.players...), nil
}

// Rank returns the player's rank. Unknown players sort last.
func (c *Catalog) Rank(playerID uuid.UUID) float64 {
	if r, ok := c.ranks[playerID]; ok {
		return r
	}
	return float64(len(c.players) + 1)
}

// CheckConstraint enforces the roster size and per-position limits.
func (c *Catalog) CheckConstraint(teamID uuid.UUID, position models.Position, currentRoster []models.PlayerRef) error {
	if c.roster.MaxPlayers > 0 && len(currentRoster) >= c.roster.MaxPlayers {
		return fmt.Errorf("team %s has %d players: %w", teamID, len(currentRoster), state.ErrRosterFull)
	}
	limit, ok := c.roster.PositionLimits[position]
	if !ok {
		return nil
	}
	n := 0
	for _, p := range currentRoster {
		if p.Position == position {
			n++
		}
	}
	if n >= limit {
		return fmt.Errorf("team %s has %d of %d %s: %w", teamID, n, limit, position, state.ErrPositionLimitExceeded)
	}
	return nil
}

// League returns a league with its teams.
func (c *Catalog) League(_ context.Context, leagueID uuid.UUID) (models.League, error) {
	l, ok := c.leagues[leagueID]
	if !ok {
		return models.League{}, fmt.Errorf("league %s: %w", leagueID, ErrLeagueNotFound)
	}
	return l, nil
}

// CommissionerID returns the league's commissioner.
func (c *Catalog) CommissionerID(ctx context.Context, leagueID uuid.UUID) (uuid.UUID, error) {
	l, err := c.League(ctx, leagueID)
	if err != nil {
		return uuid.Nil, err
	}
	return l.CommissionerID, nil
}

// TeamForUser returns the team userID owns in the league.
func (c *Catalog) TeamForUser(ctx context.Context, leagueID, userID uuid.UUID) (uuid.UUID, error) {
	l, err := c.League(ctx, leagueID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, t := range l.Teams {
		if t.OwnerID == userID {
			return t.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("user %s in league %s: %w", userID, leagueID, ErrNotInLeague)
}

// Draft returns a fixture draft and its teams, ready for initialization.
func (c *Catalog) Draft(draftID uuid.UUID) (models.Draft, []models.FantasyTeam, bool) {
	e, ok := c.drafts[draftID]
	if !ok {
		return models.Draft{}, nil, false
	}
	return e.draft, e.teams, true
}

// Drafts lists every fixture draft id.
func (c *Catalog) Drafts() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.drafts))
	for id := range c.drafts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

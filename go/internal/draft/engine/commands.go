package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/draft/validator"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

func (a *actor) start() error {
	if a.s.Status != models.DraftStatusNotStarted {
		return fmt.Errorf("start from %s: %w", a.s.Status, state.ErrInvalidTransition)
	}
	if err := a.s.PositionTo(1); err != nil {
		return err
	}

	now := a.e.clock.Now()
	a.s.Status = models.DraftStatusInProgress
	a.s.StartedAt = &now
	a.touch()
	a.bump()

	a.emit(events.EventTypeDraftStarted, events.DraftStartedPayload{
		DraftType:   string(a.s.DraftType),
		PickOrder:   a.s.PickOrder,
		StartedAt:   now,
		TotalRounds: a.s.Settings.Rounds,
		TotalPicks:  a.s.TotalPicks,
	})
	a.startTurn(a.s.Settings.PickDuration())

	log.Info().Str("draft_id", a.id.String()).Int("total_picks", a.s.TotalPicks).Msg("draft started")
	return nil
}

// stalePick reports ErrPickAlreadyMade for requests aimed at a pick that is
// already recorded.
func stalePick(s *state.DraftState, req PickRequest) error {
	if req.PickNumber != 0 && req.PickNumber <= len(s.Picks) {
		return fmt.Errorf("pick %d: %w", req.PickNumber, state.ErrPickAlreadyMade)
	}
	return nil
}

func (a *actor) submitPick(req PickRequest) (models.DraftPick, error) {
	if err := stalePick(a.s, req); err != nil {
		return models.DraftPick{}, err
	}
	if req.PickNumber > a.s.CurrentPickNumber {
		return models.DraftPick{}, fmt.Errorf("pick %d is not on the clock: %w", req.PickNumber, state.ErrNotYourTurn)
	}

	if err := a.e.validator.Validate(a.s, req.TeamID, req.PlayerID, validator.Options{}); err != nil {
		if req.PickNumber == 0 && errors.Is(err, state.ErrNotYourTurn) && a.lastPickBy(req.TeamID) {
			return models.DraftPick{}, fmt.Errorf("team %s already picked: %w", req.TeamID, state.ErrPickAlreadyMade)
		}
		return models.DraftPick{}, err
	}

	a.touch()
	return a.recordPick(req.TeamID, a.s.AvailablePlayers[req.PlayerID], req.IsAuto, false), nil
}

func (a *actor) lastPickBy(teamID uuid.UUID) bool {
	n := len(a.s.Picks)
	return n > 0 && a.s.Picks[n-1].TeamID == teamID
}

// recordPick writes a validated pick at the current slot and advances the draft.
func (a *actor) recordPick(teamID uuid.UUID, player models.PlayerRef, isAuto, isForced bool) models.DraftPick {
	slot, _ := a.s.Rules().SlotFor(a.s.CurrentPickNumber)
	pick := models.DraftPick{
		PickNumber:  slot.PickNumber,
		Round:       slot.Round,
		PickInRound: slot.PickInRound,
		TeamID:      teamID,
		PlayerID:    player.ID,
		Position:    player.Position,
		IsAutoPick:  isAuto,
		IsForced:    isForced,
		PickedAt:    a.e.clock.Now(),
	}

	delete(a.s.AvailablePlayers, player.ID)
	if a.s.DraftedPlayers == nil {
		a.s.DraftedPlayers = make(map[uuid.UUID]models.PlayerRef)
	}
	a.s.DraftedPlayers[player.ID] = player
	a.s.Picks = append(a.s.Picks, pick)
	teamName := ""
	if team := a.s.Team(teamID); team != nil {
		team.Roster = append(team.Roster, player)
		teamName = team.Name
	}
	a.bump()

	switch {
	case isForced:
		a.e.metrics.RecordPick(metrics.PickForced)
	case isAuto:
		a.e.metrics.RecordPick(metrics.PickAuto)
	default:
		a.e.metrics.RecordPick(metrics.PickManual)
	}

	a.emit(events.EventTypePickMade, events.PickMadePayload{
		TeamID:      teamID,
		TeamName:    teamName,
		PlayerID:    player.ID,
		PlayerName:  player.FullName,
		Position:    string(player.Position),
		Round:       pick.Round,
		PickInRound: pick.PickInRound,
		PickNumber:  pick.PickNumber,
		IsAutoPick:  isAuto,
		IsForced:    isForced,
		MadeAt:      pick.PickedAt,
	})

	log.Info().
		Str("draft_id", a.id.String()).
		Str("team_id", teamID.String()).
		Str("player_id", player.ID.String()).
		Int("pick_number", pick.PickNumber).
		Bool("auto", isAuto).
		Bool("forced", isForced).
		Msg("pick recorded")

	a.advance()
	return pick
}

// advance moves to the next slot, or completes the draft when slots or players run out.
func (a *actor) advance() {
	prev := a.s.CurrentTeamID
	next := a.s.CurrentPickNumber + 1
	if next > a.s.TotalPicks || len(a.s.AvailablePlayers) == 0 {
		a.complete(false)
		return
	}
	if err := a.s.PositionTo(next); err != nil {
		log.Error().Err(err).Str("draft_id", a.id.String()).Int("pick_number", next).Msg("failed to advance")
		a.complete(false)
		return
	}

	a.emit(events.EventTypeTurnAdvanced, events.TurnAdvancedPayload{
		PreviousTeamID: prev,
		TeamID:         a.s.CurrentTeamID,
		Round:          a.s.CurrentRound,
		PickNumber:     a.s.CurrentPickNumber,
	})
	a.startTurn(a.s.Settings.PickDuration())
}

// startTurn arms the clock for the current pick.
func (a *actor) startTurn(remaining time.Duration) {
	a.s.TimeRemainingMs = remaining.Milliseconds()
	a.arm(remaining)

	slot, _ := a.s.Rules().SlotFor(a.s.CurrentPickNumber)
	a.emit(events.EventTypePickStarted, events.PickStartedPayload{
		TeamID:          a.s.CurrentTeamID,
		Round:           a.s.CurrentRound,
		PickInRound:     slot.PickInRound,
		PickNumber:      a.s.CurrentPickNumber,
		TimeRemainingMs: a.s.TimeRemainingMs,
		TimeoutAt:       a.e.clock.Now().Add(remaining),
	})
}

func (a *actor) complete(endedEarly bool) {
	a.disarm()
	now := a.e.clock.Now()
	a.s.Status = models.DraftStatusCompleted
	a.s.CompletedAt = &now
	a.s.TimeRemainingMs = 0
	a.s.PauseReason = ""
	a.s.CurrentPickNumber = len(a.s.Picks) + 1
	a.s.CurrentTeamID = uuid.Nil
	a.bump()

	var took time.Duration
	if a.s.StartedAt != nil {
		took = now.Sub(*a.s.StartedAt)
	}
	a.emit(events.EventTypeDraftCompleted, events.DraftCompletedPayload{
		CompletedAt: now,
		Duration:    took.String(),
		TotalPicks:  len(a.s.Picks),
		EndedEarly:  endedEarly,
	})
	a.released = true

	log.Info().
		Str("draft_id", a.id.String()).
		Int("picks", len(a.s.Picks)).
		Bool("ended_early", endedEarly).
		Msg("draft completed")
}

func (a *actor) pause(reason string) error {
	if a.s.Status != models.DraftStatusInProgress {
		return fmt.Errorf("pause from %s: %w", a.s.Status, state.ErrInvalidTransition)
	}
	left := a.clock.Pause()
	a.disarm()

	a.s.Status = models.DraftStatusPaused
	a.s.PauseReason = reason
	a.s.TimeRemainingMs = left.Milliseconds()
	a.bump()

	a.emit(events.EventTypeDraftPaused, events.DraftPausedPayload{
		Reason:          reason,
		TimeRemainingMs: a.s.TimeRemainingMs,
		PausedAt:        a.e.clock.Now(),
	})
	log.Info().Str("draft_id", a.id.String()).Str("reason", reason).Int64("time_remaining_ms", a.s.TimeRemainingMs).Msg("draft paused")
	return nil
}

func (a *actor) resume() error {
	if a.s.Status != models.DraftStatusPaused {
		return fmt.Errorf("resume from %s: %w", a.s.Status, state.ErrInvalidTransition)
	}
	remaining := time.Duration(a.s.TimeRemainingMs) * time.Millisecond
	if remaining <= 0 {
		remaining = a.s.Settings.PickDuration()
	}

	a.s.Status = models.DraftStatusInProgress
	a.s.PauseReason = ""
	a.s.TimeRemainingMs = remaining.Milliseconds()
	a.arm(remaining)
	a.bump()

	a.emit(events.EventTypeDraftResumed, events.DraftResumedPayload{
		TimeRemainingMs: a.s.TimeRemainingMs,
		ResumedAt:       a.e.clock.Now(),
	})
	log.Info().Str("draft_id", a.id.String()).Int64("time_remaining_ms", a.s.TimeRemainingMs).Msg("draft resumed")
	return nil
}

// expire handles a clock expiry for the pick numbered token, raised by the
// countdown identified by arm.
func (a *actor) expire(token int, arm uint64) (models.DraftPick, error) {
	if token < a.s.CurrentPickNumber {
		return models.DraftPick{}, fmt.Errorf("expiry for pick %d: %w", token, state.ErrPickAlreadyMade)
	}
	if arm == 0 || arm != a.armID {
		return models.DraftPick{}, fmt.Errorf("expiry for pick %d from arm %d, live arm %d: %w", token, arm, a.armID, state.ErrInvalidTransition)
	}
	if a.s.Status != models.DraftStatusInProgress || token != a.s.CurrentPickNumber {
		return models.DraftPick{}, fmt.Errorf("expiry for pick %d while %s: %w", token, a.s.Status, state.ErrInvalidTransition)
	}
	a.e.metrics.RecordClockExpiry()

	pick, err := a.autoPick()
	if err != nil {
		log.Warn().Err(err).Str("draft_id", a.id.String()).Int("pick_number", token).Msg("auto-pick failed")
	}
	return pick, err
}

// autoPick picks for the team on the clock: queue first, then by rank. Every
// candidate is validated exactly like a manual pick.
func (a *actor) autoPick() (models.DraftPick, error) {
	teamID := a.s.CurrentTeamID
	if len(a.s.AvailablePlayers) == 0 {
		a.complete(false)
		return models.DraftPick{}, state.ErrNoEligiblePlayers
	}

	for _, id := range a.e.autoPick.Candidates(a.s, teamID) {
		if err := a.e.validator.Validate(a.s, teamID, id, validator.Options{}); err != nil {
			log.Debug().Err(err).
				Str("draft_id", a.id.String()).
				Str("player_id", id.String()).
				Msg("auto-pick candidate rejected")
			continue
		}
		return a.recordPick(teamID, a.s.AvailablePlayers[id], true, false), nil
	}

	if err := a.pause(ReasonAutoPickExhausted); err != nil {
		return models.DraftPick{}, err
	}
	return models.DraftPick{}, fmt.Errorf("team %s: %w", teamID, state.ErrNoEligiblePlayers)
}

func (a *actor) tick(token int, remaining time.Duration) {
	if a.s.Status != models.DraftStatusInProgress || token != a.s.CurrentPickNumber {
		return
	}
	a.s.TimeRemainingMs = remaining.Milliseconds()
	a.emit(events.EventTypeTimerTick, events.TimerTickPayload{
		TeamID:          a.s.CurrentTeamID,
		PickNumber:      a.s.CurrentPickNumber,
		TimeRemainingMs: a.s.TimeRemainingMs,
	})
}

func (a *actor) setAutoPickQueue(teamID uuid.UUID, playerIDs []uuid.UUID) error {
	team := a.s.Team(teamID)
	if team == nil {
		return fmt.Errorf("team %s: %w", teamID, state.ErrUnknownTeam)
	}
	queue := make([]uuid.UUID, 0, len(playerIDs))
	seen := make(map[uuid.UUID]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		queue = append(queue, id)
	}
	team.AutoPickQueue = queue
	a.touch()
	a.bump()

	a.emit(events.EventTypeAutoQueueUpdated, events.AutoQueueUpdatedPayload{
		TeamID:    teamID,
		PlayerIDs: queue,
	})
	return nil
}

func (a *actor) setConnectionStatus(teamID uuid.UUID, status state.ConnectionStatus) error {
	if status != state.Connected && status != state.Disconnected {
		return fmt.Errorf("connection status %q: %w", status, state.ErrInvalidTransition)
	}
	team := a.s.Team(teamID)
	if team == nil {
		return fmt.Errorf("team %s: %w", teamID, state.ErrUnknownTeam)
	}
	if team.ConnectionStatus == status {
		return nil
	}
	team.ConnectionStatus = status
	a.touch()
	a.bump()

	a.emit(events.EventTypePresenceChanged, events.PresenceChangedPayload{
		TeamID: teamID,
		Status: string(status),
	})
	return nil
}

// sweep pauses idle drafts and releases abandoned ones.
func (a *actor) sweep(now time.Time) {
	idle := now.Sub(a.s.LastActivity)
	switch a.s.Status {
	case models.DraftStatusInProgress:
		if a.e.cfg.IdleTimeout > 0 && idle >= a.e.cfg.IdleTimeout && a.nobodyConnected() {
			if err := a.pause(ReasonIdle); err == nil {
				log.Info().Str("draft_id", a.id.String()).Dur("idle", idle).Msg("paused idle draft")
			}
		}
	case models.DraftStatusNotStarted:
		if a.e.cfg.AbandonTimeout > 0 && idle >= a.e.cfg.AbandonTimeout {
			a.dirty = true
			a.released = true
			log.Info().Str("draft_id", a.id.String()).Dur("idle", idle).Msg("releasing unstarted draft")
		}
	}
}

func (a *actor) nobodyConnected() bool {
	for _, t := range a.s.Teams {
		if t.ConnectionStatus == state.Connected {
			return false
		}
	}
	return true
}

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/rs/zerolog/log"
)

var errNotJoined = errors.New("connection has not joined this draft as a team")

// WebSocketHandler upgrades authenticated requests and routes their intents.
type WebSocketHandler struct {
	cm        *ConnectionManager
	auth      *Authenticator
	engine    Engine
	commish   Commissioner
	directory LeagueDirectory
	now       func() time.Time
}

// NewWebSocketHandler creates a handler over cm.
func NewWebSocketHandler(cm *ConnectionManager, auth *Authenticator, e Engine, commish Commissioner, dir LeagueDirectory) *WebSocketHandler {
	return &WebSocketHandler{
		cm:        cm,
		auth:      auth,
		engine:    e,
		commish:   commish,
		directory: dir,
		now:       time.Now,
	}
}

// HandleDraftConnection serves GET /ws.
func (h *WebSocketHandler) HandleDraftConnection(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.Authenticate(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// A draft_id query parameter joins before any client message is read.
	var open func(c *Connection)
	if raw := r.URL.Query().Get("draft_id"); raw != "" {
		if draftID, err := uuid.Parse(raw); err == nil {
			open = func(c *Connection) {
				h.handle(c, Inbound{DraftID: draftID, Intent: IntentJoin})
			}
		}
	}

	if _, err := h.cm.Upgrade(w, r, userID, open, h.handleMessage); err != nil {
		// The upgrader has already written the HTTP error.
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to upgrade websocket connection")
	}
}

// HandleConnectionStats serves GET /ws/stats.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.cm.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers websocket routes with mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.HandleDraftConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}

func (h *WebSocketHandler) handleMessage(c *Connection, msg []byte) {
	var in Inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		c.reply(errorFrame(uuid.Nil, "", CodeBadRequest, "malformed message", h.now()))
		return
	}
	h.handle(c, in)
}

func (h *WebSocketHandler) handle(c *Connection, in Inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), h.cm.config.RequestTimeout)
	defer cancel()

	var (
		reply Outbound
		err   error
	)
	switch in.Intent {
	case IntentPing:
		reply = replyFrame(in.DraftID, FramePong, in.RequestID, nil, h.now())
	case IntentJoin:
		reply, err = h.join(ctx, c, in)
	case IntentMakePick:
		reply, err = h.makePick(ctx, c, in)
	case IntentSetAutoQueue:
		reply, err = h.setAutoQueue(ctx, c, in)
	case IntentCommissioner:
		reply, err = h.commissioner(ctx, c, in)
	case IntentChat:
		reply, err = h.chat(ctx, c, in)
	default:
		c.reply(errorFrame(in.DraftID, in.RequestID, CodeUnknownIntent, fmt.Sprintf("unknown intent %q", in.Intent), h.now()))
		return
	}

	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Str("draft_id", in.DraftID.String()).
			Str("intent", string(in.Intent)).
			Msg("intent rejected")
		c.reply(errorFrame(in.DraftID, in.RequestID, errorCode(err), err.Error(), h.now()))
		return
	}
	c.reply(reply)
}

func (h *WebSocketHandler) join(ctx context.Context, c *Connection, in Inbound) (Outbound, error) {
	s, err := h.engine.GetState(ctx, in.DraftID)
	if err != nil {
		return Outbound{}, err
	}
	teamID, err := h.membership(ctx, s.LeagueID, c.UserID)
	if err != nil {
		return Outbound{}, err
	}

	if !s.Status.Terminal() {
		h.cm.join(c, in.DraftID, teamID)
		// Re-read so the snapshot includes this socket's presence change.
		if s, err = h.engine.GetState(ctx, in.DraftID); err != nil {
			return Outbound{}, err
		}
	}
	return snapshotFrame(s, in.RequestID, h.now())
}

// membership returns the user's team, or Nil for a commissioner without a team.
func (h *WebSocketHandler) membership(ctx context.Context, leagueID, userID uuid.UUID) (uuid.UUID, error) {
	teamID, err := h.directory.TeamForUser(ctx, leagueID, userID)
	if err == nil {
		return teamID, nil
	}
	commish, cerr := h.directory.CommissionerID(ctx, leagueID)
	if cerr == nil && commish == userID {
		return uuid.Nil, nil
	}
	return uuid.Nil, fmt.Errorf("user %s is not a member of league %s: %w", userID, leagueID, state.ErrUnauthorized)
}

// team returns the team c drafts for in draftID.
func (h *WebSocketHandler) team(c *Connection, draftID uuid.UUID) (uuid.UUID, error) {
	joinedDraft, teamID := c.joined()
	if joinedDraft != draftID || teamID == uuid.Nil {
		return uuid.Nil, errNotJoined
	}
	return teamID, nil
}

func (h *WebSocketHandler) makePick(ctx context.Context, c *Connection, in Inbound) (Outbound, error) {
	teamID, err := h.team(c, in.DraftID)
	if err != nil {
		return Outbound{}, err
	}
	var p makePickPayload
	if err := decodePayload(in.Payload, &p); err != nil {
		return Outbound{}, err
	}
	pick, err := h.engine.SubmitPick(ctx, engine.PickRequest{
		DraftID:    in.DraftID,
		TeamID:     teamID,
		PlayerID:   p.PlayerID,
		PickNumber: p.PickNumber,
	})
	if err != nil {
		return Outbound{}, err
	}
	return replyFrame(in.DraftID, FrameAck, in.RequestID, pick, h.now()), nil
}

func (h *WebSocketHandler) setAutoQueue(ctx context.Context, c *Connection, in Inbound) (Outbound, error) {
	teamID, err := h.team(c, in.DraftID)
	if err != nil {
		return Outbound{}, err
	}
	var p autoQueuePayload
	if err := decodePayload(in.Payload, &p); err != nil {
		return Outbound{}, err
	}
	if err := h.engine.SetAutoPickQueue(ctx, in.DraftID, teamID, p.PlayerIDs); err != nil {
		return Outbound{}, err
	}
	return replyFrame(in.DraftID, FrameAck, in.RequestID, nil, h.now()), nil
}

func (h *WebSocketHandler) commissioner(ctx context.Context, c *Connection, in Inbound) (Outbound, error) {
	var p commissionerPayload
	if err := decodePayload(in.Payload, &p); err != nil {
		return Outbound{}, err
	}
	res, err := h.commish.Execute(ctx, c.UserID, in.DraftID, engine.CommissionerAction{
		Type:     engine.CommissionerActionType(p.Type),
		TeamID:   p.TeamID,
		PlayerID: p.PlayerID,
		Reason:   p.Reason,
	})
	if err != nil {
		return Outbound{}, err
	}
	return replyFrame(in.DraftID, FrameAck, in.RequestID, res, h.now()), nil
}

func (h *WebSocketHandler) chat(ctx context.Context, c *Connection, in Inbound) (Outbound, error) {
	joinedDraft, teamID := c.joined()
	if joinedDraft != in.DraftID {
		return Outbound{}, errNotJoined
	}
	var p chatPayload
	if err := decodePayload(in.Payload, &p); err != nil {
		return Outbound{}, err
	}
	if err := h.engine.Chat(ctx, in.DraftID, events.ChatMessagePayload{
		UserID:  c.UserID,
		TeamID:  teamID,
		Message: p.Message,
	}); err != nil {
		return Outbound{}, err
	}
	return replyFrame(in.DraftID, FrameAck, in.RequestID, nil, h.now()), nil
}

var errBadPayload = errors.New("malformed payload")

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errBadPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errBadPayload):
		return CodeBadRequest
	case errors.Is(err, errNotJoined):
		return CodeNotJoined
	}
	return state.Code(err)
}

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/rs/zerolog/log"
)

// StateReader returns draft snapshots.
type StateReader interface {
	GetState(ctx context.Context, draftID uuid.UUID) (*state.DraftState, error)
}

// StateHandler serves draft snapshots over plain HTTP for clients that poll.
type StateHandler struct {
	reader StateReader
	auth   *Authenticator
}

// NewStateHandler creates a new state handler.
func NewStateHandler(reader StateReader, auth *Authenticator) *StateHandler {
	return &StateHandler{reader: reader, auth: auth}
}

// HandleGetDraftState handles GET /api/drafts/{id}/state.
func (h *StateHandler) HandleGetDraftState(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.Authenticate(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	s, err := h.reader.GetState(r.Context(), draftID)
	switch {
	case errors.Is(err, state.ErrDraftNotFound):
		http.Error(w, "draft not found", http.StatusNotFound)
		return
	case err != nil:
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to get draft state")
		http.Error(w, "failed to get draft state", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s); err != nil {
		log.Error().Err(err).Msg("failed to encode draft state response")
	}
}

// RegisterRoutes registers state routes with mux.
func (h *StateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/drafts/{id}/state", h.HandleGetDraftState)
}

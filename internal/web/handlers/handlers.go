package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/shoplite/shoplite/internal/auth"
	"github.com/shoplite/shoplite/internal/database"
	"github.com/shoplite/shoplite/internal/uploads"
	"github.com/shoplite/shoplite/internal/web/events"
)

// Headers carrying the session pair when it is not embedded in the
// request body (deployment variant).
const (
	HeaderSessionID    = "X-Session-Id"
	HeaderSessionToken = "X-Session-Token"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db       *database.DB
	sessions *auth.Sessions
	verifier *auth.Verifier
	pics     *uploads.Store
	picIndex *uploads.Watcher
	hub      *events.Hub
}

// New creates a new Handlers instance
func New(db *database.DB, sessions *auth.Sessions, verifier *auth.Verifier, pics *uploads.Store) *Handlers {
	return &Handlers{
		db:       db,
		sessions: sessions,
		verifier: verifier,
		pics:     pics,
	}
}

// SetPicIndex sets the pics directory watcher used for advisory pic checks
func (h *Handlers) SetPicIndex(w *uploads.Watcher) {
	h.picIndex = w
}

// SetEventHub sets the hub receiving catalog-change events
func (h *Handlers) SetEventHub(hub *events.Hub) {
	h.hub = hub
}

// sessionRef is the id+token pair identifying a session on the wire
type sessionRef struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}

// writeJSON sends a JSON response with the given status
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// jsonError sends a JSON error response
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// storeError maps repository errors onto the API status ladder.
// Conflict and not-found both answer 405 for compatibility with the
// original API; builder misuse is a bad request; anything else is a
// server error.
func (h *Handlers) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrConflict):
		h.jsonError(w, "not unique", http.StatusMethodNotAllowed)
	case errors.Is(err, database.ErrNotFound):
		h.jsonError(w, "not found", http.StatusMethodNotAllowed)
	case errors.Is(err, database.ErrNoValues), errors.Is(err, database.ErrNoConditions):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("Store operation failed")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// sessionFromRequest picks the session pair out of the parsed body, or
// falls back to the header pair. The body wins when both are present.
func sessionFromRequest(r *http.Request, ref *sessionRef) *sessionRef {
	if ref != nil && ref.Token != "" {
		return ref
	}

	idVal := r.Header.Get(HeaderSessionID)
	token := r.Header.Get(HeaderSessionToken)
	if idVal == "" || token == "" {
		return nil
	}
	id, err := strconv.ParseInt(idVal, 10, 64)
	if err != nil {
		return nil
	}
	return &sessionRef{ID: id, Token: token}
}

// liveSession resolves the session pair and enforces liveness. On
// failure the response has already been written and ok is false.
func (h *Handlers) liveSession(w http.ResponseWriter, r *http.Request, ref *sessionRef) (*database.Session, bool) {
	ref = sessionFromRequest(r, ref)
	if ref == nil {
		h.jsonError(w, "session data not found", http.StatusBadRequest)
		return nil, false
	}

	session := &database.Session{ID: ref.ID, Token: ref.Token}
	live, err := h.sessions.CheckLive(session)
	if err != nil {
		log.Error().Err(err).Int64("session_id", ref.ID).Msg("Session liveness check failed")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	if !live {
		h.writeJSON(w, http.StatusUnauthorized, map[string]any{
			"session": map[string]any{
				"id":         session.ID,
				"authorized": session.Authorized,
			},
		})
		return nil, false
	}
	return session, true
}

// adminSession is liveSession plus the admin privilege check
func (h *Handlers) adminSession(w http.ResponseWriter, r *http.Request, ref *sessionRef) (*database.Session, bool) {
	session, ok := h.liveSession(w, r, ref)
	if !ok {
		return nil, false
	}
	if !auth.IsAdmin(session) {
		h.jsonError(w, "admin session required", http.StatusForbidden)
		return nil, false
	}
	return session, true
}

// broadcast pushes a catalog event if the hub is configured
func (h *Handlers) broadcast(t events.Type, data any) {
	if h.hub != nil {
		h.hub.Broadcast(events.Event{Type: t, Data: data})
	}
}

// checkPicReference logs a warning when an item references a pic that
// is not present in the pics directory. Advisory only: the original
// API accepts arbitrary pic paths.
func (h *Handlers) checkPicReference(pic string) {
	if pic == "" || h.picIndex == nil {
		return
	}
	if !h.picIndex.Has(pic) {
		log.Warn().Str("pic", pic).Msg("Item references a pic not present in the pics directory")
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shoplite/shoplite/internal/database"
)

// customerPayload carries customer fields on the wire. Password is the
// plaintext here; it is hashed before it ever reaches the store.
type customerPayload struct {
	Telephone        string `json:"telephone"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	PersonalDiscount int64  `json:"personal_discount"`
}

type adminPayload struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type authRequest struct {
	Session  *sessionRef      `json:"session"`
	Customer *customerPayload `json:"customer"`
	Admin    *adminPayload    `json:"admin"`
}

// Token handles GET /api/token and opens a fresh unauthenticated
// session.
func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create()
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"session": map[string]any{
			"id":    session.ID,
			"token": session.Token,
		},
	})
}

// AuthCustomer handles GET /api/auth. A live session plus valid
// telephone+password links the session to the customer and returns the
// masked record.
func (h *Handlers) AuthCustomer(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	session, ok := h.liveSession(w, r, req.Session)
	if !ok {
		return
	}
	if req.Customer == nil {
		h.jsonError(w, "customer data not found", http.StatusBadRequest)
		return
	}

	customer, err := h.verifier.VerifyCustomer(req.Customer.Telephone, req.Customer.Password)
	if err != nil {
		log.Error().Err(err).Msg("Customer verification failed")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if customer == nil {
		h.jsonError(w, "bad credentials", http.StatusForbidden)
		return
	}

	if err := h.sessions.Authorize(session, customer.ID); err != nil {
		log.Error().Err(err).Int64("session_id", session.ID).Msg("Failed to authorize session")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.sessions.Touch(session); err != nil {
		log.Warn().Err(err).Int64("session_id", session.ID).Msg("Failed to refresh session activity")
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

// AuthAdmin handles GET /api/auth/admin. On success the session is
// linked to the admin and the response carries no body fields beyond
// the status.
func (h *Handlers) AuthAdmin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	session, ok := h.liveSession(w, r, req.Session)
	if !ok {
		return
	}
	if req.Admin == nil {
		h.jsonError(w, "admin data not found", http.StatusBadRequest)
		return
	}

	admin, err := h.verifier.VerifyAdmin(req.Admin.Login, req.Admin.Password)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.jsonError(w, "bad credentials", http.StatusForbidden)
			return
		}
		log.Error().Err(err).Msg("Admin verification failed")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if admin == nil {
		h.jsonError(w, "bad credentials", http.StatusForbidden)
		return
	}

	if err := h.sessions.AuthorizeAdmin(session, admin.ID); err != nil {
		log.Error().Err(err).Int64("session_id", session.ID).Msg("Failed to authorize admin session")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.sessions.Touch(session); err != nil {
		log.Warn().Err(err).Int64("session_id", session.ID).Msg("Failed to refresh session activity")
	}

	h.writeJSON(w, http.StatusOK, nil)
}

// Register handles POST /api/registration. A duplicate telephone
// answers 405 for compatibility with existing clients.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	session, ok := h.liveSession(w, r, req.Session)
	if !ok {
		return
	}
	if req.Customer == nil || req.Customer.Telephone == "" || req.Customer.Password == "" {
		h.jsonError(w, "customer data not found", http.StatusBadRequest)
		return
	}

	customer := &database.Customer{
		Telephone:        req.Customer.Telephone,
		Name:             req.Customer.Name,
		Email:            req.Customer.Email,
		PersonalDiscount: req.Customer.PersonalDiscount,
	}
	if err := h.verifier.RegisterCustomer(customer, req.Customer.Password); err != nil {
		if errors.Is(err, database.ErrConflict) {
			h.jsonError(w, "telephone not unique", http.StatusMethodNotAllowed)
			return
		}
		log.Error().Err(err).Msg("Customer registration failed")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.sessions.Authorize(session, customer.ID); err != nil {
		log.Error().Err(err).Int64("session_id", session.ID).Msg("Failed to authorize session")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.sessions.Touch(session); err != nil {
		log.Warn().Err(err).Int64("session_id", session.ID).Msg("Failed to refresh session activity")
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

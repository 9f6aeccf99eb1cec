package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shoplite/shoplite/internal/database"
)

const (
	// TokenLength is the length of a session token
	TokenLength = 32
	// SessionTTL is how long a session stays live after its last
	// recorded activity. Liveness is recomputed on every check in
	// whole minutes; rows are never evicted.
	SessionTTL = 10 * time.Minute

	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Sessions manages the session lifecycle: creation, lookup, liveness
// checks and linking to an authenticated principal.
type Sessions struct {
	db *database.DB
}

// NewSessions creates a new session manager
func NewSessions(db *database.DB) *Sessions {
	return &Sessions{db: db}
}

// generateToken creates a random alphanumeric session token
func generateToken() (string, error) {
	buf := make([]byte, TokenLength)
	alphabetLen := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Create registers a new unauthenticated session and returns it with
// the store-assigned id.
func (s *Sessions) Create() (*database.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	session, err := s.db.InsertSession(token, time.Now())
	if err != nil {
		return nil, err
	}

	log.Debug().Int64("session_id", session.ID).Msg("Session created")
	return session, nil
}

// Find loads a session by equality criteria (typically id+token).
// database.ErrNotFound when no row matches.
func (s *Sessions) Find(criteria map[string]any) (*database.Session, error) {
	return s.db.FindSession(criteria)
}

// CheckLive re-reads the session row and reports whether the session
// is still live. The row is refreshed in place, so external changes
// (authorization from another request) become visible. A session whose
// row no longer exists is dead, not an error.
func (s *Sessions) CheckLive(session *database.Session) (bool, error) {
	if err := s.db.ReloadSession(session); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	// Whole-minute comparison: 9m59s is live, 10m00s is not
	delta := int(time.Since(session.LastActivity).Minutes())
	return delta < int(SessionTTL/time.Minute), nil
}

// Authorize links the session to a customer and marks it authorized.
// Any previous link is silently overwritten.
func (s *Sessions) Authorize(session *database.Session, customerID int64) error {
	err := s.db.UpdateSession(
		map[string]any{"customer": customerID, "authorized": true},
		map[string]any{"id": session.ID},
	)
	if err != nil {
		return err
	}

	session.Customer = &customerID
	session.Authorized = true
	log.Info().Int64("session_id", session.ID).Int64("customer_id", customerID).Msg("Session authorized")
	return nil
}

// AuthorizeAdmin links the session to an admin and marks it
// authorized. Any previous link is silently overwritten.
func (s *Sessions) AuthorizeAdmin(session *database.Session, adminID int64) error {
	err := s.db.UpdateSession(
		map[string]any{"admin": adminID, "authorized": true},
		map[string]any{"id": session.ID},
	)
	if err != nil {
		return err
	}

	session.Admin = &adminID
	session.Authorized = true
	log.Info().Int64("session_id", session.ID).Int64("admin_id", adminID).Msg("Admin session authorized")
	return nil
}

// Touch refreshes the session's last_activity to now.
func (s *Sessions) Touch(session *database.Session) error {
	now := time.Now()
	err := s.db.UpdateSession(
		map[string]any{"last_activity": now},
		map[string]any{"id": session.ID},
	)
	if err != nil {
		return err
	}
	session.LastActivity = now
	return nil
}

// IsAdmin reports whether the session is linked to an admin.
func IsAdmin(session *database.Session) bool {
	return session.Authorized && session.Admin != nil
}

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Session represents a bearer session row. Customer and Admin are
// nullable links to the authenticated principal.
type Session struct {
	ID           int64     `json:"id"`
	Token        string    `json:"token"`
	LastActivity time.Time `json:"last_activity"`
	Customer     *int64    `json:"customer,omitempty"`
	Authorized   bool      `json:"authorized"`
	Admin        *int64    `json:"admin,omitempty"`
}

var sessionColumns = []string{"id", "token", "last_activity", "customer", "authorized", "admin"}

func scanSession(rows *sql.Rows) (*Session, error) {
	s := &Session{}
	var customer, admin sql.NullInt64
	if err := rows.Scan(&s.ID, &s.Token, &s.LastActivity, &customer, &s.Authorized, &admin); err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	s.Customer = nullInt64ToPtr(customer)
	s.Admin = nullInt64ToPtr(admin)
	return s, nil
}

// InsertSession creates a session row and returns it with the
// store-assigned id.
func (db *DB) InsertSession(token string, lastActivity time.Time) (*Session, error) {
	id, err := db.Insert("session", map[string]any{
		"token":         token,
		"last_activity": lastActivity,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:           id,
		Token:        token,
		LastActivity: lastActivity,
	}, nil
}

// FindSession returns the first session matching the criteria,
// ErrNotFound when no row matches.
func (db *DB) FindSession(criteria map[string]any) (*Session, error) {
	rows, err := db.SelectRows("session", sessionColumns, criteria)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find session: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanSession(rows)
}

// UpdateSession applies values to the sessions matching conds.
func (db *DB) UpdateSession(values, conds map[string]any) error {
	return db.UpdateWhere("session", values, conds)
}

// ReloadSession re-reads a session row by id+token, detecting external
// changes. ErrNotFound when the row no longer exists.
func (db *DB) ReloadSession(s *Session) error {
	fresh, err := db.FindSession(map[string]any{"id": s.ID, "token": s.Token})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	*s = *fresh
	return nil
}

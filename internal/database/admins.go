package database

import (
	"database/sql"
	"fmt"
)

// Admin represents an admin account. There is no registration surface
// for admins; rows are provisioned through the CLI.
type Admin struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	Password string `json:"password,omitempty"`
}

var adminColumns = []string{"id", "login", "password"}

func scanAdmin(rows *sql.Rows) (*Admin, error) {
	a := &Admin{}
	if err := rows.Scan(&a.ID, &a.Login, &a.Password); err != nil {
		return nil, fmt.Errorf("failed to scan admin: %w", err)
	}
	a.Password = PasswordMask
	return a, nil
}

// FindAdmin returns the first admin matching the criteria with the
// password masked, ErrNotFound when no row matches.
func (db *DB) FindAdmin(criteria map[string]any) (*Admin, error) {
	rows, err := db.SelectRows("admin", adminColumns, criteria)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find admin: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanAdmin(rows)
}

// AdminCredential returns the id and stored password digest for the
// admin identified by login. ErrNotFound when no such admin exists.
func (db *DB) AdminCredential(login string) (int64, string, error) {
	rows, err := db.SelectRows("admin", []string{"id", "password"}, map[string]any{"login": login})
	if err != nil {
		return 0, "", err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, "", fmt.Errorf("failed to look up admin credential: %w", err)
		}
		return 0, "", ErrNotFound
	}

	var id int64
	var digest string
	if err := rows.Scan(&id, &digest); err != nil {
		return 0, "", fmt.Errorf("failed to scan admin credential: %w", err)
	}
	return id, digest, nil
}

// AddAdmin inserts an admin whose password is already hashed and
// returns the store-assigned id. A duplicate login surfaces as
// ErrConflict.
func (db *DB) AddAdmin(login, passwordHash string) (int64, error) {
	return db.Insert("admin", map[string]any{
		"login":    login,
		"password": passwordHash,
	})
}

package database

import (
	"errors"
	"strings"
)

// Sentinel errors returned at the repository boundary. Store-level
// failures are always translated to one of these before they leave
// this package.
var (
	// ErrNotFound indicates no row matched the given criteria.
	ErrNotFound = errors.New("database: not found")
	// ErrConflict indicates a uniqueness violation (duplicate key).
	ErrConflict = errors.New("database: conflict")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The modernc driver exposes no typed error for this, so the
// message is matched directly.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

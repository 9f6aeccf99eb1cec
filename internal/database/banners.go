package database

import (
	"database/sql"
	"fmt"
)

// Banner is a promotional item rendered by the storefront. Alias is
// the external lookup key.
type Banner struct {
	ID    int64  `json:"id"`
	Alias string `json:"alias"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	Pic   string `json:"pic,omitempty"`
}

var bannerColumns = []string{"id", "alias", "title", "text", "pic"}

func scanBanner(rows *sql.Rows) (*Banner, error) {
	b := &Banner{}
	var title, text, pic sql.NullString
	if err := rows.Scan(&b.ID, &b.Alias, &title, &text, &pic); err != nil {
		return nil, fmt.Errorf("failed to scan banner: %w", err)
	}
	b.Title = nullStringValue(title)
	b.Text = nullStringValue(text)
	b.Pic = nullStringValue(pic)
	return b, nil
}

// FindBanner returns the first banner matching the criteria,
// ErrNotFound when no row matches.
func (db *DB) FindBanner(criteria map[string]any) (*Banner, error) {
	rows, err := db.SelectRows("banner", bannerColumns, criteria)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find banner: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanBanner(rows)
}

// AddBanner inserts the banner and reloads it with the store-assigned
// id. A duplicate alias surfaces as ErrConflict.
func (db *DB) AddBanner(b *Banner) error {
	id, err := db.Insert("banner", map[string]any{
		"alias": b.Alias,
		"title": b.Title,
		"text":  b.Text,
		"pic":   b.Pic,
	})
	if err != nil {
		return err
	}

	saved, err := db.FindBanner(map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("failed to reload banner %d: %w", id, err)
	}
	*b = *saved
	return nil
}

// UpdateBanner applies a partial update to the banner identified by
// alias and returns the fully reloaded record. When the update changes
// the alias itself, the new alias is used for the reload.
func (db *DB) UpdateBanner(alias string, fields map[string]any) (*Banner, error) {
	if err := db.UpdateWhere("banner", fields, map[string]any{"alias": alias}); err != nil {
		return nil, err
	}

	reloadAlias := alias
	if v, ok := fields["alias"].(string); ok && v != "" {
		reloadAlias = v
	}
	return db.FindBanner(map[string]any{"alias": reloadAlias})
}

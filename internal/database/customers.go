package database

import (
	"database/sql"
	"fmt"
)

// PasswordMask replaces the stored password digest anywhere a
// principal record leaves the repository boundary.
const PasswordMask = "***"

// Customer represents a customer account. Password holds the mask,
// never the stored digest, on records returned by Find.
type Customer struct {
	ID               int64  `json:"id"`
	Telephone        string `json:"telephone"`
	Password         string `json:"password,omitempty"`
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	PersonalDiscount int64  `json:"personal_discount"`
}

var customerColumns = []string{"id", "telephone", "password", "name", "email", "personal_discount"}

func scanCustomer(rows *sql.Rows) (*Customer, error) {
	c := &Customer{}
	var name, email sql.NullString
	if err := rows.Scan(&c.ID, &c.Telephone, &c.Password, &name, &email, &c.PersonalDiscount); err != nil {
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	c.Name = nullStringValue(name)
	c.Email = nullStringValue(email)
	c.Password = PasswordMask
	return c, nil
}

// FindCustomer returns the first customer matching the criteria with
// the password masked, ErrNotFound when no row matches.
func (db *DB) FindCustomer(criteria map[string]any) (*Customer, error) {
	rows, err := db.SelectRows("customer", customerColumns, criteria)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find customer: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanCustomer(rows)
}

// CustomerCredential returns the id and stored password digest for the
// customer identified by telephone. ErrNotFound when no such customer
// exists.
func (db *DB) CustomerCredential(telephone string) (int64, string, error) {
	rows, err := db.SelectRows("customer", []string{"id", "password"}, map[string]any{"telephone": telephone})
	if err != nil {
		return 0, "", err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, "", fmt.Errorf("failed to look up customer credential: %w", err)
		}
		return 0, "", ErrNotFound
	}

	var id int64
	var digest string
	if err := rows.Scan(&id, &digest); err != nil {
		return 0, "", fmt.Errorf("failed to scan customer credential: %w", err)
	}
	return id, digest, nil
}

// AddCustomer inserts a customer whose Password field already holds
// the hashed digest, re-reads the store-assigned id, and masks the
// password. A duplicate telephone surfaces as ErrConflict.
func (db *DB) AddCustomer(c *Customer) error {
	id, err := db.Insert("customer", map[string]any{
		"telephone":         c.Telephone,
		"password":          c.Password,
		"name":              c.Name,
		"email":             c.Email,
		"personal_discount": c.PersonalDiscount,
	})
	if err != nil {
		return err
	}

	saved, err := db.FindCustomer(map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("failed to reload customer %d: %w", id, err)
	}
	*c = *saved
	return nil
}

// UpdateCustomer applies a partial update to the customer row and
// returns the fully reloaded record.
func (db *DB) UpdateCustomer(id int64, fields map[string]any) (*Customer, error) {
	if err := db.UpdateWhere("customer", fields, map[string]any{"id": id}); err != nil {
		return nil, err
	}
	return db.FindCustomer(map[string]any{"id": id})
}

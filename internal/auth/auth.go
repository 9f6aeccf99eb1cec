package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/shoplite/shoplite/internal/database"
)

// BcryptCost is the bcrypt cost factor
const BcryptCost = 12

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a password against a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Verifier checks customer and admin credentials against the store.
type Verifier struct {
	db *database.DB
}

// NewVerifier creates a new credential verifier
func NewVerifier(db *database.DB) *Verifier {
	return &Verifier{db: db}
}

// VerifyCustomer checks a customer's password by telephone. Returns
// (nil, nil) both when the customer does not exist and when the
// password is wrong; on success the customer is reloaded from the
// store with the password masked.
func (v *Verifier) VerifyCustomer(telephone, password string) (*database.Customer, error) {
	id, digest, err := v.db.CustomerCredential(telephone)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !CheckPassword(password, digest) {
		return nil, nil
	}
	return v.db.FindCustomer(map[string]any{"id": id})
}

// VerifyAdmin checks an admin's password by login. Unlike the
// customer path, an unknown login surfaces as ErrNotFound rather than
// a plain false; wrong password returns (nil, nil).
func (v *Verifier) VerifyAdmin(login, password string) (*database.Admin, error) {
	id, digest, err := v.db.AdminCredential(login)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(password, digest) {
		return nil, nil
	}
	return v.db.FindAdmin(map[string]any{"id": id})
}

// RegisterCustomer hashes the plaintext password and inserts the
// customer record. Duplicate telephones propagate as
// database.ErrConflict; the stored digest never leaves the store
// (the record comes back masked).
func (v *Verifier) RegisterCustomer(c *database.Customer, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	c.Password = hash
	return v.db.AddCustomer(c)
}

package types

import (
	"strings"
	"time"
)

// Account represents a registered user identity.
// It carries profile fields, credentials, and audit timestamps.
type Account struct {
	// ID is the unique identifier of the account.
	ID int `json:"id" db:"id"`

	// FirstName is the user's given name, at most 50 characters.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the user's family name, at most 50 characters.
	LastName string `json:"last_name" db:"last_name"`

	// Email is the login identifier. It is unique across accounts.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive reports whether the account may sign in.
	IsActive bool `json:"is_active" db:"is_active"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// LastLogin is the timestamp of the most recent successful sign in.
	// It is initialised to CreatedAt.
	LastLogin time.Time `json:"last_login" db:"last_login"`

	// Phones are the phone numbers owned by the account.
	Phones []Phone `json:"phones" db:"-"`
}

// FullName returns the first and last name separated by a space.
func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role labels carried in identity tokens.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// MinPasswordLength is the minimum accepted plaintext password length.
const MinPasswordLength = 8

// usernameRegex matches usernames that start with a letter and contain
// only letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Account is an identity record. PasswordHash always holds a PHC-encoded
// argon2id string, never plaintext and never a bare digest.
type Account struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string
	Superuser    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role derives the token role label from the superuser flag.
func (a *Account) Role() string {
	if a.Superuser {
		return RoleAdmin
	}
	return RoleUser
}

// RegisterRequest carries registration input. Password is transient and
// must never be persisted or logged.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// Validate checks the registration input shape. Uniqueness is not checked
// here; the persistence layer's constraints are the source of truth.
func (r RegisterRequest) Validate() error {
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// LoginRequest carries login input. Password is transient.
type LoginRequest struct {
	Email    string
	Password string
}

// ValidateUsername validates a username against rules:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail performs a minimal shape check. Deliverability is not this
// subsystem's problem; the check only rejects obvious garbage.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t\n") {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email address is not valid")
	}
	return nil
}

// AccountRepository manages account persistence. Implementations enforce
// username and email uniqueness with database constraints, not pre-checks,
// so concurrent registrations admit exactly one winner.
type AccountRepository interface {
	// Create stores a new account. Returns ErrEmailExists or
	// ErrUsernameExists when the corresponding constraint fires.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	// Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

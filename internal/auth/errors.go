// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// Sentinel errors shared across the authentication core. Callers branch on
// these with errors.Is; the sites that raise them attach oops codes and
// context for logging.
var (
	// ErrNotFound is returned when a requested account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailExists is returned when registration collides with an
	// existing email address.
	ErrEmailExists = errors.New("email already registered")

	// ErrUsernameExists is returned when registration collides with an
	// existing username.
	ErrUsernameExists = errors.New("username already taken")

	// ErrInvalidCredentials is returned on login failure. It is
	// deliberately identical whether the email is unknown or the
	// password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned for any missing, malformed, forged,
	// or expired token. Validation never reports which check failed.
	ErrUnauthorized = errors.New("unauthorized")
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenValidity is the fixed lifetime of an issued identity token.
const TokenValidity = 60 * time.Minute

// Claims is the identity payload signed into a token: subject account ID,
// role label, and issuance/expiry timestamps. Claims are immutable once
// issued; role changes on the account do not affect outstanding tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// SubjectID parses the subject claim as an account ID.
func (c *Claims) SubjectID() (ulid.ULID, error) {
	id, err := ulid.Parse(c.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("AUTH_INVALID_SUBJECT").
			With("subject", c.Subject).
			Wrap(err)
	}
	return id, nil
}

// TokenService issues and validates HS256-signed identity tokens. The
// secret is loaded once at process start and never mutated, so a single
// TokenService is safe for concurrent use without locking.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given symmetric secret.
func NewTokenService(secret []byte) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_EMPTY_SECRET").Errorf("token secret cannot be empty")
	}
	return &TokenService{secret: secret, now: time.Now}, nil
}

// WithClock overrides the time source. Intended for expiry tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs a token for the given subject and role with
// expiry = issued-at + TokenValidity.
func (s *TokenService) Issue(subject ulid.ULID, role string) (string, error) {
	issuedAt := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenValidity)),
		},
		Role: role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return token, nil
}

// Validate verifies the signature and expiry of a token and returns its
// claims. Every failure mode (bad signature, malformed structure, expired,
// wrong algorithm) collapses to ErrUnauthorized so callers cannot learn
// which check failed.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, oops.Code("AUTH_TOKEN_REJECTED").Wrap(ErrUnauthorized)
	}
	if claims.Subject == "" {
		return nil, oops.Code("AUTH_TOKEN_REJECTED").Wrap(ErrUnauthorized)
	}
	return claims, nil
}

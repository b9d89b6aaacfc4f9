// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// Service provides registration and login.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher

	// hashSlots bounds the number of argon2id computations in flight.
	// Each hash pins 64 MiB and a full core; without a bound a burst of
	// registrations would starve unrelated request goroutines.
	hashSlots *semaphore.Weighted
}

// dummyPasswordHash is verified against when the email is unknown, so the
// response time does not reveal whether an account exists. It is a fake
// hash that can never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// NewService creates an authentication Service.
func NewService(accounts AccountRepository, hasher PasswordHasher) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &Service{
		accounts:  accounts,
		hasher:    hasher,
		hashSlots: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}, nil
}

// Register validates the request, hashes the password, and inserts the
// account. Uniqueness of username and email is enforced by the store's
// constraints; under concurrent registration of the same email exactly one
// caller wins and the rest observe ErrEmailExists.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &Account{
		ID:           ulid.Make(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrUsernameExists) {
			return nil, err
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert account").
			Wrap(err)
	}

	return account, nil
}

// Login verifies credentials and returns the account. Unknown email and
// wrong password are indistinguishable to the caller: both verify against
// a hash (the dummy one when the account is missing) and both surface
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Account, error) {
	account, lookupErr := s.accounts.GetByEmail(ctx, req.Email)

	targetHash := dummyPasswordHash
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = account.PasswordHash
		exists = true
	case errors.Is(lookupErr, ErrNotFound):
		// Fall through to dummy verification to keep response time flat.
	default:
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.verifyPassword(ctx, req.Password, targetHash)
	if verifyErr != nil {
		if !exists {
			return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !exists || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	return account, nil
}

// GetAccount re-materializes the full account for an authenticated
// identity. Returns ErrNotFound if the account no longer exists.
func (s *Service) GetAccount(ctx context.Context, id ulid.ULID) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("AUTH_GET_ACCOUNT_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// hashPassword runs the hasher inside a bounded slot. Acquisition respects
// request cancellation so callers are not queued past their deadline.
func (s *Service) hashPassword(ctx context.Context, password string) (string, error) {
	if err := s.hashSlots.Acquire(ctx, 1); err != nil {
		return "", oops.Code("AUTH_HASH_CANCELED").Wrap(err)
	}
	defer s.hashSlots.Release(1)
	return s.hasher.Hash(password)
}

func (s *Service) verifyPassword(ctx context.Context, password, hash string) (bool, error) {
	if err := s.hashSlots.Acquire(ctx, 1); err != nil {
		return false, oops.Code("AUTH_HASH_CANCELED").Wrap(err)
	}
	defer s.hashSlots.Release(1)
	return s.hasher.Verify(password, hash)
}

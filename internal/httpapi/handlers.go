// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
)

// maxBodyBytes caps request bodies. Auth payloads are three short strings;
// anything bigger is garbage or abuse.
const maxBodyBytes = 16 << 10

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

// accountResponse is the profile shape returned by /api/me. The hash field
// is the stored PHC string, never plaintext.
type accountResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Superuser    bool      `json:"superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newAccountResponse(a *auth.Account) accountResponse {
	return accountResponse{
		ID:           a.ID.String(),
		Username:     a.Username,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Superuser:    a.Superuser,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// decodeBody decodes a JSON request body into v.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "request body is not valid JSON",
			Code:  codeInvalidRequest,
		})
		return false
	}
	return true
}

// handleRegister creates an account: POST /auth/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeBody(w, r, &req) {
		s.countRegistration(observability.OutcomeError)
		return
	}

	_, err := s.authSvc.Register(r.Context(), auth.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.countRegistration(registrationOutcome(err))
		s.writeError(w, r, err)
		return
	}

	s.countRegistration(observability.OutcomeSuccess)
	s.writeJSON(w, http.StatusCreated, messageResponse{Message: "account registered"})
}

// handleLogin verifies credentials and issues a bearer token: POST /auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeBody(w, r, &req) {
		s.countLogin(observability.OutcomeError)
		return
	}

	account, err := s.authSvc.Login(r.Context(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.countLogin(loginOutcome(err))
		s.writeError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(account.ID, account.Role())
	if err != nil {
		s.countLogin(observability.OutcomeError)
		s.writeError(w, r, err)
		return
	}

	s.countLogin(observability.OutcomeSuccess)
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: token, Type: "Bearer"})
}

// handleMe returns the full profile of the authenticated account:
// GET /api/me. The guard has already validated the token; the account is
// re-read from the store so the profile reflects current state, not the
// claims snapshot.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.IdentityFromContext(r.Context())
	if claims == nil {
		// Route misconfiguration: handler mounted without the guard.
		s.writeUnauthorized(w)
		return
	}

	id, err := claims.SubjectID()
	if err != nil {
		s.writeUnauthorized(w)
		return
	}

	account, err := s.authSvc.GetAccount(r.Context(), id)
	if err != nil {
		// The subject vanished after issuance; to the caller the token
		// is simply no longer valid.
		if errors.Is(err, auth.ErrNotFound) {
			s.writeUnauthorized(w)
			return
		}
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, newAccountResponse(account))
}

func registrationOutcome(err error) string {
	if errors.Is(err, auth.ErrEmailExists) || errors.Is(err, auth.ErrUsernameExists) {
		return observability.OutcomeConflict
	}
	return observability.OutcomeError
}

func loginOutcome(err error) string {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return observability.OutcomeRejected
	}
	return observability.OutcomeError
}

func (s *Server) countRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// errorResponse is the wire shape of every failure: a human message and a
// stable machine-readable code clients can branch on.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Stable wire codes.
const (
	codeEmailExists        = "EMAIL_EXISTS"
	codeUsernameExists     = "USERNAME_EXISTS"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeUnauthorized       = "UNAUTHORIZED"
	codeInvalidRequest     = "INVALID_REQUEST"
	codeInternal           = "INTERNAL_ERROR"
)

// writeJSON serializes v with the given status. Encoding failures after the
// status line are logged, not surfaced; headers are already gone.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps a domain error onto the boundary contract. Expected
// outcomes (conflicts, bad credentials, rejected tokens, invalid input)
// pass their message through; internal faults are logged in full and
// surfaced generically so no query text or stack state leaks.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		s.writeJSON(w, http.StatusConflict, errorResponse{
			Error: auth.ErrEmailExists.Error(),
			Code:  codeEmailExists,
		})
	case errors.Is(err, auth.ErrUsernameExists):
		s.writeJSON(w, http.StatusConflict, errorResponse{
			Error: auth.ErrUsernameExists.Error(),
			Code:  codeUsernameExists,
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error: auth.ErrInvalidCredentials.Error(),
			Code:  codeInvalidCredentials,
		})
	case errors.Is(err, auth.ErrUnauthorized):
		s.writeUnauthorized(w)
	case isValidationError(err):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Code:  codeInvalidRequest,
		})
	default:
		errutil.LogError(s.logger.With("path", r.URL.Path), "request failed", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal server error",
			Code:  codeInternal,
		})
	}
}

// writeUnauthorized emits the single rejection shape used for every
// missing, malformed, forged, or expired token.
func (s *Server) writeUnauthorized(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusUnauthorized, errorResponse{
		Error: "missing or invalid token",
		Code:  codeUnauthorized,
	})
}

// isValidationError reports whether err came from request-shape validation.
// Validation sites attach AUTH_INVALID_* / AUTH_EMPTY_PASSWORD oops codes;
// anything else is not safe to echo back to the client.
func isValidationError(err error) bool {
	code := errutil.Code(err)
	return strings.HasPrefix(code, "AUTH_INVALID_") || code == "AUTH_EMPTY_PASSWORD"
}

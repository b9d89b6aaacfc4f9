// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"net/http"
	"strings"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
)

// bearerPrefix is the exact scheme literal stripped from the
// Authorization header.
const bearerPrefix = "Bearer "

// RequireAuth guards protected routes. A missing Authorization header is
// rejected outright. The Bearer prefix is stripped best-effort: when the
// prefix is absent the raw header value goes to validation as-is, where it
// fails signature verification like any other garbage. On success the
// validated claims are injected into the request context; on failure the
// request is short-circuited with 401 before the handler runs.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			s.countValidation(observability.OutcomeRejected)
			s.writeUnauthorized(w)
			return
		}

		claims, err := s.tokens.Validate(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			s.countValidation(observability.OutcomeRejected)
			s.writeUnauthorized(w)
			return
		}

		s.countValidation(observability.OutcomeSuccess)
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), claims)))
	})
}

func (s *Server) countValidation(outcome string) {
	if s.metrics != nil {
		s.metrics.TokenValidationsTotal.WithLabelValues(outcome).Inc()
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func TestAccountRole(t *testing.T) {
	assert.Equal(t, auth.RoleAdmin, (&auth.Account{Superuser: true}).Role())
	assert.Equal(t, auth.RoleUser, (&auth.Account{}).Role())
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "alice", false},
		{"valid with underscore and digits", "alice_42", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", "a_very_long_username_that_exceeds_thirty", true},
		{"starts with digit", "1alice", true},
		{"contains space", "ali ce", true},
		{"contains dash", "ali-ce", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "AUTH_INVALID_USERNAME")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, auth.ValidateEmail("a@x.com"))
	assert.NoError(t, auth.ValidateEmail("Mixed.Case@Example.COM"))

	for _, email := range []string{"", "no-at-sign", "@x.com", "a@", "a b@x.com"} {
		errutil.AssertErrorCode(t, auth.ValidateEmail(email), "AUTH_INVALID_EMAIL")
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := auth.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "secret123"}

	t.Run("valid request", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("short password", func(t *testing.T) {
		req := valid
		req.Password = "short"
		errutil.AssertErrorCode(t, req.Validate(), "AUTH_INVALID_PASSWORD")
	})

	t.Run("bad username", func(t *testing.T) {
		req := valid
		req.Username = "a"
		errutil.AssertErrorCode(t, req.Validate(), "AUTH_INVALID_USERNAME")
	})

	t.Run("bad email", func(t *testing.T) {
		req := valid
		req.Email = "nope"
		errutil.AssertErrorCode(t, req.Validate(), "AUTH_INVALID_EMAIL")
	})
}

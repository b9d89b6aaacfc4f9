// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "context"

// identityKey is the context key type for the authenticated identity.
type identityKey struct{}

// WithIdentity returns a context carrying the validated claims of the
// authenticated caller.
func WithIdentity(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, identityKey{}, claims)
}

// IdentityFromContext retrieves the authenticated identity from the
// context, returning nil if the request was not authenticated.
func IdentityFromContext(ctx context.Context) *Claims {
	claims, ok := ctx.Value(identityKey{}).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

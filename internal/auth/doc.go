// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth implements the authentication core: account records and
// their persistence contract, argon2id password hashing, signed identity
// tokens, and the registration/login service that ties them together.
package auth

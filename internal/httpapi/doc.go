// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package httpapi exposes the authentication service over HTTP JSON:
// registration, login, and the bearer-token-guarded profile endpoint.
package httpapi

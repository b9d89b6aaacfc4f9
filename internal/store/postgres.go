// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package store provides PostgreSQL pool construction and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Ping retry policy for startup. The database being briefly unreachable
// while an orchestrator starts containers is normal; anything past the cap
// is a fatal startup condition.
const (
	pingBaseDelay  = 250 * time.Millisecond
	pingMaxRetries = 5
)

// NewPool creates a connection pool and verifies connectivity with a
// retried ping. Connection checkout and release per query are handled by
// the pool itself; callers never hold a connection across operations.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("operation", "parse connection string").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(pingMaxRetries, retry.NewExponential(pingBaseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}

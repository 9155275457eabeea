// Package db provides PostgreSQL persistence for runs, responses, results,
// signature pairs, entitlements, and users.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/ray-assessment/internal/run"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// classify wraps retryable database failures as transient so the service
// layer's retry policy can see them. Connection-class errors, timeouts,
// serialization failures, and deadlocks retry; everything else surfaces
// as-is.
func classify(message string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := pgErr.Code
		if strings.HasPrefix(code, "08") || code == "40001" || code == "40P01" || code == "57P03" {
			return &run.TransientError{Message: message, Cause: err}
		}
		return fmt.Errorf("%s: %w", message, err)
	}
	if pgconn.Timeout(err) {
		return &run.TransientError{Message: message, Cause: err}
	}
	return fmt.Errorf("%s: %w", message, err)
}

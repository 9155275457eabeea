package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/ray-assessment/internal/run"
	"github.com/jonathan/ray-assessment/internal/types"
)

// createRunMaxAttempts bounds the re-execution loop on run-number
// collisions before handing the failure to the service retry policy.
const createRunMaxAttempts = 5

// CreateRun inserts a draft run. The per-user run number comes from a
// MAX+1 subquery inside the INSERT; under READ COMMITTED two concurrent
// creates for the same user can read the same MAX and compute the same
// number. The unique constraint on (user_id, run_number) rejects the
// loser, and the INSERT is re-executed so the subquery sees the winner's
// committed row.
func (db *DB) CreateRun(ctx context.Context, userID uuid.UUID, snapshot types.EntitlementSnapshot) (*types.Run, error) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entitlement snapshot: %w", err)
	}

	var r types.Run
	for attempt := 1; ; attempt++ {
		err = db.pool.QueryRow(ctx,
			`INSERT INTO runs (user_id, run_number, status, entitlement_snapshot)
			 VALUES ($1,
			         (SELECT COALESCE(MAX(run_number), 0) + 1 FROM runs WHERE user_id = $1),
			         'draft', $2)
			 RETURNING id, user_id, run_number, status, created_at`,
			userID, snapshotJSON,
		).Scan(&r.ID, &r.UserID, &r.RunNumber, &r.Status, &r.CreatedAt)
		if err == nil {
			return &r, nil
		}
		if !isRunNumberCollision(err) {
			return nil, classify("failed to create run", err)
		}
		if attempt == createRunMaxAttempts {
			return nil, &run.TransientError{Message: "failed to create run", Cause: err}
		}
	}
}

// isRunNumberCollision reports whether err is a unique violation on the
// per-user run number.
func isRunNumberCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23505" &&
		pgErr.ConstraintName == "runs_user_id_run_number_key"
}

// GetRun retrieves a run by ID, nil if it does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*types.Run, error) {
	var r types.Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, run_number, status, item_ids,
		        created_at, started_at, completed_at, canceled_at
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.UserID, &r.RunNumber, &r.Status, &r.ItemIDs,
		&r.CreatedAt, &r.StartedAt, &r.CompletedAt, &r.CanceledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("failed to get run", err)
	}
	return &r, nil
}

// ActivateRun transitions draft -> active and persists the item list. The
// status predicate in the WHERE clause makes the transition atomic: zero
// rows affected means the run was not in draft.
func (db *DB) ActivateRun(ctx context.Context, runID uuid.UUID, itemIDs []string, startedAt time.Time) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE runs SET status = 'active', item_ids = $1, started_at = $2
		 WHERE id = $3 AND status = 'draft'`,
		itemIDs, startedAt, runID,
	)
	if err != nil {
		return false, classify("failed to activate run", err)
	}
	return result.RowsAffected() > 0, nil
}

// CancelRun transitions draft|active -> canceled.
func (db *DB) CancelRun(ctx context.Context, runID uuid.UUID, canceledAt time.Time) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE runs SET status = 'canceled', canceled_at = $1
		 WHERE id = $2 AND status IN ('draft', 'active')`,
		canceledAt, runID,
	)
	if err != nil {
		return false, classify("failed to cancel run", err)
	}
	return result.RowsAffected() > 0, nil
}

// CompleteRun transitions active -> completed and writes the result and
// signature pair in the same transaction. If the conditional status update
// matches no row the transaction rolls back and nothing is persisted.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, completedAt time.Time, profile *types.RayScoreProfile, pair *types.SignaturePair) (bool, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return false, fmt.Errorf("failed to marshal profile: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return false, classify("failed to begin completion transaction", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`UPDATE runs SET status = 'completed', completed_at = $1
		 WHERE id = $2 AND status = 'active'`,
		completedAt, runID,
	)
	if err != nil {
		return false, classify("failed to complete run", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO results (run_id, scorer_version, profile)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id) DO UPDATE SET scorer_version = $2, profile = $3`,
		runID, profile.ScorerVersion, profileJSON,
	)
	if err != nil {
		return false, classify("failed to save result", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO signature_pairs (run_id, scorer_version, input_hash, output_hash)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, scorer_version)
		 DO UPDATE SET input_hash = $3, output_hash = $4`,
		runID, pair.ScorerVersion, pair.InputHash, pair.OutputHash,
	)
	if err != nil {
		return false, classify("failed to save signature pair", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, classify("failed to commit completion", err)
	}
	return true, nil
}

// CountCompletedRuns returns how many runs the user has completed.
func (db *DB) CountCompletedRuns(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM runs WHERE user_id = $1 AND status = 'completed'`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, classify("failed to count completed runs", err)
	}
	return count, nil
}

// PriorItemIDs returns the distinct items the user answered across
// completed runs, for history-aware selection.
func (db *DB) PriorItemIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT resp.item_id
		 FROM responses resp
		 JOIN runs r ON r.id = resp.run_id
		 WHERE r.user_id = $1 AND r.status = 'completed'
		 ORDER BY resp.item_id`,
		userID,
	)
	if err != nil {
		return nil, classify("failed to list prior items", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListCompletedRunIDs returns every completed run ID, oldest first.
func (db *DB) ListCompletedRunIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id FROM runs WHERE status = 'completed' ORDER BY completed_at`,
	)
	if err != nil {
		return nil, classify("failed to list completed runs", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

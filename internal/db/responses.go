package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/ray-assessment/internal/types"
)

// UpsertResponses writes a batch of answers in one transaction. Each item
// keeps only its latest value; answered_at records the overwrite time.
func (db *DB) UpsertResponses(ctx context.Context, runID uuid.UUID, responses []types.Response) error {
	if len(responses) == 0 {
		return nil
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return classify("failed to begin response transaction", err)
	}
	defer tx.Rollback(ctx)

	for _, resp := range responses {
		_, err := tx.Exec(ctx,
			`INSERT INTO responses (run_id, item_id, value, answered_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (run_id, item_id)
			 DO UPDATE SET value = $3, answered_at = $4`,
			runID, resp.ItemID, resp.Value, resp.AnsweredAt,
		)
		if err != nil {
			return classify(fmt.Sprintf("failed to save response %s", resp.ItemID), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("failed to commit responses", err)
	}
	return nil
}

// GetResponses returns the run's stored answers as item -> value.
func (db *DB) GetResponses(ctx context.Context, runID uuid.UUID) (map[string]int, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT item_id, value FROM responses WHERE run_id = $1`,
		runID,
	)
	if err != nil {
		return nil, classify("failed to get responses", err)
	}
	defer rows.Close()

	responses := make(map[string]int)
	for rows.Next() {
		var itemID string
		var value int
		if err := rows.Scan(&itemID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses[itemID] = value
	}
	return responses, rows.Err()
}

package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/ray-assessment/internal/types"
)

// GetResult retrieves the stored profile for a run, nil if none exists.
func (db *DB) GetResult(ctx context.Context, runID uuid.UUID) (*types.RayScoreProfile, error) {
	var profileJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT profile FROM results WHERE run_id = $1`,
		runID,
	).Scan(&profileJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("failed to get result", err)
	}

	var profile types.RayScoreProfile
	if err := json.Unmarshal(profileJSON, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse stored profile: %w", err)
	}
	return &profile, nil
}

// GetSignaturePair retrieves the signature pair for a run, nil if none
// exists. When multiple scorer versions have signed the run the most
// recent pair wins.
func (db *DB) GetSignaturePair(ctx context.Context, runID uuid.UUID) (*types.SignaturePair, error) {
	var pair types.SignaturePair
	err := db.pool.QueryRow(ctx,
		`SELECT run_id, scorer_version, input_hash, output_hash
		 FROM signature_pairs WHERE run_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		runID,
	).Scan(&pair.RunID, &pair.ScorerVersion, &pair.InputHash, &pair.OutputHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("failed to get signature pair", err)
	}
	return &pair, nil
}

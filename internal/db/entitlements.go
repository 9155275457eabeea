package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/ray-assessment/internal/types"
)

// GetEntitlement retrieves the user's billing record, nil if none exists.
func (db *DB) GetEntitlement(ctx context.Context, userID uuid.UUID) (*types.Entitlement, error) {
	var ent types.Entitlement
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, billing_state, current_period_end, updated_at
		 FROM entitlements WHERE user_id = $1`,
		userID,
	).Scan(&ent.UserID, &ent.BillingState, &ent.CurrentPeriodEnd, &ent.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("failed to get entitlement", err)
	}
	return &ent, nil
}

// UpsertEntitlement writes a user's billing state as mirrored from the
// payment provider.
func (db *DB) UpsertEntitlement(ctx context.Context, userID uuid.UUID, state types.BillingState, periodEnd *time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO entitlements (user_id, billing_state, current_period_end, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id)
		 DO UPDATE SET billing_state = $2, current_period_end = $3, updated_at = NOW()`,
		userID, state, periodEnd,
	)
	if err != nil {
		return classify("failed to upsert entitlement", err)
	}
	return nil
}

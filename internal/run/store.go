package run

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/ray-assessment/internal/types"
)

// Store is the persistence surface the service needs. The PostgreSQL
// implementation lives in internal/db; tests use an in-memory fake.
//
// Lookup methods return (nil, nil) when the row does not exist. Every
// conditional transition returns false when the status predicate did not
// match, which is how the service observes a lost race.
type Store interface {
	// CreateRun inserts a draft run, atomically assigning the user's next
	// run number, and records the entitlement snapshot taken at creation.
	CreateRun(ctx context.Context, userID uuid.UUID, snapshot types.EntitlementSnapshot) (*types.Run, error)

	GetRun(ctx context.Context, runID uuid.UUID) (*types.Run, error)

	// ActivateRun transitions draft -> active, persisting the selected
	// item list. Returns false if the run was not in draft.
	ActivateRun(ctx context.Context, runID uuid.UUID, itemIDs []string, startedAt time.Time) (bool, error)

	// CancelRun transitions draft|active -> canceled. Returns false if
	// the run was already terminal.
	CancelRun(ctx context.Context, runID uuid.UUID, canceledAt time.Time) (bool, error)

	// CompleteRun transitions active -> completed and persists the
	// profile and signature pair in the same transaction. Returns false
	// if the run was not active; nothing is written in that case.
	CompleteRun(ctx context.Context, runID uuid.UUID, completedAt time.Time, profile *types.RayScoreProfile, pair *types.SignaturePair) (bool, error)

	// UpsertResponses writes a batch of answers, last write wins per item.
	UpsertResponses(ctx context.Context, runID uuid.UUID, responses []types.Response) error

	// GetResponses returns the run's stored answers as item -> value.
	GetResponses(ctx context.Context, runID uuid.UUID) (map[string]int, error)

	GetResult(ctx context.Context, runID uuid.UUID) (*types.RayScoreProfile, error)
	GetSignaturePair(ctx context.Context, runID uuid.UUID) (*types.SignaturePair, error)

	// GetEntitlement returns the user's billing record, nil if none exists.
	GetEntitlement(ctx context.Context, userID uuid.UUID) (*types.Entitlement, error)

	// CountCompletedRuns returns how many runs the user has completed.
	CountCompletedRuns(ctx context.Context, userID uuid.UUID) (int, error)

	// PriorItemIDs returns the distinct item IDs the user answered across
	// previously completed runs, for history-aware selection.
	PriorItemIDs(ctx context.Context, userID uuid.UUID) ([]string, error)

	// ListCompletedRunIDs returns every completed run, for batch
	// re-verification.
	ListCompletedRunIDs(ctx context.Context) ([]uuid.UUID, error)
}

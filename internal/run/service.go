package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/ray-assessment/internal/audit"
	"github.com/jonathan/ray-assessment/internal/bank"
	"github.com/jonathan/ray-assessment/internal/entitlement"
	"github.com/jonathan/ray-assessment/internal/scoring"
	"github.com/jonathan/ray-assessment/internal/selection"
	"github.com/jonathan/ray-assessment/internal/types"
)

// Options tune service behavior.
type Options struct {
	// DynamicSelection switches retakes to history-aware item selection.
	// First runs always get the full catalog either way.
	DynamicSelection bool

	// EntitlementOverride bypasses the billing gate. Operator use only.
	EntitlementOverride bool

	// Now is the clock; defaults to time.Now. Tests pin it.
	Now func() time.Time
}

// Service drives the run lifecycle. All methods enforce ownership before
// looking at state, so a caller probing someone else's run learns nothing
// about its status.
type Service struct {
	store  Store
	bank   *bank.Bank
	logger *zap.Logger
	opts   Options
}

// NewService wires a Service. logger must not be nil; pass zap.NewNop()
// when output is unwanted.
func NewService(store Store, b *bank.Bank, logger *zap.Logger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, bank: b, logger: logger, opts: opts}
}

// CreateRun evaluates the entitlement gate against fresh billing state and
// inserts a draft run. The gate decision is never cached; every create
// re-reads the entitlement.
func (s *Service) CreateRun(ctx context.Context, userID uuid.UUID) (*types.Run, error) {
	ent, err := s.store.GetEntitlement(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read entitlement: %w", err)
	}
	completed, err := s.store.CountCompletedRuns(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed runs: %w", err)
	}

	now := s.opts.Now()
	input := entitlement.GateInput{
		BillingState:      types.BillingNone,
		CompletedRunCount: completed,
		Now:               now,
		Override:          s.opts.EntitlementOverride,
	}
	if ent != nil {
		input.BillingState = ent.BillingState
		input.CurrentPeriodEnd = ent.CurrentPeriodEnd
	}

	decision := entitlement.CanStartRun(input)
	snapshot := types.EntitlementSnapshot{
		BillingState:      input.BillingState,
		CompletedRunCount: completed,
		Allowed:           decision.Allowed,
		Reason:            decision.Reason,
		EvaluatedAt:       now,
	}
	if !decision.Allowed {
		s.logger.Info("run creation denied by entitlement gate",
			zap.String("user_id", userID.String()),
			zap.String("reason", decision.Reason))
		return nil, &AuthorizationError{Message: "cannot start a new run", Reason: decision.Reason}
	}

	var created *types.Run
	err = withRetry(ctx, func() error {
		var err error
		created, err = s.store.CreateRun(ctx, userID, snapshot)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.Info("run created",
		zap.String("run_id", created.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("run_number", created.RunNumber))
	return created, nil
}

// StartRun resolves the selection strategy exactly once, persists the item
// list, and activates the run. A run that already has items never gets a
// second selection.
func (s *Service) StartRun(ctx context.Context, userID, runID uuid.UUID) (*types.Run, error) {
	r, err := s.ownedRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	if r.Status != types.RunStatusDraft {
		return nil, &StateError{Code: CodeInvalidTransition,
			Message: fmt.Sprintf("cannot start a %s run", r.Status)}
	}
	if len(r.ItemIDs) > 0 {
		return nil, &StateError{Code: CodeInvalidTransition,
			Message: "run already has a selected item list"}
	}

	strategy, err := s.resolveStrategy(ctx, userID, r.RunNumber)
	if err != nil {
		return nil, err
	}
	itemIDs, err := selection.Select(runID, strategy, s.bank)
	if err != nil {
		return nil, fmt.Errorf("item selection failed: %w", err)
	}

	startedAt := s.opts.Now()
	var ok bool
	err = withRetry(ctx, func() error {
		var err error
		ok, err = s.store.ActivateRun(ctx, runID, itemIDs, startedAt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to activate run: %w", err)
	}
	if !ok {
		return nil, &StateError{Code: CodeInvalidTransition, Message: "run is no longer in draft"}
	}

	r.Status = types.RunStatusActive
	r.ItemIDs = itemIDs
	r.StartedAt = &startedAt

	s.logger.Info("run started",
		zap.String("run_id", runID.String()),
		zap.String("strategy", string(strategy.Kind)),
		zap.Int("item_count", len(itemIDs)))
	return r, nil
}

func (s *Service) resolveStrategy(ctx context.Context, userID uuid.UUID, runNumber int) (selection.Strategy, error) {
	if !s.opts.DynamicSelection || runNumber == 1 {
		return selection.Static(runNumber), nil
	}
	prior, err := s.store.PriorItemIDs(ctx, userID)
	if err != nil {
		return selection.Strategy{}, fmt.Errorf("failed to load prior items: %w", err)
	}
	return selection.Dynamic(runNumber, prior), nil
}

// SubmitResponses validates and stores a batch of answers. Values are
// checked against the run's assigned items and each item's legal range;
// resubmitting an item overwrites the earlier answer.
func (s *Service) SubmitResponses(ctx context.Context, userID, runID uuid.UUID, entries []types.ResponseEntry) error {
	r, err := s.ownedRun(ctx, userID, runID)
	if err != nil {
		return err
	}
	if r.Status != types.RunStatusActive {
		return &StateError{Code: CodeRunNotActive,
			Message: fmt.Sprintf("cannot accept responses for a %s run", r.Status)}
	}

	assigned := make(map[string]bool, len(r.ItemIDs))
	for _, id := range r.ItemIDs {
		assigned[id] = true
	}

	now := s.opts.Now()
	responses := make([]types.Response, 0, len(entries))
	for _, entry := range entries {
		if !assigned[entry.ItemID] {
			return &DataError{Code: CodeMalformedResponse,
				Message: fmt.Sprintf("item %s is not assigned to this run", entry.ItemID)}
		}
		item, ok := s.bank.Item(entry.ItemID)
		if !ok {
			return &DataError{Code: CodeMalformedResponse,
				Message: fmt.Sprintf("item %s not in catalog", entry.ItemID)}
		}
		if entry.Value < 0 || entry.Value > bank.MaxValue(item) {
			return &DataError{Code: CodeMalformedResponse,
				Message: fmt.Sprintf("item %s value %d out of range 0..%d", entry.ItemID, entry.Value, bank.MaxValue(item))}
		}
		responses = append(responses, types.Response{
			RunID:      runID,
			ItemID:     entry.ItemID,
			Value:      entry.Value,
			AnsweredAt: now,
		})
	}

	err = withRetry(ctx, func() error {
		return s.store.UpsertResponses(ctx, runID, responses)
	})
	if err != nil {
		return fmt.Errorf("failed to store responses: %w", err)
	}
	return nil
}

// CompleteRun scores the run and persists the profile, signature pair, and
// status change atomically. A run that cannot be scored stays active; a
// concurrent second completion observes run_not_active.
func (s *Service) CompleteRun(ctx context.Context, userID, runID uuid.UUID) (*types.RayScoreProfile, error) {
	r, err := s.ownedRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	if r.Status != types.RunStatusActive {
		return nil, &StateError{Code: CodeRunNotActive,
			Message: fmt.Sprintf("cannot complete a %s run", r.Status)}
	}
	if r.StartedAt == nil {
		return nil, &StateError{Code: CodeInvalidTransition, Message: "active run has no start time"}
	}

	responses, err := s.store.GetResponses(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	completedAt := s.opts.Now()
	profile, err := scoring.Score(scoring.Input{
		Responses:   responses,
		ItemIDs:     r.ItemIDs,
		Bank:        s.bank,
		StartedAt:   *r.StartedAt,
		CompletedAt: completedAt,
	})
	if err != nil {
		var covErr *scoring.InsufficientCoverageError
		if errors.As(err, &covErr) {
			return nil, &DataError{Code: CodeInsufficientResponses,
				Message: fmt.Sprintf("answered %.0f%% of scorable items, need %.0f%%",
					covErr.Coverage*100, covErr.Required*100),
				Cause: err}
		}
		return nil, &DataError{Code: CodeMalformedResponse, Message: "scoring failed", Cause: err}
	}

	pair, err := audit.GenerateSignaturePair(runID, responses, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signature pair: %w", err)
	}

	var ok bool
	err = withRetry(ctx, func() error {
		var err error
		ok, err = s.store.CompleteRun(ctx, runID, completedAt, profile, pair)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist completion: %w", err)
	}
	if !ok {
		return nil, &StateError{Code: CodeRunNotActive, Message: "run was completed or canceled concurrently"}
	}

	s.logger.Info("run completed",
		zap.String("run_id", runID.String()),
		zap.String("archetype", profile.ArchetypeID),
		zap.String("band", string(profile.ConfidenceBand)))
	return profile, nil
}

// CancelRun abandons a draft or active run. Irreversible.
func (s *Service) CancelRun(ctx context.Context, userID, runID uuid.UUID) error {
	r, err := s.ownedRun(ctx, userID, runID)
	if err != nil {
		return err
	}
	if r.Status.IsTerminal() {
		return &StateError{Code: CodeInvalidTransition,
			Message: fmt.Sprintf("cannot cancel a %s run", r.Status)}
	}

	var ok bool
	err = withRetry(ctx, func() error {
		var err error
		ok, err = s.store.CancelRun(ctx, runID, s.opts.Now())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to cancel run: %w", err)
	}
	if !ok {
		return &StateError{Code: CodeInvalidTransition, Message: "run became terminal concurrently"}
	}

	s.logger.Info("run canceled", zap.String("run_id", runID.String()))
	return nil
}

// GetRun returns the caller's run.
func (s *Service) GetRun(ctx context.Context, userID, runID uuid.UUID) (*types.Run, error) {
	return s.ownedRun(ctx, userID, runID)
}

// GetResult returns the stored profile for a completed run.
func (s *Service) GetResult(ctx context.Context, userID, runID uuid.UUID) (*types.RayScoreProfile, error) {
	r, err := s.ownedRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	if r.Status != types.RunStatusCompleted {
		return nil, &StateError{Code: CodeInvalidTransition,
			Message: fmt.Sprintf("run is %s, results exist only for completed runs", r.Status)}
	}

	profile, err := s.store.GetResult(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	if profile == nil {
		return nil, &IntegrityError{RunID: runID, Missing: true,
			Message: "completed run has no stored result"}
	}
	return profile, nil
}

// VerifySignature recomputes the run's hashes from stored data and checks
// them against the stored pair. A missing pair is an integrity error in
// its own right; a mismatch is returned in the report and logged, never
// swallowed.
func (s *Service) VerifySignature(ctx context.Context, userID, runID uuid.UUID) (*types.VerificationReport, error) {
	r, err := s.ownedRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	if r.Status != types.RunStatusCompleted {
		return nil, &StateError{Code: CodeInvalidTransition,
			Message: fmt.Sprintf("run is %s, only completed runs carry signatures", r.Status)}
	}
	return s.verifyCompleted(ctx, runID)
}

// VerifyRun is the owner-agnostic variant used by operator tooling.
func (s *Service) VerifyRun(ctx context.Context, runID uuid.UUID) (*types.VerificationReport, error) {
	r, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if r == nil {
		return nil, &NotFoundError{RunID: runID}
	}
	if r.Status != types.RunStatusCompleted {
		return nil, &StateError{Code: CodeInvalidTransition,
			Message: fmt.Sprintf("run is %s, only completed runs carry signatures", r.Status)}
	}
	return s.verifyCompleted(ctx, runID)
}

// ListCompletedRunIDs exposes the store listing for batch verification.
func (s *Service) ListCompletedRunIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.store.ListCompletedRunIDs(ctx)
}

func (s *Service) verifyCompleted(ctx context.Context, runID uuid.UUID) (*types.VerificationReport, error) {
	pair, err := s.store.GetSignaturePair(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load signature pair: %w", err)
	}
	if pair == nil {
		s.logger.Error("no signature pair on file",
			zap.String("run_id", runID.String()))
		return nil, &IntegrityError{RunID: runID, Missing: true,
			Message: "no signature pair on file"}
	}

	responses, err := s.store.GetResponses(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	profile, err := s.store.GetResult(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	if profile == nil {
		s.logger.Error("signature present but result missing",
			zap.String("run_id", runID.String()))
		return nil, &IntegrityError{RunID: runID, Missing: true,
			Message: "signature present but result missing"}
	}

	report, err := audit.Verify(pair, responses, profile)
	if err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}
	if !report.Match {
		s.logger.Error("signature verification mismatch",
			zap.String("run_id", runID.String()),
			zap.Bool("input_match", report.InputMatch),
			zap.Bool("output_match", report.OutputMatch))
	}
	return report, nil
}

// ownedRun loads a run and enforces ownership before any state is
// revealed. A run owned by someone else reads as an authorization error,
// not as a status.
func (s *Service) ownedRun(ctx context.Context, userID, runID uuid.UUID) (*types.Run, error) {
	var r *types.Run
	err := withRetry(ctx, func() error {
		var err error
		r, err = s.store.GetRun(ctx, runID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if r == nil {
		return nil, &NotFoundError{RunID: runID}
	}
	if r.UserID != userID {
		return nil, &AuthorizationError{Message: "run belongs to a different user"}
	}
	return r, nil
}

package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/ray-assessment/internal/bank"
	"github.com/jonathan/ray-assessment/internal/types"
)

// testClock is a manually advanced clock so durations are controlled.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testBank(t *testing.T) *bank.Bank {
	t.Helper()
	catalog := bank.Catalog{Version: "test-1"}
	for _, rayID := range types.RayIDs {
		for i := 1; i <= 5; i++ {
			catalog.Items = append(catalog.Items, types.Item{
				ID:           fmt.Sprintf("%s-%02d", rayID, i),
				RayID:        rayID,
				Weight:       1.0,
				PromptText:   "prompt",
				ResponseType: types.ResponseTypeFrequency,
				Polarity:     types.PolarityNormal,
				Section:      types.SectionRayShine,
			})
		}
	}
	b, err := bank.New(catalog)
	require.NoError(t, err)
	return b
}

type fixture struct {
	svc   *Service
	store *memStore
	clock *testClock
	user  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	clock := newTestClock()
	user := uuid.New()
	store.ents[user] = &types.Entitlement{UserID: user, BillingState: types.BillingSubActive}
	svc := NewService(store, testBank(t), zap.NewNop(), Options{Now: clock.Now})
	return &fixture{svc: svc, store: store, clock: clock, user: user}
}

// activeRun creates and starts a run, returning it in active state.
func (f *fixture) activeRun(t *testing.T) *types.Run {
	t.Helper()
	ctx := context.Background()
	created, err := f.svc.CreateRun(ctx, f.user)
	require.NoError(t, err)
	started, err := f.svc.StartRun(ctx, f.user, created.ID)
	require.NoError(t, err)
	return started
}

func (f *fixture) answerAll(t *testing.T, r *types.Run, value int) {
	t.Helper()
	entries := make([]types.ResponseEntry, 0, len(r.ItemIDs))
	for _, id := range r.ItemIDs {
		entries = append(entries, types.ResponseEntry{ItemID: id, Value: value})
	}
	require.NoError(t, f.svc.SubmitResponses(context.Background(), f.user, r.ID, entries))
}

func TestCreateRun_AssignsSequentialRunNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateRun(ctx, f.user)
	require.NoError(t, err)
	second, err := f.svc.CreateRun(ctx, f.user)
	require.NoError(t, err)

	assert.Equal(t, 1, first.RunNumber)
	assert.Equal(t, 2, second.RunNumber)
	assert.Equal(t, types.RunStatusDraft, first.Status)
}

func TestCreateRun_GateDenial(t *testing.T) {
	f := newFixture(t)
	f.store.ents[f.user] = &types.Entitlement{UserID: f.user, BillingState: types.BillingPastDue}

	_, err := f.svc.CreateRun(context.Background(), f.user)
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "reactivation_required", authErr.Reason)
}

func TestCreateRun_NoEntitlementNeedsUpgrade(t *testing.T) {
	f := newFixture(t)
	user := uuid.New() // no entitlement row

	_, err := f.svc.CreateRun(context.Background(), user)
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "needs_upgrade", authErr.Reason)
}

func TestStartRun_SelectsItemsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateRun(ctx, f.user)
	require.NoError(t, err)

	started, err := f.svc.StartRun(ctx, f.user, created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RunStatusActive, started.Status)
	assert.Len(t, started.ItemIDs, 45)
	require.NotNil(t, started.StartedAt)

	// A second start is an invalid transition, never a re-selection.
	_, err = f.svc.StartRun(ctx, f.user, created.ID)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, CodeInvalidTransition, stateErr.Code)
}

func TestStartRun_WrongOwnerHidesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateRun(ctx, f.user)
	require.NoError(t, err)

	_, err = f.svc.StartRun(ctx, uuid.New(), created.ID)
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestSubmitResponses_LastWriteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)

	itemID := r.ItemIDs[0]
	require.NoError(t, f.svc.SubmitResponses(ctx, f.user, r.ID,
		[]types.ResponseEntry{{ItemID: itemID, Value: 1}}))
	require.NoError(t, f.svc.SubmitResponses(ctx, f.user, r.ID,
		[]types.ResponseEntry{{ItemID: itemID, Value: 4}}))

	stored, err := f.store.GetResponses(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored[itemID])
}

func TestSubmitResponses_RejectsUnassignedItem(t *testing.T) {
	f := newFixture(t)
	r := f.activeRun(t)

	err := f.svc.SubmitResponses(context.Background(), f.user, r.ID,
		[]types.ResponseEntry{{ItemID: "ghost", Value: 2}})
	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, CodeMalformedResponse, dataErr.Code)
}

func TestSubmitResponses_RequiresActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateRun(ctx, f.user)
	require.NoError(t, err)

	err = f.svc.SubmitResponses(ctx, f.user, created.ID,
		[]types.ResponseEntry{{ItemID: "R1-01", Value: 2}})
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, CodeRunNotActive, stateErr.Code)
}

func TestCompleteRun_ScoresAndSigns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)
	f.answerAll(t, r, 3)
	f.clock.Advance(20 * time.Minute)

	profile, err := f.svc.CompleteRun(ctx, f.user, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2"}, profile.TopRays)

	stored, err := f.store.GetRun(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RunStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	pair, err := f.store.GetSignaturePair(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, profile.ScorerVersion, pair.ScorerVersion)
}

func TestCompleteRun_InsufficientCoverageKeepsRunActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)

	// Answer under the coverage floor.
	entries := []types.ResponseEntry{}
	for _, id := range r.ItemIDs[:10] {
		entries = append(entries, types.ResponseEntry{ItemID: id, Value: 2})
	}
	require.NoError(t, f.svc.SubmitResponses(ctx, f.user, r.ID, entries))

	_, err := f.svc.CompleteRun(ctx, f.user, r.ID)
	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, CodeInsufficientResponses, dataErr.Code)

	stored, err := f.store.GetRun(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RunStatusActive, stored.Status)
}

func TestCompleteRun_SecondCompleteObservesRunNotActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)
	f.answerAll(t, r, 2)

	_, err := f.svc.CompleteRun(ctx, f.user, r.ID)
	require.NoError(t, err)

	firstProfile, err := f.store.GetResult(ctx, r.ID)
	require.NoError(t, err)
	firstPair, err := f.store.GetSignaturePair(ctx, r.ID)
	require.NoError(t, err)

	_, err = f.svc.CompleteRun(ctx, f.user, r.ID)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, CodeRunNotActive, stateErr.Code)

	// The losing complete must leave the stored result and signature pair
	// exactly as the winner wrote them.
	profile, err := f.store.GetResult(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, firstProfile, profile)
	pair, err := f.store.GetSignaturePair(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, firstPair, pair)
}

func TestCompleteRun_ConcurrentCompletionsOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)
	f.answerAll(t, r, 2)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CompleteRun(ctx, f.user, r.ID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var stateErr *StateError
		require.ErrorAs(t, err, &stateErr)
	}
	assert.Equal(t, 1, winners)
}

func TestCancelRun_TerminalIsIrreversible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)

	require.NoError(t, f.svc.CancelRun(ctx, f.user, r.ID))

	// No operation resurrects a canceled run.
	_, err := f.svc.StartRun(ctx, f.user, r.ID)
	assert.Error(t, err)
	err = f.svc.CancelRun(ctx, f.user, r.ID)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	_, err = f.svc.CompleteRun(ctx, f.user, r.ID)
	assert.Error(t, err)
}

func TestGetResult_OnlyForCompletedRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)

	_, err := f.svc.GetResult(ctx, f.user, r.ID)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)

	f.answerAll(t, r, 3)
	_, err = f.svc.CompleteRun(ctx, f.user, r.ID)
	require.NoError(t, err)

	profile, err := f.svc.GetResult(ctx, f.user, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "R1-R2", profile.ArchetypeID)
}

func TestVerifySignature_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)
	f.answerAll(t, r, 3)
	_, err := f.svc.CompleteRun(ctx, f.user, r.ID)
	require.NoError(t, err)

	report, err := f.svc.VerifySignature(ctx, f.user, r.ID)
	require.NoError(t, err)
	assert.True(t, report.Match)
}

func TestVerifySignature_DetectsMutatedResponse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)
	f.answerAll(t, r, 3)
	_, err := f.svc.CompleteRun(ctx, f.user, r.ID)
	require.NoError(t, err)

	// Tamper with a stored answer behind the service's back.
	f.store.mu.Lock()
	resp := f.store.responses[r.ID][r.ItemIDs[0]]
	resp.Value = 0
	f.store.responses[r.ID][r.ItemIDs[0]] = resp
	f.store.mu.Unlock()

	report, err := f.svc.VerifySignature(ctx, f.user, r.ID)
	require.NoError(t, err)
	assert.False(t, report.InputMatch)
	assert.False(t, report.Match)
	assert.True(t, report.OutputMatch)
}

func TestVerifySignature_MissingPairIsIntegrityError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.activeRun(t)
	f.answerAll(t, r, 3)
	_, err := f.svc.CompleteRun(ctx, f.user, r.ID)
	require.NoError(t, err)

	f.store.mu.Lock()
	delete(f.store.signatures, r.ID)
	f.store.mu.Unlock()

	_, err = f.svc.VerifySignature(ctx, f.user, r.ID)
	var intErr *IntegrityError
	require.ErrorAs(t, err, &intErr)
	assert.True(t, intErr.Missing)
}

func TestWithRetry_RecoverFromTransientFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.mu.Lock()
	f.store.failNext = &TransientError{Message: "connection reset"}
	f.store.mu.Unlock()

	// The transient failure on the first store call is retried away.
	created, err := f.svc.CreateRun(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 1, created.RunNumber)
}

func TestWithRetry_NonTransientNotRetried(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return errors.New("permanent")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNotFoundRun(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetRun(context.Background(), f.user, uuid.New())
	var nfErr *NotFoundError
	assert.ErrorAs(t, err, &nfErr)
}

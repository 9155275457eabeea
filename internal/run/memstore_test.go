package run

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/ray-assessment/internal/types"
)

// memStore is an in-memory Store for service tests. It mirrors the
// conditional-transition semantics of the SQL store: transitions check the
// current status under a lock and report false when the predicate fails.
type memStore struct {
	mu         sync.Mutex
	runs       map[uuid.UUID]*types.Run
	responses  map[uuid.UUID]map[string]types.Response
	results    map[uuid.UUID]*types.RayScoreProfile
	signatures map[uuid.UUID]*types.SignaturePair
	ents       map[uuid.UUID]*types.Entitlement
	runSeq     map[uuid.UUID]int

	failNext error // when set, the next call returns it once
}

func newMemStore() *memStore {
	return &memStore{
		runs:       make(map[uuid.UUID]*types.Run),
		responses:  make(map[uuid.UUID]map[string]types.Response),
		results:    make(map[uuid.UUID]*types.RayScoreProfile),
		signatures: make(map[uuid.UUID]*types.SignaturePair),
		ents:       make(map[uuid.UUID]*types.Entitlement),
		runSeq:     make(map[uuid.UUID]int),
	}
}

func (m *memStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *memStore) CreateRun(_ context.Context, userID uuid.UUID, _ types.EntitlementSnapshot) (*types.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	m.runSeq[userID]++
	r := &types.Run{
		ID:        uuid.New(),
		UserID:    userID,
		RunNumber: m.runSeq[userID],
		Status:    types.RunStatusDraft,
		CreatedAt: time.Now(),
	}
	m.runs[r.ID] = r
	return cloneRun(r), nil
}

func (m *memStore) GetRun(_ context.Context, runID uuid.UUID) (*types.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	r, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	return cloneRun(r), nil
}

func (m *memStore) ActivateRun(_ context.Context, runID uuid.UUID, itemIDs []string, startedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	r, ok := m.runs[runID]
	if !ok || r.Status != types.RunStatusDraft {
		return false, nil
	}
	r.Status = types.RunStatusActive
	r.ItemIDs = append([]string(nil), itemIDs...)
	t := startedAt
	r.StartedAt = &t
	return true, nil
}

func (m *memStore) CancelRun(_ context.Context, runID uuid.UUID, canceledAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	r, ok := m.runs[runID]
	if !ok || r.Status.IsTerminal() {
		return false, nil
	}
	r.Status = types.RunStatusCanceled
	t := canceledAt
	r.CanceledAt = &t
	return true, nil
}

func (m *memStore) CompleteRun(_ context.Context, runID uuid.UUID, completedAt time.Time, profile *types.RayScoreProfile, pair *types.SignaturePair) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	r, ok := m.runs[runID]
	if !ok || r.Status != types.RunStatusActive {
		return false, nil
	}
	r.Status = types.RunStatusCompleted
	t := completedAt
	r.CompletedAt = &t
	m.results[runID] = profile
	m.signatures[runID] = pair
	return true, nil
}

func (m *memStore) UpsertResponses(_ context.Context, runID uuid.UUID, responses []types.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	byItem, ok := m.responses[runID]
	if !ok {
		byItem = make(map[string]types.Response)
		m.responses[runID] = byItem
	}
	for _, resp := range responses {
		byItem[resp.ItemID] = resp
	}
	return nil
}

func (m *memStore) GetResponses(_ context.Context, runID uuid.UUID) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(m.responses[runID]))
	for itemID, resp := range m.responses[runID] {
		out[itemID] = resp.Value
	}
	return out, nil
}

func (m *memStore) GetResult(_ context.Context, runID uuid.UUID) (*types.RayScoreProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[runID], nil
}

func (m *memStore) GetSignaturePair(_ context.Context, runID uuid.UUID) (*types.SignaturePair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signatures[runID], nil
}

func (m *memStore) GetEntitlement(_ context.Context, userID uuid.UUID) (*types.Entitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ents[userID], nil
}

func (m *memStore) CountCompletedRuns(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.runs {
		if r.UserID == userID && r.Status == types.RunStatusCompleted {
			count++
		}
	}
	return count, nil
}

func (m *memStore) PriorItemIDs(_ context.Context, userID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for runID, r := range m.runs {
		if r.UserID != userID || r.Status != types.RunStatusCompleted {
			continue
		}
		for itemID := range m.responses[runID] {
			if !seen[itemID] {
				seen[itemID] = true
				ids = append(ids, itemID)
			}
		}
	}
	return ids, nil
}

func (m *memStore) ListCompletedRunIDs(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for runID, r := range m.runs {
		if r.Status == types.RunStatusCompleted {
			ids = append(ids, runID)
		}
	}
	return ids, nil
}

func cloneRun(r *types.Run) *types.Run {
	clone := *r
	clone.ItemIDs = append([]string(nil), r.ItemIDs...)
	return &clone
}

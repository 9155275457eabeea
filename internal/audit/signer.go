// Package audit produces and checks the tamper-evidence records that bind
// a stored result to the stored answers it was derived from.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jonathan/ray-assessment/internal/types"
)

// inputEntry is one answer in the canonical input serialization. The short
// keys are part of the wire format and must never change: existing stored
// hashes were computed over them.
type inputEntry struct {
	Q string `json:"q"`
	V int    `json:"v"`
}

// ComputeInputHash hashes a response set. Entries are sorted by item ID
// before serialization, so the hash depends only on the set's contents,
// never on insertion or iteration order.
func ComputeInputHash(responses map[string]int) (string, error) {
	entries := make([]inputEntry, 0, len(responses))
	for itemID, value := range responses {
		entries = append(entries, inputEntry{Q: itemID, V: value})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Q < entries[j].Q
	})

	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to serialize responses for hashing: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ComputeOutputHash hashes a scored profile over its canonical JSON form.
// The profile is round-tripped through a generic map so that keys are
// emitted in sorted order regardless of struct field order.
func ComputeOutputHash(profile *types.RayScoreProfile) (string, error) {
	if profile == nil {
		return "", fmt.Errorf("cannot hash a nil profile")
	}

	structJSON, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("failed to serialize profile for hashing: %w", err)
	}

	var canonical map[string]any
	if err := json.Unmarshal(structJSON, &canonical); err != nil {
		return "", fmt.Errorf("failed to canonicalize profile: %w", err)
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to serialize canonical profile: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// GenerateSignaturePair derives the pair for a run from its responses and
// scored profile. Generation is deterministic, so regenerating after a
// retry produces the identical pair and the store's merge is a no-op.
func GenerateSignaturePair(runID uuid.UUID, responses map[string]int, profile *types.RayScoreProfile) (*types.SignaturePair, error) {
	inputHash, err := ComputeInputHash(responses)
	if err != nil {
		return nil, err
	}
	outputHash, err := ComputeOutputHash(profile)
	if err != nil {
		return nil, err
	}

	return &types.SignaturePair{
		RunID:         runID,
		ScorerVersion: profile.ScorerVersion,
		InputHash:     inputHash,
		OutputHash:    outputHash,
	}, nil
}

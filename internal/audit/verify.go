package audit

import (
	"github.com/jonathan/ray-assessment/internal/types"
)

// Verify recomputes both hashes from the stored responses and profile and
// compares them against the stored pair. A mismatch is reported, never
// inferred: the report carries the per-side outcome so callers can tell a
// tampered input from a tampered output.
func Verify(stored *types.SignaturePair, responses map[string]int, profile *types.RayScoreProfile) (*types.VerificationReport, error) {
	inputHash, err := ComputeInputHash(responses)
	if err != nil {
		return nil, err
	}
	outputHash, err := ComputeOutputHash(profile)
	if err != nil {
		return nil, err
	}

	report := &types.VerificationReport{
		RunID:         stored.RunID,
		ScorerVersion: stored.ScorerVersion,
		InputMatch:    inputHash == stored.InputHash,
		OutputMatch:   outputHash == stored.OutputHash,
	}
	report.Match = report.InputMatch && report.OutputMatch
	return report, nil
}

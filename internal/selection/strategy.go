package selection

import (
	"github.com/google/uuid"

	"github.com/jonathan/ray-assessment/internal/bank"
)

// Kind discriminates the selection strategy variants.
type Kind string

const (
	// KindStatic uses the fixed ordered list for a given run number.
	// Runs created before dynamic selection existed replay through this path.
	KindStatic Kind = "static"
	// KindDynamic varies the list based on the user's prior run history.
	KindDynamic Kind = "dynamic"
)

// Strategy is a tagged variant resolved exactly once when a run starts.
// It is never re-evaluated: once item_ids are persisted to the run they
// are immutable, and re-selection is refused by the service layer.
type Strategy struct {
	Kind         Kind
	RunNumber    int
	PriorItemIDs []string // dynamic only: items answered in prior completed runs
}

// Static builds the backward-compatible fixed strategy for a run number.
func Static(runNumber int) Strategy {
	return Strategy{Kind: KindStatic, RunNumber: runNumber}
}

// Dynamic builds a history-aware strategy for a retake.
func Dynamic(runNumber int, priorItemIDs []string) Strategy {
	return Strategy{Kind: KindDynamic, RunNumber: runNumber, PriorItemIDs: priorItemIDs}
}

// Select produces the ordered item list for a run. The same runID and
// strategy always yield the same list; there is no randomness anywhere in
// this package.
func Select(runID uuid.UUID, strategy Strategy, b *bank.Bank) ([]string, error) {
	if b == nil {
		return nil, &Error{Message: "item bank is nil"}
	}
	if strategy.RunNumber < 1 {
		return nil, &Error{Message: "run number must be >= 1"}
	}

	switch strategy.Kind {
	case KindStatic:
		return selectStatic(strategy.RunNumber, b)
	case KindDynamic:
		return selectDynamic(runID, strategy, b)
	default:
		return nil, &Error{Message: "unknown strategy kind: " + string(strategy.Kind)}
	}
}

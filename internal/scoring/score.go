package scoring

import (
	"fmt"
	"time"

	"github.com/jonathan/ray-assessment/internal/bank"
	"github.com/jonathan/ray-assessment/internal/types"
)

// Input is everything the scorer reads. Responses maps item ID to raw
// value; ItemIDs is the run's assigned list in its persisted order.
// StartedAt and CompletedAt come from the run record so the scorer never
// touches a clock.
type Input struct {
	Responses   map[string]int
	ItemIDs     []string
	Bank        *bank.Bank
	StartedAt   time.Time
	CompletedAt time.Time
}

// Score computes the ray score profile for one run.
//
// It validates every response against the catalog, enforces the coverage
// floor, computes polarity-adjusted weighted ray scores on a 0..100 scale,
// selects the top two rays with deterministic tie-breaking, resolves the
// archetype, and grades confidence from the data quality flags.
func Score(in Input) (*types.RayScoreProfile, error) {
	if in.Bank == nil {
		return nil, &Error{Message: "item bank is nil"}
	}
	if len(in.ItemIDs) == 0 {
		return nil, &Error{Message: "run has no assigned items"}
	}

	assigned := make(map[string]types.Item, len(in.ItemIDs))
	for _, id := range in.ItemIDs {
		item, ok := in.Bank.Item(id)
		if !ok {
			return nil, &Error{Message: fmt.Sprintf("assigned item %s not in catalog", id)}
		}
		assigned[id] = item
	}

	for id, value := range in.Responses {
		item, ok := assigned[id]
		if !ok {
			return nil, &Error{Message: fmt.Sprintf("response for unassigned item %s", id)}
		}
		if value < 0 || value > bank.MaxValue(item) {
			return nil, &Error{Message: fmt.Sprintf("item %s value %d out of range 0..%d", id, value, bank.MaxValue(item))}
		}
	}

	// Coverage is measured over scorable (ray-tagged) items only; validity
	// items do not count toward the floor.
	assignedScorable, answeredScorable := 0, 0
	for _, id := range in.ItemIDs {
		if assigned[id].RayID == "" {
			continue
		}
		assignedScorable++
		if _, ok := in.Responses[id]; ok {
			answeredScorable++
		}
	}
	if assignedScorable == 0 {
		return nil, &Error{Message: "run has no scorable items"}
	}
	coverage := float64(answeredScorable) / float64(assignedScorable)
	if coverage < MinCoverage {
		return nil, &InsufficientCoverageError{Coverage: coverage, Required: MinCoverage}
	}

	scores, lowCoverage := rayScores(in, assigned)
	top, closeCall := topTwo(scores)
	archetypeID, archetypeName := Archetype(top[0], top[1])

	quality := dataQuality(in, assigned, scores, lowCoverage, closeCall)
	band := confidenceBand(quality)

	return &types.RayScoreProfile{
		ScorerVersion:  ScorerVersion,
		RayScores:      scores,
		TopRays:        top,
		ArchetypeID:    archetypeID,
		ArchetypeName:  archetypeName,
		ConfidenceBand: band,
		DataQuality:    quality,
	}, nil
}

// rayScores computes the 0..100 weighted score per ray. Reverse-polarity
// items contribute max minus value. Rays with no answered items score zero and
// are reported as low coverage along with rays under RayMinItems.
func rayScores(in Input, assigned map[string]types.Item) (map[string]float64, []string) {
	type accum struct {
		weighted float64
		weight   float64
		answered int
	}
	byRay := make(map[string]*accum, len(types.RayIDs))
	for _, rayID := range types.RayIDs {
		byRay[rayID] = &accum{}
	}

	for _, id := range in.ItemIDs {
		item := assigned[id]
		if item.RayID == "" {
			continue
		}
		value, ok := in.Responses[id]
		if !ok {
			continue
		}

		maxVal := bank.MaxValue(item)
		adjusted := value
		if item.Polarity == types.PolarityReverse {
			adjusted = maxVal - value
		}

		acc := byRay[item.RayID]
		acc.weighted += item.Weight * float64(adjusted) / float64(maxVal)
		acc.weight += item.Weight
		acc.answered++
	}

	scores := make(map[string]float64, len(types.RayIDs))
	var lowCoverage []string
	for _, rayID := range types.RayIDs {
		acc := byRay[rayID]
		if acc.weight > 0 {
			scores[rayID] = 100 * acc.weighted / acc.weight
		} else {
			scores[rayID] = 0
		}
		if acc.answered < RayMinItems {
			lowCoverage = append(lowCoverage, rayID)
		}
	}
	return scores, lowCoverage
}

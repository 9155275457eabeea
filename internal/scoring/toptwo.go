package scoring

import "github.com/jonathan/ray-assessment/internal/types"

// topTwo selects the two highest-scoring rays. Rays whose scores sit
// within TieThreshold of the local best count as tied, and ties always
// resolve to the lowest ray number. The result depends only on the score
// map contents, never on map iteration order.
//
// closeCall reports whether the runner-up for second place was itself
// within the tie window, meaning a small scoring change could have
// produced a different pair.
func topTwo(scores map[string]float64) (pair []string, closeCall bool) {
	first := pickBest(scores, nil)
	second := pickBest(scores, []string{first})

	closeCall = false
	if third := pickBest(scores, []string{first, second}); third != "" {
		closeCall = scores[second]-scores[third] < TieThreshold
	}

	return []string{first, second}, closeCall
}

// pickBest returns the winning ray among those not excluded: the ray with
// the lowest number whose score is within TieThreshold of the maximum.
func pickBest(scores map[string]float64, excluded []string) string {
	skip := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	best := -1.0
	found := false
	for _, rayID := range types.RayIDs {
		if skip[rayID] {
			continue
		}
		if score, ok := scores[rayID]; ok && (!found || score > best) {
			best = score
			found = true
		}
	}
	if !found {
		return ""
	}

	// RayIDs is in ascending ray-number order, so the first ray inside
	// the window is the lowest-numbered one.
	for _, rayID := range types.RayIDs {
		if skip[rayID] {
			continue
		}
		if score, ok := scores[rayID]; ok && best-score < TieThreshold {
			return rayID
		}
	}
	return ""
}

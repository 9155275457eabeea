package selection

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/google/uuid"

	"github.com/jonathan/ray-assessment/internal/bank"
)

// dynamicItemsPerRay is the per-ray quota for history-aware selection.
const dynamicItemsPerRay = 6

// selectDynamic builds a retake list that avoids repeating items the user
// has already answered, where the catalog is deep enough to allow it.
//
// Determinism: candidates are ordered by (unseen first, weight descending,
// item id ascending), and the final list interleaves rays round-robin
// starting at an offset derived from the run ID hash. No RNG is involved,
// so re-invoking selection for the same run and strategy reproduces the
// same list exactly.
func selectDynamic(runID uuid.UUID, strategy Strategy, b *bank.Bank) ([]string, error) {
	seen := make(map[string]bool, len(strategy.PriorItemIDs))
	for _, id := range strategy.PriorItemIDs {
		seen[id] = true
	}

	rays := b.Rays()
	sort.Strings(rays)

	perRay := make([][]string, 0, len(rays))
	for _, rayID := range rays {
		pool := b.RayItemIDs(rayID)

		ordered := append([]string(nil), pool...)
		sort.SliceStable(ordered, func(i, j int) bool {
			a, _ := b.Item(ordered[i])
			c, _ := b.Item(ordered[j])
			if seen[a.ID] != seen[c.ID] {
				return !seen[a.ID] // unseen items first
			}
			if a.Weight != c.Weight {
				return a.Weight > c.Weight
			}
			return a.ID < c.ID
		})

		n := dynamicItemsPerRay
		if n > len(ordered) {
			n = len(ordered)
		}
		perRay = append(perRay, ordered[:n])
	}

	interleaved := interleave(perRay, rayOffset(runID, len(rays)))
	interleaved = append(interleaved, validitySubset(b, retakeValidityItems)...)
	return interleaved, nil
}

// rayOffset derives a stable starting ray from the run ID so different
// runs open on different capacities without any randomness.
func rayOffset(runID uuid.UUID, numRays int) int {
	if numRays == 0 {
		return 0
	}
	sum := sha256.Sum256(runID[:])
	return int(binary.BigEndian.Uint32(sum[:4]) % uint32(numRays))
}

// interleave emits one item per ray in rotation, starting at offset,
// until every ray's quota is exhausted.
func interleave(perRay [][]string, offset int) []string {
	var out []string
	if len(perRay) == 0 {
		return out
	}

	cursors := make([]int, len(perRay))
	remaining := 0
	for _, items := range perRay {
		remaining += len(items)
	}

	for i := 0; remaining > 0; i++ {
		ray := (offset + i) % len(perRay)
		if cursors[ray] < len(perRay[ray]) {
			out = append(out, perRay[ray][cursors[ray]])
			cursors[ray]++
			remaining--
		}
	}
	return out
}

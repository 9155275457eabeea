package selection

import (
	"sort"

	"github.com/jonathan/ray-assessment/internal/bank"
	"github.com/jonathan/ray-assessment/internal/types"
)

// Retake allocation for static run numbers above 1. A first run gets the
// full catalog; retakes get a fixed per-ray subset so monthly re-checks
// stay short.
const (
	retakeItemsPerRay   = 4
	retakeValidityItems = 4
)

// selectStatic returns the fixed ordered list for a run number. Run 1 is
// the full catalog in catalog order; later runs use the fixed retake
// subset. The output depends only on the run number and the catalog.
func selectStatic(runNumber int, b *bank.Bank) ([]string, error) {
	if runNumber == 1 {
		return b.ItemIDs(), nil
	}
	return retakeSubset(b), nil
}

// retakeSubset takes the first retakeItemsPerRay items of each ray in
// catalog order, rays ascending, then the first retakeValidityItems
// validity items.
func retakeSubset(b *bank.Bank) []string {
	var ids []string

	rays := b.Rays()
	sort.Strings(rays)
	for _, rayID := range rays {
		rayItems := b.RayItemIDs(rayID)
		n := retakeItemsPerRay
		if n > len(rayItems) {
			n = len(rayItems)
		}
		ids = append(ids, rayItems[:n]...)
	}

	ids = append(ids, validitySubset(b, retakeValidityItems)...)
	return ids
}

// validitySubset returns up to n validity-section item IDs in catalog order.
func validitySubset(b *bank.Bank, n int) []string {
	var ids []string
	for _, id := range b.ItemIDs() {
		if len(ids) >= n {
			break
		}
		item, _ := b.Item(id)
		if item.Section == types.SectionValidity {
			ids = append(ids, id)
		}
	}
	return ids
}

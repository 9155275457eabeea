// Package bank loads and serves the versioned item bank catalog.
//
// The catalog is static reference data: it is loaded once from a JSON file,
// validated against the item bank JSON Schema, and never mutated afterward.
package bank

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jonathan/ray-assessment/internal/schemas"
	"github.com/jonathan/ray-assessment/internal/types"
)

// Catalog is the on-disk shape of the item bank file.
type Catalog struct {
	Version string       `json:"version"`
	Items   []types.Item `json:"items"`
}

// Bank is the loaded, indexed item bank.
type Bank struct {
	version string
	items   []types.Item          // catalog order, preserved
	byID    map[string]types.Item // id -> item
	byRay   map[string][]string   // ray_id -> item ids in catalog order
}

// Load reads an item bank catalog from path, validates it against the
// schema when schemaPath is non-empty, and indexes it.
func Load(path, schemaPath string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read item bank %s: %w", path, err)
	}

	if schemaPath != "" {
		schemaData, err := os.ReadFile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read item bank schema %s: %w", schemaPath, err)
		}
		if err := schemas.ValidateJSONString(string(schemaData), string(data)); err != nil {
			return nil, fmt.Errorf("item bank failed schema validation: %w", err)
		}
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse item bank JSON: %w", err)
	}

	return New(catalog)
}

// New builds an indexed Bank from an in-memory catalog.
func New(catalog Catalog) (*Bank, error) {
	if catalog.Version == "" {
		return nil, fmt.Errorf("item bank has no version")
	}
	if len(catalog.Items) == 0 {
		return nil, fmt.Errorf("item bank %s has no items", catalog.Version)
	}

	b := &Bank{
		version: catalog.Version,
		items:   catalog.Items,
		byID:    make(map[string]types.Item, len(catalog.Items)),
		byRay:   make(map[string][]string),
	}

	for _, item := range catalog.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("item bank %s contains an item with an empty id", catalog.Version)
		}
		if _, dup := b.byID[item.ID]; dup {
			return nil, fmt.Errorf("item bank %s contains duplicate item id %s", catalog.Version, item.ID)
		}
		if item.RayID != "" && !types.ValidRayID(item.RayID) {
			return nil, fmt.Errorf("item %s references unknown ray %s", item.ID, item.RayID)
		}
		if item.Weight <= 0 {
			return nil, fmt.Errorf("item %s has non-positive weight %v", item.ID, item.Weight)
		}
		b.byID[item.ID] = item
		if item.RayID != "" {
			b.byRay[item.RayID] = append(b.byRay[item.RayID], item.ID)
		}
	}

	return b, nil
}

// Version returns the catalog version string.
func (b *Bank) Version() string {
	return b.version
}

// Len returns the number of items in the catalog.
func (b *Bank) Len() int {
	return len(b.items)
}

// Item looks up an item by ID.
func (b *Bank) Item(id string) (types.Item, bool) {
	item, ok := b.byID[id]
	return item, ok
}

// ItemIDs returns all item IDs in catalog order.
func (b *Bank) ItemIDs() []string {
	ids := make([]string, len(b.items))
	for i, item := range b.items {
		ids[i] = item.ID
	}
	return ids
}

// RayItemIDs returns the item IDs tagged with the given ray, in catalog order.
func (b *Bank) RayItemIDs(rayID string) []string {
	return append([]string(nil), b.byRay[rayID]...)
}

// Rays returns the ray IDs that have at least one item, sorted ascending.
func (b *Bank) Rays() []string {
	rays := make([]string, 0, len(b.byRay))
	for rayID := range b.byRay {
		rays = append(rays, rayID)
	}
	sort.Strings(rays)
	return rays
}

// MaxValue returns the maximum legal response value for an item.
func MaxValue(item types.Item) int {
	if item.ResponseType == types.ResponseTypeScenario {
		return 3
	}
	return 4
}

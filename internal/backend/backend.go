// Package backend defines the contract every storage engine adapter
// implements. Implementations live under backend/<engine>/ (postgres,
// document, searchidx).
package backend

import (
	"context"

	"github.com/tamshai/hr-gateway/internal/model"
)

// Record is the uniform row shape adapters return. Field names follow the
// JSON tags of the entity each engine stores.
type Record = map[string]any

// Adapter is the shared contract across the relational, document, and
// search-index engines.
type Adapter interface {
	// Search returns one page of records matching the request. The caller's
	// limit is already normalized; adapters fetch limit+1 internally to
	// detect truncation but never return more than limit items.
	Search(ctx context.Context, req model.PageRequest) (model.PageResult[Record], error)

	// GetByKey returns a single record or model.ErrNotFound.
	GetByKey(ctx context.Context, key string) (Record, error)

	// Update applies the given fields to the record with the given key.
	// Returns false (and no error) when no record matches.
	Update(ctx context.Context, key string, fields map[string]any) (bool, error)

	// CheckHealth reports engine reachability.
	CheckHealth(ctx context.Context) bool

	// Name identifies the adapter in logs and health output.
	Name() string
}

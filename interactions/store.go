package interactions

import (
	"context"

	"github.com/hupe1980/recgo/model"
)

// Store is a read-only interaction table.
type Store interface {
	// NumEntities returns the number of trained entities.
	NumEntities() int
	// NumItems returns the size of the trained item universe.
	NumItems() int
	// NumInteractions returns the total number of stored interactions.
	NumInteractions() int
	// NewReader returns a reader for use by a single goroutine.
	NewReader(ctx context.Context) (Reader, error)
}

// Reader reads per-entity interaction lists.
//
// Read returns the interactions of e sorted by item. Entities outside the
// trained range have no interactions. The returned slice may alias dst or
// internal storage; it is valid until the next Read and must not be modified.
type Reader interface {
	Read(e model.EntityID, dst []model.Interaction) ([]model.Interaction, error)
	Close() error
}

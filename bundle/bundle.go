// Package bundle stores trained factorization models in a blobstore.
//
// A bundle is three blobs under a common prefix:
//
//	MANIFEST          schema, indexer keys, scalar parameters (codec-encoded)
//	interactions.seg  trained interactions (see interactions.WriteSegment)
//	factors.bin       biases and latent factors in one compressed block
//
// MANIFEST is written last, so a bundle without it is incomplete.
package bundle

import (
	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/interactions"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/scoring"
)

// Side is static side data indexed by entity and item id.
type Side struct {
	Entity [][]model.Feature `json:"entity,omitempty"`
	Item   [][]model.Feature `json:"item,omitempty"`
}

// EntityFeatures implements model.SideFeatures.
func (s *Side) EntityFeatures(e model.EntityID) []model.Feature {
	if int(e) < len(s.Entity) {
		return s.Entity[e]
	}
	return nil
}

// ItemFeatures implements model.SideFeatures.
func (s *Side) ItemFeatures(i model.ItemID) []model.Feature {
	if int(i) < len(s.Item) {
		return s.Item[i]
	}
	return nil
}

// Bundle is a trained factorization model.
type Bundle struct {
	schema       *model.Schema
	entities     *indexer.Map
	items        *indexer.Map
	interactions interactions.Store
	scorer       *scoring.Factorization
	side         *Side
	closer       func() error
}

// New assembles a bundle. side may be nil.
func New(schema *model.Schema, entities, items *indexer.Map, store interactions.Store, f *scoring.Factorization, side *Side) *Bundle {
	return &Bundle{
		schema:       schema,
		entities:     entities,
		items:        items,
		interactions: store,
		scorer:       f,
		side:         side,
	}
}

// Schema returns the trained column layout.
func (b *Bundle) Schema() *model.Schema { return b.schema }

// Entities returns the entity indexer.
func (b *Bundle) Entities() indexer.Indexer { return b.entities }

// Items returns the item indexer.
func (b *Bundle) Items() indexer.Indexer { return b.items }

// Interactions returns the trained interactions.
func (b *Bundle) Interactions() interactions.Store { return b.interactions }

// Scorer returns the factorization scorer.
func (b *Bundle) Scorer() model.Scorer { return b.scorer }

// Similarity returns the factorization scorer's cosine similarity.
func (b *Bundle) Similarity() model.Similarity { return b.scorer }

// SideFeatures returns the trained side data, or nil.
func (b *Bundle) SideFeatures() model.SideFeatures {
	if b.side == nil {
		return nil
	}
	return b.side
}

// Factorization returns the scorer with its concrete type.
func (b *Bundle) Factorization() *scoring.Factorization { return b.scorer }

// Close releases the blobs held by a loaded bundle.
func (b *Bundle) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

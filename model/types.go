package model

import (
	"context"
	"fmt"
)

// EntityID is a dense, indexer-assigned identifier for a querying entity.
type EntityID uint32

// ItemID is a dense, indexer-assigned identifier for an item.
type ItemID uint32

// Interaction is an (item, weight) pair owned by one entity.
//
// Trained interactions and query-time new observations share this layout;
// per-entity lists are sorted by Item and contain no duplicates.
type Interaction struct {
	Item   ItemID
	Weight float64
}

// Candidate is an item under consideration for one query.
type Candidate struct {
	Item  ItemID
	Score float64
}

// String returns a string representation of the Candidate.
func (c Candidate) String() string {
	return fmt.Sprintf("Cand(%d:%g)", c.Item, c.Score)
}

// Feature is one encoded contextual attribute.
//
// Column is the model-internal column index. Categorical features carry the
// category id in Index and 1 in Value; numeric features carry 0 in Index and
// the raw value in Value.
type Feature struct {
	Column int
	Index  uint32
	Value  float64
}

// ScoreQuery is everything a Scorer may consult for one query entity.
type ScoreQuery struct {
	Entity EntityID
	// Features holds the query-row features (ROWS queries only), ordered by
	// model column index.
	Features []Feature
	// History is the entity's trained interaction list, sorted by item.
	History []Interaction
	// NewHistory is the entity's query-time observation overlay, sorted by item.
	NewHistory []Interaction
	// Side is the side-feature view for this call. May be nil.
	Side SideFeatures
	// TopK is the stage-one target count; scorers may use it as a hint.
	TopK int
}

// Scorer assigns a score to every candidate of one query.
//
// Implementations must write candidates[i].Score for every i and must not
// reorder or resize the slice. They are called concurrently from multiple
// workers with distinct queries.
type Scorer interface {
	Score(ctx context.Context, q *ScoreQuery, candidates []Candidate) error
}

// Similarity reports how similar each of items is to chosen.
// out has the same length as items; larger means more similar.
type Similarity interface {
	Similarity(ctx context.Context, chosen ItemID, items []ItemID, out []float64) error
}

// SideFeatures exposes contextual attributes attached to entities and items.
type SideFeatures interface {
	EntityFeatures(e EntityID) []Feature
	ItemFeatures(i ItemID) []Feature
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(ctx context.Context, q *ScoreQuery, candidates []Candidate) error

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, q *ScoreQuery, candidates []Candidate) error {
	return f(ctx, q, candidates)
}

// SimilarityFunc adapts a plain function to the Similarity interface.
type SimilarityFunc func(ctx context.Context, chosen ItemID, items []ItemID, out []float64) error

// Similarity implements Similarity.
func (f SimilarityFunc) Similarity(ctx context.Context, chosen ItemID, items []ItemID, out []float64) error {
	return f(ctx, chosen, items, out)
}

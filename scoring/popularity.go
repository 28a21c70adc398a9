package scoring

import (
	"context"
	"slices"

	"github.com/hupe1980/recgo/interactions"
	"github.com/hupe1980/recgo/model"
)

// Popularity scores every item by a fixed per-item value, independent of the
// entity.
type Popularity struct {
	scores []float64
}

// NewPopularity returns a scorer over per-item scores indexed by item id.
func NewPopularity(scores []float64) *Popularity {
	return &Popularity{scores: slices.Clone(scores)}
}

// PopularityFromStore scores items by the number of distinct entities that
// interacted with them.
func PopularityFromStore(ctx context.Context, s interactions.Store) (*Popularity, error) {
	st, err := interactions.Counts(ctx, s)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(st.EntitiesPerItem))
	for i, n := range st.EntitiesPerItem {
		scores[i] = float64(n)
	}
	return &Popularity{scores: scores}, nil
}

// Score implements model.Scorer.
func (p *Popularity) Score(_ context.Context, _ *model.ScoreQuery, candidates []model.Candidate) error {
	for i := range candidates {
		it := candidates[i].Item
		if int(it) >= len(p.scores) {
			return model.NewDimensionalityError("item", len(p.scores), int(it)+1)
		}
		candidates[i].Score = p.scores[it]
	}
	return nil
}

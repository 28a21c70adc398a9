package scoring

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/hupe1980/recgo/model"
)

// Neighbor is one entry of an item's similarity list.
type Neighbor struct {
	Item  model.ItemID
	Score float64
}

// ItemSimilarity scores a candidate by the weighted mean similarity to the
// entity's interacted items.
type ItemSimilarity struct {
	neighbors [][]Neighbor
	scratch   sync.Pool
}

type accumulator struct {
	sums    []float64
	touched []model.ItemID
}

// NewItemSimilarity builds the model from per-item neighbor lists indexed by
// item id. Lists are copied and sorted by item; the last duplicate wins.
func NewItemSimilarity(neighbors [][]Neighbor) (*ItemSimilarity, error) {
	n := len(neighbors)
	s := &ItemSimilarity{neighbors: make([][]Neighbor, n)}
	for i, list := range neighbors {
		out := slices.Clone(list)
		slices.SortStableFunc(out, func(a, b Neighbor) int { return cmp.Compare(a.Item, b.Item) })
		w := 0
		for j, nb := range out {
			if int(nb.Item) >= n {
				return nil, model.NewDimensionalityError("neighbor item", n, int(nb.Item)+1)
			}
			if j+1 < len(out) && out[j+1].Item == nb.Item {
				continue
			}
			out[w] = nb
			w++
		}
		s.neighbors[i] = out[:w]
	}
	s.scratch.New = func() any { return &accumulator{sums: make([]float64, n)} }
	return s, nil
}

// NumItems returns the number of items.
func (s *ItemSimilarity) NumItems() int { return len(s.neighbors) }

// Neighbors returns the sorted neighbor list of i. It must not be modified.
func (s *ItemSimilarity) Neighbors(i model.ItemID) []Neighbor {
	if int(i) >= len(s.neighbors) {
		return nil
	}
	return s.neighbors[i]
}

func (s *ItemSimilarity) lookup(a, b model.ItemID) float64 {
	list := s.Neighbors(a)
	j, ok := slices.BinarySearchFunc(list, b, func(nb Neighbor, t model.ItemID) int { return cmp.Compare(nb.Item, t) })
	if !ok {
		return 0
	}
	return list[j].Score
}

// history merges trained and new interactions; new weights win.
func history(trained, added []model.Interaction) []model.Interaction {
	if len(added) == 0 {
		return trained
	}
	if len(trained) == 0 {
		return added
	}
	out := make([]model.Interaction, 0, len(trained)+len(added))
	i, j := 0, 0
	for i < len(trained) || j < len(added) {
		switch {
		case j == len(added) || (i < len(trained) && trained[i].Item < added[j].Item):
			out = append(out, trained[i])
			i++
		case i == len(trained) || added[j].Item < trained[i].Item:
			out = append(out, added[j])
			j++
		default:
			out = append(out, added[j])
			i++
			j++
		}
	}
	return out
}

// Score implements model.Scorer.
func (s *ItemSimilarity) Score(_ context.Context, q *model.ScoreQuery, candidates []model.Candidate) error {
	hist := history(q.History, q.NewHistory)
	for _, c := range candidates {
		if int(c.Item) >= len(s.neighbors) {
			return model.NewDimensionalityError("item", len(s.neighbors), int(c.Item)+1)
		}
	}
	if len(hist) == 0 {
		for i := range candidates {
			candidates[i].Score = 0
		}
		return nil
	}

	acc := s.scratch.Get().(*accumulator)
	defer func() {
		for _, it := range acc.touched {
			acc.sums[it] = 0
		}
		acc.touched = acc.touched[:0]
		s.scratch.Put(acc)
	}()

	for _, h := range hist {
		for _, nb := range s.Neighbors(h.Item) {
			if acc.sums[nb.Item] == 0 {
				acc.touched = append(acc.touched, nb.Item)
			}
			acc.sums[nb.Item] += h.Weight * nb.Score
		}
	}

	norm := 1 / float64(len(hist))
	for i := range candidates {
		candidates[i].Score = acc.sums[candidates[i].Item] * norm
	}
	return nil
}

// Similarity implements model.Similarity from the neighbor lists. Pairs
// without an entry have similarity 0.
func (s *ItemSimilarity) Similarity(_ context.Context, chosen model.ItemID, items []model.ItemID, out []float64) error {
	if len(out) != len(items) {
		return model.NewDimensionalityError("similarity output", len(items), len(out))
	}
	for j, it := range items {
		out[j] = s.lookup(chosen, it)
	}
	return nil
}

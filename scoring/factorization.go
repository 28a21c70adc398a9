package scoring

import (
	"context"

	"github.com/hupe1980/recgo/internal/math32"
	"github.com/hupe1980/recgo/model"
)

// FactorizationParams are the trained parameters of a factorization model.
type FactorizationParams struct {
	Dim        int
	GlobalBias float64
	EntityBias []float64
	ItemBias   []float64
	// EntityFactors and ItemFactors are row-major, Dim values per id.
	EntityFactors []float32
	ItemFactors   []float32
	// Weights holds linear weights per model column: one per category for
	// categorical columns, a single weight for numeric ones. Nil entries add
	// nothing.
	Weights [][]float64
}

// Factorization scores
//
//	global + entityBias[e] + itemBias[i] + <entity(e), item(i)> + linear terms
//
// where the linear terms cover query features and side features. Entities
// beyond the trained range are folded in as the mean factor of their
// interacted items, with zero bias.
type Factorization struct {
	p           FactorizationParams
	numEntities int
	numItems    int
}

// NewFactorization validates p and returns the model.
func NewFactorization(p FactorizationParams) (*Factorization, error) {
	if p.Dim < 0 {
		return nil, model.Configurationf("factor dimension must be non-negative, got %d", p.Dim)
	}
	ne, ni := len(p.EntityBias), len(p.ItemBias)
	if len(p.EntityFactors) != ne*p.Dim {
		return nil, model.NewDimensionalityError("entity factors", ne*p.Dim, len(p.EntityFactors))
	}
	if len(p.ItemFactors) != ni*p.Dim {
		return nil, model.NewDimensionalityError("item factors", ni*p.Dim, len(p.ItemFactors))
	}
	return &Factorization{p: p, numEntities: ne, numItems: ni}, nil
}

// Params returns the trained parameters. The slices must not be modified.
func (f *Factorization) Params() FactorizationParams { return f.p }

// NumItems returns the number of trained items.
func (f *Factorization) NumItems() int { return f.numItems }

func (f *Factorization) itemFactors(i model.ItemID) []float32 {
	d := f.p.Dim
	return f.p.ItemFactors[int(i)*d : (int(i)+1)*d]
}

func (f *Factorization) checkItem(i model.ItemID) error {
	if int(i) >= f.numItems {
		return model.NewDimensionalityError("item bias", int(i)+1, f.numItems)
	}
	return nil
}

// entity returns the factors and bias used for q's entity.
func (f *Factorization) entity(q *model.ScoreQuery) ([]float32, float64, error) {
	d := f.p.Dim
	if e := int(q.Entity); e < f.numEntities {
		return f.p.EntityFactors[e*d : (e+1)*d], f.p.EntityBias[e], nil
	}

	u := make([]float32, d)
	n := 0
	for _, hist := range [][]model.Interaction{q.History, q.NewHistory} {
		for _, in := range hist {
			if err := f.checkItem(in.Item); err != nil {
				return nil, 0, err
			}
			math32.AddScaled(u, 1, f.itemFactors(in.Item))
			n++
		}
	}
	if n > 0 {
		math32.ScaleInPlace(u, 1/float32(n))
	}
	return u, 0, nil
}

func (f *Factorization) linear(feats []model.Feature) float64 {
	var s float64
	for _, ft := range feats {
		if ft.Column >= len(f.p.Weights) {
			continue
		}
		// Categories unseen at training time have no weight.
		if w := f.p.Weights[ft.Column]; int(ft.Index) < len(w) {
			s += w[ft.Index] * ft.Value
		}
	}
	return s
}

// Score implements model.Scorer.
func (f *Factorization) Score(_ context.Context, q *model.ScoreQuery, candidates []model.Candidate) error {
	u, bias, err := f.entity(q)
	if err != nil {
		return err
	}

	base := f.p.GlobalBias + bias + f.linear(q.Features)
	if q.Side != nil {
		base += f.linear(q.Side.EntityFeatures(q.Entity))
	}

	for i := range candidates {
		it := candidates[i].Item
		if err := f.checkItem(it); err != nil {
			return err
		}
		s := base + f.p.ItemBias[it] + float64(math32.Dot(u, f.itemFactors(it)))
		if q.Side != nil {
			s += f.linear(q.Side.ItemFeatures(it))
		}
		candidates[i].Score = s
	}
	return nil
}

// Similarity implements model.Similarity as the cosine of item factors.
// Items outside the trained range have similarity 0.
func (f *Factorization) Similarity(_ context.Context, chosen model.ItemID, items []model.ItemID, out []float64) error {
	if len(out) != len(items) {
		return model.NewDimensionalityError("similarity output", len(items), len(out))
	}
	if int(chosen) >= f.numItems {
		clear(out)
		return nil
	}
	c := f.itemFactors(chosen)
	for j, it := range items {
		if int(it) >= f.numItems {
			out[j] = 0
			continue
		}
		out[j] = float64(math32.Cosine(c, f.itemFactors(it)))
	}
	return nil
}

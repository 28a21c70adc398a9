// Package diversity re-ranks a stage-one candidate pool for variety.
//
// Candidates are drawn one per round with probability proportional to
//
//	round*(K' - rank) + d
//
// where rank is the 0-based stage-one position and d accumulates, over earlier
// rounds, the rank of the candidate's similarity to the item just drawn. The
// normalizing total is maintained incrementally. Draws use a seeded hash, so
// the result only depends on the seed, the pool and the similarity outputs.
package diversity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/recgo/internal/hash"
	"github.com/hupe1980/recgo/model"
)

// ErrInconsistent is returned by a debug-checked Reranker when the running
// normalizer disagrees with a full recomputation.
var ErrInconsistent = errors.New("diversity: inconsistent normalizer")

// Inflate returns the stage-one pool size round(k*(1+factor)), never below k.
func Inflate(k int, factor float64) int {
	if factor <= 0 {
		return k
	}
	f := math.Round(float64(k) * (1 + factor))
	if f >= math.MaxInt {
		return math.MaxInt
	}
	return max(int(f), k)
}

// Reranker draws diverse subsets. It holds scratch buffers reused across
// calls and must not be shared between goroutines.
type Reranker struct {
	sim   model.Similarity
	debug bool

	pool   []int    // surviving stage-one positions
	div    []uint64 // accumulated diversity rank, parallel to pool
	chosen []int
	items  []model.ItemID
	scores []float64
	order  []int
}

// New returns a Reranker. sim may be nil, in which case similarity ranks are
// seeded pseudo-random. With debug set, every round recomputes the normalizer.
func New(sim model.Similarity, debug bool) *Reranker {
	return &Reranker{sim: sim, debug: debug}
}

// Choose keeps k of the ranked candidates in cands and returns them in their
// original order, reusing the backing array of cands. It is a no-op if
// len(cands) <= k.
func (r *Reranker) Choose(ctx context.Context, k int, cands []model.Candidate, seed uint64) ([]model.Candidate, error) {
	n := len(cands)
	if k <= 0 {
		return cands[:0], nil
	}
	if n <= k {
		return cands, nil
	}

	r.pool = r.pool[:0]
	r.div = r.div[:0]
	for i := 0; i < n; i++ {
		r.pool = append(r.pool, i)
		r.div = append(r.div, 0)
	}
	r.chosen = r.chosen[:0]

	total := uint64(n)
	norm := total * (total + 1) / 2
	mult := uint64(1)
	dnorm := uint64(0)

	weight := func(j int) uint64 {
		return mult*(total-uint64(r.pool[j])) + r.div[j]
	}

	for round := 0; round < k && len(r.pool) > 0; round++ {
		z := mult*norm + dnorm
		if r.debug {
			if err := r.check(z, dnorm, weight); err != nil {
				return nil, fmt.Errorf("round %d: %w", round, err)
			}
		}

		draw := hash.Hash64(seed, uint64(round)) % z
		pick := len(r.pool) - 1
		for j := range r.pool {
			w := weight(j)
			if w > draw {
				pick = j
				break
			}
			draw -= w
		}

		last := len(r.pool) - 1
		r.pool[pick], r.pool[last] = r.pool[last], r.pool[pick]
		r.div[pick], r.div[last] = r.div[last], r.div[pick]
		idx, d := r.pool[last], r.div[last]
		r.pool, r.div = r.pool[:last], r.div[:last]
		r.chosen = append(r.chosen, idx)

		norm -= total - uint64(idx)
		dnorm -= d

		m := len(r.pool)
		if m == 0 || round == k-1 {
			break
		}
		if err := r.rankBySimilarity(ctx, cands, cands[idx].Item, seed); err != nil {
			return nil, err
		}
		dnorm += uint64(m) * uint64(m-1) / 2
		mult++
	}

	slices.Sort(r.chosen)
	for i, idx := range r.chosen {
		cands[i] = cands[idx]
	}
	return cands[:len(r.chosen)], nil
}

// rankBySimilarity adds to each surviving candidate its rank by similarity to
// chosen, least similar first.
func (r *Reranker) rankBySimilarity(ctx context.Context, cands []model.Candidate, chosen model.ItemID, seed uint64) error {
	m := len(r.pool)
	r.items = slices.Grow(r.items[:0], m)[:m]
	r.scores = slices.Grow(r.scores[:0], m)[:m]
	r.order = slices.Grow(r.order[:0], m)[:m]
	for j, idx := range r.pool {
		r.items[j] = cands[idx].Item
		r.scores[j] = float64(hash.Hash64(seed, uint64(j)))
		r.order[j] = j
	}

	if r.sim != nil {
		if err := r.sim.Similarity(ctx, chosen, r.items, r.scores); err != nil {
			return err
		}
	}

	slices.SortStableFunc(r.order, func(a, b int) int {
		sa, sb := r.scores[a], r.scores[b]
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	})
	for rank, j := range r.order {
		r.div[j] += uint64(rank)
	}
	return nil
}

func (r *Reranker) check(z, dnorm uint64, weight func(int) uint64) error {
	var zt, dt uint64
	for j := range r.pool {
		zt += weight(j)
		dt += r.div[j]
	}
	if zt != z || dt != dnorm {
		return fmt.Errorf("%w: running Z=%d d=%d, recomputed Z=%d d=%d", ErrInconsistent, z, dnorm, zt, dt)
	}
	return nil
}

package testutil

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/recgo/bundle"
	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/interactions"
	"github.com/hupe1980/recgo/internal/math32"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/scoring"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere).
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		if n := math32.Norm(vec); n > 0 {
			math32.ScaleInPlace(vec, 1/n)
		}
		vectors[i] = vec
	}

	return vectors
}

// ClusteredVectors generates vectors around clusters random centroids.
// Vector i belongs to cluster i%clusters.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)

	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}

	return vectors
}

// Zipf returns a Zipfian-distributed value in [0, n).
// s=1.0 gives standard Zipf, larger values a heavier head.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ModelConfig sizes a synthetic model.
type ModelConfig struct {
	Entities int
	Items    int
	Dim      int
	// Clusters groups item factors; 0 means one cluster per item.
	Clusters int
	// PerEntity is the number of interaction draws per entity.
	PerEntity int
	// Skew is the Zipf exponent of item popularity. 0 means 1.1.
	Skew float64
}

// Keys returns prefix0..prefix(n-1).
func Keys(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

// Model generates a factorization bundle with entity keys "u0".."uN",
// item keys "i0".."iM", a numeric "rating" target and Zipf-skewed
// interactions.
func (r *RNG) Model(cfg ModelConfig) *bundle.Bundle {
	if cfg.Clusters <= 0 {
		cfg.Clusters = cfg.Items
	}
	if cfg.Skew == 0 {
		cfg.Skew = 1.1
	}

	schema, err := model.NewSchema("user", "item",
		model.Column{Name: "rating", Kind: model.Numeric, Role: model.RoleTarget})
	if err != nil {
		panic(err)
	}

	p := scoring.FactorizationParams{
		Dim:        cfg.Dim,
		GlobalBias: r.Float64(),
		EntityBias: make([]float64, cfg.Entities),
		ItemBias:   make([]float64, cfg.Items),
	}
	for i := range p.EntityBias {
		p.EntityBias[i] = r.Float64() - 0.5
	}
	for i := range p.ItemBias {
		p.ItemBias[i] = r.Float64() - 0.5
	}
	for _, v := range r.UnitVectors(cfg.Entities, cfg.Dim) {
		p.EntityFactors = append(p.EntityFactors, v...)
	}
	for _, v := range r.ClusteredVectors(cfg.Items, cfg.Dim, cfg.Clusters, 0.05) {
		p.ItemFactors = append(p.ItemFactors, v...)
	}
	f, err := scoring.NewFactorization(p)
	if err != nil {
		panic(err)
	}

	lists := make([][]model.Interaction, cfg.Entities)
	for e := range lists {
		for range cfg.PerEntity {
			item := model.ItemID(r.Zipf(cfg.Items, cfg.Skew))
			lists[e] = append(lists[e], model.Interaction{Item: item, Weight: float64(1 + r.Intn(5))})
		}
		slices.SortFunc(lists[e], func(a, b model.Interaction) int { return cmp.Compare(a.Item, b.Item) })
		lists[e] = slices.CompactFunc(lists[e], func(a, b model.Interaction) bool { return a.Item == b.Item })
	}
	store, err := interactions.NewMemory(cfg.Items, lists)
	if err != nil {
		panic(err)
	}

	return bundle.New(schema,
		indexer.MustMap(Keys("u", cfg.Entities)...),
		indexer.MustMap(Keys("i", cfg.Items)...),
		store, f, nil)
}

// Scored is one ground-truth result.
type Scored struct {
	Item  model.ItemID
	Score float64
}

// BruteForceTopK ranks all non-excluded items by score descending, ties by
// item ascending, and returns the first k.
func BruteForceTopK(scores []float64, excluded map[model.ItemID]bool, k int) []Scored {
	out := make([]Scored, 0, len(scores))
	for i, s := range scores {
		if excluded[model.ItemID(i)] {
			continue
		}
		out = append(out, Scored{Item: model.ItemID(i), Score: s})
	}
	slices.SortFunc(out, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Item, b.Item)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Overlap returns the fraction of want's items present in got.
func Overlap(want []Scored, got []model.ItemID) float64 {
	if len(want) == 0 {
		if len(got) == 0 {
			return 1.0
		}
		return 0.0
	}

	set := make(map[model.ItemID]struct{}, len(want))
	for _, w := range want {
		set[w.Item] = struct{}{}
	}

	hits := 0
	for _, g := range got {
		if _, ok := set[g]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

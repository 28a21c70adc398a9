package testutil

import (
	"context"
	"testing"

	"github.com/hupe1980/recgo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UnitVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	for _, vec := range v {
		var sum float32
		for _, val := range vec {
			sum += val * val
		}
		assert.InDelta(t, float32(1.0), sum, 1e-5)
	}
}

func TestClusteredVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.ClusteredVectors(20, 16, 4, 0.01)
	require.Len(t, v, 20)
	for j := range v[0] {
		assert.InDelta(t, v[0][j], v[4][j], 0.1, "same cluster must stay close")
	}
}

func TestZipf(t *testing.T) {
	rng := NewRNG(1)
	counts := make([]int, 10)
	for range 2000 {
		counts[rng.Zipf(10, 1.5)]++
	}
	assert.Greater(t, counts[0], counts[9])
	assert.Equal(t, 0, rng.Zipf(1, 1.5))
}

func TestModel(t *testing.T) {
	b := NewRNG(7).Model(ModelConfig{Entities: 5, Items: 30, Dim: 4, Clusters: 3, PerEntity: 6})

	assert.Equal(t, 5, b.Entities().Len())
	assert.Equal(t, 30, b.Items().Len())
	assert.Equal(t, 4, b.Factorization().Params().Dim)

	r, err := b.Interactions().NewReader(context.Background())
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	for e := range 5 {
		list, err := r.Read(model.EntityID(e), nil)
		require.NoError(t, err)
		assert.NotEmpty(t, list)
		for i := 1; i < len(list); i++ {
			assert.Less(t, list[i-1].Item, list[i].Item)
		}
	}

	again := NewRNG(7).Model(ModelConfig{Entities: 5, Items: 30, Dim: 4, Clusters: 3, PerEntity: 6})
	assert.Equal(t, b.Factorization().Params(), again.Factorization().Params())
}

func TestBruteForceTopK(t *testing.T) {
	got := BruteForceTopK([]float64{1, 3, 3, 2}, map[model.ItemID]bool{3: true}, 3)
	assert.Equal(t, []Scored{{1, 3}, {2, 3}, {0, 1}}, got)

	assert.Equal(t, 1.0, Overlap(got, []model.ItemID{2, 1, 0}))
	assert.InDelta(t, 1.0/3, Overlap(got, []model.ItemID{1}), 1e-12)
	assert.Equal(t, 1.0, Overlap(nil, nil))
	assert.Equal(t, 0.0, Overlap(nil, []model.ItemID{1}))
}

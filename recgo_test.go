package recgo_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/interactions"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/table"
	"github.com/hupe1980/recgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testModel scores item i for entity e as ((i*(e+1)*7) mod 97), distinct
// per entity for fewer than 97 items. A "device" feature of "desktop" adds
// 1000 to even items.
type testModel struct {
	schema   *model.Schema
	entities *indexer.Map
	items    *indexer.Map
	store    *interactions.Memory
	scorer   model.Scorer
}

func newTestModel(t *testing.T, numEntities, numItems int, lists [][]model.Interaction) *testModel {
	t.Helper()

	schema, err := model.NewSchema("user", "item",
		model.Column{Name: "rating", Kind: model.Numeric, Role: model.RoleTarget},
		model.Column{Name: "device", Kind: model.Categorical, Role: model.RoleFeature, Categories: indexer.MustMap("mobile", "desktop")},
	)
	require.NoError(t, err)

	if lists == nil {
		lists = make([][]model.Interaction, numEntities)
	}
	store, err := interactions.NewMemory(numItems, lists)
	require.NoError(t, err)

	return &testModel{
		schema:   schema,
		entities: indexer.MustMap(testutil.Keys("u", numEntities)...),
		items:    indexer.MustMap(testutil.Keys("i", numItems)...),
		store:    store,
		scorer:   model.ScorerFunc(testScore),
	}
}

func testScore(_ context.Context, q *model.ScoreQuery, cands []model.Candidate) error {
	desktop := false
	for _, f := range q.Features {
		if f.Column == 3 && f.Index == 1 {
			desktop = true
		}
	}
	for j := range cands {
		i := int(cands[j].Item)
		cands[j].Score = float64((i * (int(q.Entity) + 1) * 7) % 97)
		if desktop && i%2 == 0 {
			cands[j].Score += 1000
		}
	}
	return nil
}

func (m *testModel) Schema() *model.Schema            { return m.schema }
func (m *testModel) Entities() indexer.Indexer        { return m.entities }
func (m *testModel) Items() indexer.Indexer           { return m.items }
func (m *testModel) Interactions() interactions.Store { return m.store }
func (m *testModel) Scorer() model.Scorer             { return m.scorer }
func (m *testModel) Similarity() model.Similarity     { return nil }
func (m *testModel) SideFeatures() model.SideFeatures { return nil }

func byEntity(t *table.Table) map[string][]table.Row {
	out := make(map[string][]table.Row)
	for _, r := range t.Rows {
		out[r.Entity] = append(out[r.Entity], r)
	}
	return out
}

func checkRanks(t *testing.T, rows []table.Row) {
	t.Helper()
	for i, r := range rows {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, rows[i-1].Score, r.Score)
		}
	}
}

func TestNew(t *testing.T) {
	_, err := recgo.New(nil)
	assert.ErrorIs(t, err, recgo.ErrConfiguration)

	m := newTestModel(t, 2, 5, nil)
	m.scorer = nil
	_, err = recgo.New(m)
	assert.ErrorIs(t, err, recgo.ErrConfiguration)

	m = newTestModel(t, 2, 5, nil)
	m.items = indexer.MustMap("i0")
	_, err = recgo.New(m)
	assert.ErrorIs(t, err, recgo.ErrConfiguration)

	m = newTestModel(t, 2, 5, nil)
	eng, err := recgo.New(m)
	require.NoError(t, err)
	assert.Same(t, m, eng.Model())
}

func TestRecommendAll(t *testing.T) {
	eng, err := recgo.New(newTestModel(t, 3, 10, nil))
	require.NoError(t, err)

	tbl, err := eng.Recommend(context.Background(), recgo.Request{Query: recgo.QueryAll{}, TopK: 5})
	require.NoError(t, err)

	assert.Equal(t, "user", tbl.EntityColumn)
	assert.Equal(t, "item", tbl.ItemColumn)
	require.Equal(t, 15, tbl.Len())

	groups := byEntity(tbl)
	require.Len(t, groups, 3)
	for _, e := range []string{"u0", "u1", "u2"} {
		rows := groups[e]
		require.Len(t, rows, 5)
		checkRanks(t, rows)
		for i := 1; i < len(rows); i++ {
			assert.Greater(t, rows[i-1].Score, rows[i].Score, "scores are distinct")
		}
	}

	// u0 scores item i as 7i: top five are i9..i5.
	for j, r := range groups["u0"] {
		assert.Equal(t, fmt.Sprintf("i%d", 9-j), r.Item)
		assert.Equal(t, float64(7*(9-j)), r.Score)
	}
}

func TestRecommendFewerCandidates(t *testing.T) {
	eng, err := recgo.New(newTestModel(t, 2, 3, nil))
	require.NoError(t, err)

	tbl, err := eng.Recommend(context.Background(), recgo.Request{TopK: 10})
	require.NoError(t, err)
	for _, rows := range byEntity(tbl) {
		assert.Len(t, rows, 3)
		checkRanks(t, rows)
	}
}

func TestRecommendHugeTopK(t *testing.T) {
	eng, err := recgo.New(newTestModel(t, 3, 10, nil), recgo.WithMemoryLimit(1<<20))
	require.NoError(t, err)

	for _, k := range []int{1 << 40, math.MaxInt} {
		tbl, err := eng.Recommend(context.Background(), recgo.Request{TopK: k})
		require.NoError(t, err)
		assert.Equal(t, 30, tbl.Len())
		for _, rows := range byEntity(tbl) {
			assert.Len(t, rows, 10)
			checkRanks(t, rows)
		}
	}

	tbl, err := eng.Recommend(context.Background(), recgo.Request{TopK: 1 << 40, DiversityFactor: 1e300, RandomSeed: 3})
	require.NoError(t, err)
	assert.Equal(t, 30, tbl.Len())
}

func TestRecommendList(t *testing.T) {
	eng, err := recgo.New(newTestModel(t, 4, 10, nil))
	require.NoError(t, err)

	tbl, err := eng.Recommend(context.Background(), recgo.Request{
		Query: recgo.QueryList{Entities: []string{"u3", "u1", "u3"}},
		TopK:  2,
	})
	require.NoError(t, err)
	require.Equal(t, 6, tbl.Len())

	var order []string
	for _, g := range tbl.Groups() {
		order = append(order, g.Entity)
	}
	assert.Equal(t, []string{"u3", "u1", "u3"}, order)

	t.Run("FromFrame", func(t *testing.T) {
		tbl, err := eng.Recommend(context.Background(), recgo.Request{
			Query: recgo.QueryFromFrame(frame.Must(frame.Strings("user", "u2"))),
			TopK:  3,
		})
		require.NoError(t, err)
		require.Equal(t, 3, tbl.Len())
		assert.Equal(t, "u2", tbl.Rows[0].Entity)
	})
}

func TestRecommendRows(t *testing.T) {
	eng, err := recgo.New(newTestModel(t, 2, 10, nil))
	require.NoError(t, err)

	q := frame.Must(
		frame.Strings("device", "mobile", "desktop"),
		frame.Strings("user", "u0", "u0"),
	)
	tbl, err := eng.Recommend(context.Background(), recgo.Request{Query: recgo.QueryFromFrame(q), TopK: 3})
	require.NoError(t, err)
	require.Equal(t, 6, tbl.Len())

	groups := tbl.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"i9", "i8", "i7"}, items(groups[0].Rows), "mobile")
	assert.Equal(t, []string{"i8", "i6", "i4"}, items(groups[1].Rows), "desktop")
}

func items(rows []table.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Item
	}
	return out
}

func TestExclusion(t *testing.T) {
	lists := [][]model.Interaction{
		{{Item: 8, Weight: 1}, {Item: 9, Weight: 1}},
		nil,
	}
	eng, err := recgo.New(newTestModel(t, 2, 10, lists))
	require.NoError(t, err)

	req := recgo.Request{
		TopK:                        10,
		ExcludeTrainingInteractions: true,
		Exclusion: frame.Must(
			frame.Strings("user", "u0", "u1", "u1"),
			frame.Strings("item", "i7", "i0", "nope"),
		),
		NewObservations: frame.Must(
			frame.Strings("user", "u1"),
			frame.Strings("item", "i5"),
			frame.Floats("rating", 4),
		),
	}
	tbl, err := eng.Recommend(context.Background(), req)
	require.NoError(t, err)

	groups := byEntity(tbl)
	assert.ElementsMatch(t, []string{"i0", "i1", "i2", "i3", "i4", "i5", "i6"}, items(groups["u0"]))
	assert.ElementsMatch(t, []string{"i1", "i2", "i3", "i4", "i6", "i7", "i8", "i9"}, items(groups["u1"]))
	checkRanks(t, groups["u0"])

	t.Run("TrainingKeptWhenNotExcluded", func(t *testing.T) {
		req.ExcludeTrainingInteractions = false
		tbl, err := eng.Recommend(context.Background(), req)
		require.NoError(t, err)
		assert.Contains(t, items(byEntity(tbl)["u0"]), "i9")
	})
}

func TestRestriction(t *testing.T) {
	eng, err := recgo.New(newTestModel(t, 3, 10, nil))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Global", func(t *testing.T) {
		tbl, err := eng.Recommend(ctx, recgo.Request{
			TopK:        5,
			Restriction: frame.Must(frame.Strings("item", "i1", "i3", "i3", "unknown")),
		})
		require.NoError(t, err)
		for _, rows := range byEntity(tbl) {
			assert.ElementsMatch(t, []string{"i1", "i3"}, items(rows))
		}
	})

	t.Run("PerEntity", func(t *testing.T) {
		tbl, err := eng.Recommend(ctx, recgo.Request{
			TopK: 5,
			Restriction: frame.Must(
				frame.Strings("user", "u0", "u0", "u2"),
				frame.Strings("item", "i4", "i2", "i6"),
			),
			Exclusion: frame.Must(
				frame.Strings("user", "u0"),
				frame.Strings("item", "i2"),
			),
		})
		require.NoError(t, err)
		groups := byEntity(tbl)
		assert.Equal(t, []string{"i4"}, items(groups["u0"]))
		assert.Equal(t, []string{"i6"}, items(groups["u2"]))
		assert.Empty(t, groups["u1"], "entity without restriction gets no rows")
	})
}

func TestColdStart(t *testing.T) {
	eng, err := recgo.New(newTestModel(t, 2, 10, nil))
	require.NoError(t, err)

	tbl, err := eng.Recommend(context.Background(), recgo.Request{
		TopK: 2,
		NewObservations: frame.Must(
			frame.Strings("user", "fresh"),
			frame.Strings("item", "i9"),
			frame.Floats("rating", 5),
		),
	})
	require.NoError(t, err)

	groups := byEntity(tbl)
	require.Len(t, groups, 3)
	require.Len(t, groups["fresh"], 2)
	assert.NotContains(t, items(groups["fresh"]), "i9")
	assert.Equal(t, "fresh", tbl.Rows[len(tbl.Rows)-1].Entity)
}

func TestDiversity(t *testing.T) {
	rng := testutil.NewRNG(11)
	b := rng.Model(testutil.ModelConfig{Entities: 40, Items: 120, Dim: 6, Clusters: 6, PerEntity: 8})
	ctx := context.Background()

	run := func(workers int, df float64, seed uint64) *table.Table {
		eng, err := recgo.New(b, recgo.WithWorkers(workers), recgo.WithDebugChecks(true))
		require.NoError(t, err)
		tbl, err := eng.Recommend(ctx, recgo.Request{
			TopK:                        10,
			ExcludeTrainingInteractions: true,
			DiversityFactor:             df,
			RandomSeed:                  seed,
		})
		require.NoError(t, err)
		return tbl
	}

	t.Run("DeterministicAcrossWorkers", func(t *testing.T) {
		one := run(1, 1.5, 42)
		many := run(7, 1.5, 42)
		assert.Equal(t, one, many)
		assert.Equal(t, 400, one.Len())
		for _, rows := range byEntity(one) {
			checkRanks(t, rows)
		}
	})

	t.Run("ZeroFactorIsPlainTopK", func(t *testing.T) {
		tbl := run(3, 0, 42)
		r, err := b.Interactions().NewReader(ctx)
		require.NoError(t, err)
		defer func() { _ = r.Close() }()

		for e := range 40 {
			hist, err := r.Read(model.EntityID(e), nil)
			require.NoError(t, err)
			excluded := make(map[model.ItemID]bool, len(hist))
			cands := make([]model.Candidate, 120)
			for i := range cands {
				cands[i].Item = model.ItemID(i)
			}
			for _, h := range hist {
				excluded[h.Item] = true
			}
			require.NoError(t, b.Scorer().Score(ctx, &model.ScoreQuery{Entity: model.EntityID(e), History: hist}, cands))
			scores := make([]float64, len(cands))
			for i, c := range cands {
				scores[i] = c.Score
			}
			want := testutil.BruteForceTopK(scores, excluded, 10)

			rows := byEntity(tbl)[fmt.Sprintf("u%d", e)]
			require.Len(t, rows, len(want))
			for j, w := range want {
				assert.Equal(t, fmt.Sprintf("i%d", w.Item), rows[j].Item)
			}
		}
	})

	t.Run("SeedChangesSelection", func(t *testing.T) {
		assert.NotEqual(t, run(2, 3, 1), run(2, 3, 2))
	})
}

func TestErrors(t *testing.T) {
	eng, err := recgo.New(newTestModel(t, 2, 5, nil))
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name string
		req  recgo.Request
		want error
	}{
		{"TopK", recgo.Request{TopK: 0}, recgo.ErrInvalidTopK},
		{"Diversity", recgo.Request{TopK: 1, DiversityFactor: -1}, recgo.ErrInvalidDiversity},
		{"ListItemColumn", recgo.Request{TopK: 1, Query: recgo.QueryFromFrame(frame.Must(frame.Strings("item", "i1")))}, recgo.ErrConfiguration},
		{"RowsItemColumn", recgo.Request{TopK: 1, Query: recgo.QueryRows{Frame: frame.Must(frame.Strings("user", "u0"), frame.Strings("item", "i0"))}}, recgo.ErrConfiguration},
		{"RowsUnknownColumn", recgo.Request{TopK: 1, Query: recgo.QueryRows{Frame: frame.Must(frame.Strings("user", "u0"), frame.Floats("age", 3))}}, recgo.ErrSchema},
		{"RowsTarget", recgo.Request{TopK: 1, Query: recgo.QueryRows{Frame: frame.Must(frame.Strings("user", "u0"), frame.Floats("rating", 3))}}, recgo.ErrSchema},
		{"Restriction", recgo.Request{TopK: 1, Restriction: frame.Must(frame.Strings("user", "u0"))}, recgo.ErrConfiguration},
		{"Exclusion", recgo.Request{TopK: 1, Exclusion: frame.Must(frame.Strings("item", "i0"))}, recgo.ErrConfiguration},
		{"ObservationTarget", recgo.Request{TopK: 1, NewObservations: frame.Must(frame.Strings("user", "u0"), frame.Strings("item", "i0"), frame.Strings("rating", "x"))}, recgo.ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := eng.Recommend(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, tbl)
		})
	}

	t.Run("ScorerError", func(t *testing.T) {
		m := newTestModel(t, 2, 5, nil)
		m.scorer = model.ScorerFunc(func(context.Context, *model.ScoreQuery, []model.Candidate) error {
			return model.NewDimensionalityError("entity factors", 4, 3)
		})
		eng, err := recgo.New(m)
		require.NoError(t, err)

		_, err = eng.Recommend(ctx, recgo.Request{TopK: 1})
		var de *recgo.DimensionalityError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, 4, de.Expected)
	})

	t.Run("MemoryLimit", func(t *testing.T) {
		eng, err := recgo.New(newTestModel(t, 2, 5, nil), recgo.WithMemoryLimit(10))
		require.NoError(t, err)
		_, err = eng.Recommend(ctx, recgo.Request{TopK: 3})
		assert.ErrorIs(t, err, recgo.ErrMemoryLimitExceeded)
	})
}

func TestCancellation(t *testing.T) {
	var calls atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := newTestModel(t, 50, 5, nil)
	m.scorer = model.ScorerFunc(func(ctx context.Context, q *model.ScoreQuery, c []model.Candidate) error {
		if calls.Add(1) == 5 {
			cancel()
		}
		return testScore(ctx, q, c)
	})
	eng, err := recgo.New(m, recgo.WithWorkers(1))
	require.NoError(t, err)

	tbl, err := eng.Recommend(ctx, recgo.Request{TopK: 2})
	assert.Nil(t, tbl)
	require.ErrorIs(t, err, recgo.ErrCanceled)
	assert.True(t, errors.Is(err, context.Canceled))

	var ce *recgo.CancellationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint64(5), ce.Completed)
	assert.Equal(t, 50, ce.Total)
}

func TestObservability(t *testing.T) {
	metrics := &recgo.BasicMetricsCollector{}
	var progress atomic.Uint64

	eng, err := recgo.New(newTestModel(t, 6, 10, nil),
		recgo.WithMetricsCollector(metrics),
		recgo.WithProgressCounter(&progress),
		recgo.WithProgressEvery(2),
		recgo.WithWorkers(2),
	)
	require.NoError(t, err)

	_, err = eng.Recommend(context.Background(), recgo.Request{TopK: 4})
	require.NoError(t, err)
	_, err = eng.Recommend(context.Background(), recgo.Request{TopK: 0})
	require.Error(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.RecommendCount)
	assert.Equal(t, int64(1), stats.RecommendErrors)
	assert.Equal(t, int64(24), stats.RowCount)
	assert.Equal(t, int64(6), stats.QueryCount)
	assert.Equal(t, int64(60), stats.CandidateCount)
	assert.Equal(t, uint64(6), progress.Load())
}

func TestPrecisionRecall(t *testing.T) {
	eng, err := recgo.New(newTestModel(t, 2, 10, nil))
	require.NoError(t, err)

	recs := &table.Table{EntityColumn: "user", ItemColumn: "item", Rows: []table.Row{
		{Entity: "A", Item: "20", Rank: 1},
		{Entity: "A", Item: "99", Rank: 2},
		{Entity: "A", Item: "10", Rank: 3},
	}}
	heldOut := frame.Must(
		frame.Strings("user", "A", "A", "A"),
		frame.Strings("item", "10", "20", "30"),
	)

	res, err := eng.PrecisionRecall(context.Background(), heldOut, recs, []int{1, 3})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, 1.0, res[0].Precision)
	assert.InDelta(t, 1.0/3, res[0].Recall, 1e-12)
	assert.InDelta(t, 2.0/3, res[1].Precision, 1e-12)
	assert.InDelta(t, 2.0/3, res[1].Recall, 1e-12)
}

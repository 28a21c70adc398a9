// Package recgo is a batch recommendation query engine for trained
// collaborative-filtering models.
//
// Given a Model, an Engine produces a ranked top-K item list for each queried
// entity ("user"), honoring exclusion lists, item restrictions, query-time
// observations and side data, with optional diversity re-ranking. Queries are
// spread over workers that each own a private output segment.
//
// # Quick Start
//
//	ctx := context.Background()
//	m, _ := bundle.Load(ctx, blobstore.NewLocalStore("./models"), "movies/")
//	eng, _ := recgo.New(m, recgo.WithLogLevel(slog.LevelInfo))
//
//	recs, _ := eng.Recommend(ctx, recgo.Request{
//	    Query: recgo.QueryList{Entities: []string{"alice", "bob"}},
//	    TopK:  10,
//	    ExcludeTrainingInteractions: true,
//	})
//	_ = recs.WriteCSV(os.Stdout)
//
// # Query Forms
//
//	recgo.QueryAll{}                          // every known entity
//	recgo.QueryList{Entities: keys}           // listed entity keys
//	recgo.QueryRows{Frame: rows}              // entity + context features per row
//	recgo.QueryFromFrame(f)                   // picked by column count
//
// # Filtering
//
// Exclusions remove (entity, item) pairs. A restriction narrows eligible
// items globally (one item column) or per entity (entity and item columns);
// an entity missing from a per-entity restriction gets no rows. Items seen in
// new observations are always excluded, trained interactions only with
// ExcludeTrainingInteractions.
//
// # Diversity
//
// With DiversityFactor f > 0 the engine selects round(K*(1+f)) candidates by
// score and draws K of them, favoring high scores and low similarity to
// items already drawn. Draws are seeded from RandomSeed and the query, so
// output does not depend on the worker count.
//
// # Errors
//
// Malformed call shapes fail with ErrConfiguration, unknown or misused
// columns with ErrSchema, both before any worker starts. Scorer errors
// propagate unmodified; cancellation yields a *CancellationError.
package recgo

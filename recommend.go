package recgo

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/internal/candidate"
	"github.com/hupe1980/recgo/internal/diversity"
	"github.com/hupe1980/recgo/internal/hash"
	"github.com/hupe1980/recgo/internal/lookup"
	"github.com/hupe1980/recgo/internal/query"
	"github.com/hupe1980/recgo/internal/topk"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/table"
	"golang.org/x/sync/errgroup"
)

// rowBytes is the estimated in-memory size of one output row, used for the
// memory limit.
const rowBytes = 96

// Recommend runs a batch call and returns the ranked table.
//
// Every configuration and schema problem is reported before any worker
// starts. Any error aborts the whole call; no partial table is returned.
func (e *Engine) Recommend(ctx context.Context, req Request) (*table.Table, error) {
	start := time.Now()
	log := e.opts.logger.WithTopK(req.TopK)

	plan, tbl, err := e.recommend(ctx, &req)
	queries, rows := 0, tbl.Len()
	if plan != nil {
		queries = plan.Len()
		log = log.WithMode(plan.Mode().String())
	}
	e.opts.metricsCollector.RecordRecommend(queries, rows, time.Since(start), err)
	log.LogRecommend(ctx, queries, rows, err)
	if err != nil {
		return nil, err
	}
	return tbl, nil
}

func (e *Engine) recommend(ctx context.Context, req *Request) (query.Plan, *table.Table, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	schema := e.model.Schema()
	entities := indexer.NewOverlay(e.model.Entities())
	resolver := query.NewResolver(schema, entities)
	tables := req.tables()

	if err := resolver.Validate(req.Query); err != nil {
		return nil, nil, err
	}
	if err := lookup.Validate(schema, tables); err != nil {
		return nil, nil, err
	}

	if err := e.rc.AcquireCall(ctx); err != nil {
		return nil, nil, model.NewCancellationError(0, 0, err)
	}
	defer e.rc.ReleaseCall()

	cfg := lookup.Config{
		Schema:   schema,
		Entities: entities,
		Items:    e.model.Items(),
		Base:     e.model.SideFeatures(),
		Workers:  e.opts.workers,
	}
	lookup.AssignEntities(cfg, tables)

	plan, err := resolver.Resolve(req.Query)
	if err != nil {
		return nil, nil, err
	}

	// No entity yields more rows than there are items.
	numItems := e.model.Items().Len()
	k := min(req.TopK, numItems)

	estimate := int64(plan.Len()) * int64(k) * rowBytes
	if err := e.rc.AcquireMemory(estimate); err != nil {
		return plan, nil, fmt.Errorf("%w: %d queries x top-k %d", err, plan.Len(), k)
	}
	defer e.rc.ReleaseMemory(estimate)

	idx, err := lookup.Build(ctx, cfg, tables)
	if err != nil {
		return plan, nil, translateError(err, 0, plan.Len())
	}
	e.opts.logger.LogLookup(ctx, idx.Stats.Exclusions, idx.Stats.Restrictions, idx.Stats.Observations, idx.Stats.Dropped)

	r := &run{
		engine:   e,
		req:      req,
		plan:     plan,
		idx:      idx,
		entities: entities,
		items:    e.model.Items(),
		numItems: numItems,
		k:        k,
		kPrime:   min(diversity.Inflate(k, req.DiversityFactor), numItems),
		start:    time.Now(),
	}
	tbl, err := r.execute(ctx)
	return plan, tbl, err
}

// run is the state shared read-only by the workers of one call, apart from
// the completion counter.
type run struct {
	engine   *Engine
	req      *Request
	plan     query.Plan
	idx      *lookup.Index
	entities *indexer.Overlay
	items    indexer.Indexer
	numItems int
	k        int
	kPrime   int
	start    time.Time

	completed atomic.Uint64
}

func (r *run) workers() int {
	n := r.engine.opts.workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	// Small batches run on one worker so that scorers may parallelize
	// internally.
	if r.plan.Len() < n {
		return 1
	}
	return n
}

func (r *run) execute(ctx context.Context) (*table.Table, error) {
	ranges := query.Partition(r.plan.Len(), r.workers())
	segments := make([]*table.SegmentWriter, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	for w, rg := range ranges {
		segments[w] = table.NewSegmentWriter(rg.Len() * r.k)
		g.Go(func() error {
			return r.work(gctx, rg, segments[w])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, translateError(err, r.completed.Load(), r.plan.Len())
	}

	schema := r.engine.model.Schema()
	return table.Concat(schema.EntityColumn(), schema.ItemColumn(), segments...), nil
}

// work processes one contiguous range of queries into seg.
func (r *run) work(ctx context.Context, rg query.Range, seg *table.SegmentWriter) error {
	reader, err := r.engine.model.Interactions().NewReader(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	var (
		scorer   = r.engine.model.Scorer()
		reranker = diversity.New(r.engine.model.Similarity(), r.engine.opts.debugChecks)
		metrics  = r.engine.opts.metricsCollector
		cands    []model.Candidate
		history  []model.Interaction
		ranked   = make([]table.Ranked, 0, r.k)
		sq       model.ScoreQuery
	)

	for i := rg.Lo; i < rg.Hi; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		began := time.Now()
		ent := r.plan.Entity(i)

		history, err = reader.Read(ent, history[:0])
		if err != nil {
			return err
		}

		src := candidate.Sources{
			Excluded: r.idx.Excluded[ent],
			Observed: r.idx.Observed[ent],
		}
		if r.req.ExcludeTrainingInteractions {
			src.Trained = history
		}
		if items, restricted := r.idx.Restriction.Items(ent); restricted {
			cands = candidate.CollectList(cands[:0], items, &src)
		} else {
			cands = candidate.CollectRange(cands[:0], r.numItems, &src)
		}
		scored := len(cands)

		ranked = ranked[:0]
		if len(cands) > 0 {
			sq = model.ScoreQuery{
				Entity:     ent,
				Features:   r.plan.Features(i),
				History:    history,
				NewHistory: src.Observed,
				Side:       r.idx.Side,
				TopK:       r.kPrime,
			}
			if err := scorer.Score(ctx, &sq, cands); err != nil {
				return err
			}

			top := topk.Select(cands, r.kPrime)
			if r.kPrime != r.k && len(top) > r.k {
				seed := hash.Hash64(r.req.RandomSeed, r.plan.Key(i))
				if top, err = reranker.Choose(ctx, r.k, top, seed); err != nil {
					return err
				}
			}
			top = top[:min(len(top), r.k)]

			for _, c := range top {
				key, _ := r.items.Key(uint32(c.Item))
				ranked = append(ranked, table.Ranked{Item: key, Score: c.Score})
			}
		}

		key, _ := r.entities.Key(uint32(ent))
		seg.Append(key, ranked)

		metrics.RecordQuery(scored, time.Since(began))
		r.engine.opts.progress.Add(1)
		done := r.completed.Add(1)
		if every := r.engine.opts.progressEvery; every > 0 && done%every == 0 {
			elapsed := time.Since(r.start).Seconds()
			r.engine.opts.logger.LogProgress(ctx, done, r.plan.Len(), float64(done)/max(elapsed, 1e-9))
		}
	}
	return nil
}

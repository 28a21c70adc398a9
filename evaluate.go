package recgo

import (
	"context"
	"time"

	"github.com/hupe1980/recgo/evaluation"
	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/table"
)

// PrecisionRecall evaluates recs against held-out interactions using the
// model's entity and item column names. See evaluation.PrecisionRecall.
func (e *Engine) PrecisionRecall(ctx context.Context, heldOut *frame.Frame, recs *table.Table, cutoffs []int) ([]evaluation.Result, error) {
	start := time.Now()
	schema := e.model.Schema()

	res, err := evaluation.PrecisionRecall(ctx, heldOut, recs, evaluation.Options{
		EntityColumn: schema.EntityColumn(),
		ItemColumn:   schema.ItemColumn(),
		Cutoffs:      cutoffs,
		Workers:      e.opts.workers,
	})

	entities := 0
	if len(cutoffs) > 0 {
		entities = len(res) / len(cutoffs)
	}
	e.opts.metricsCollector.RecordEvaluate(entities, time.Since(start), err)
	e.opts.logger.LogEvaluate(ctx, entities, err)
	return res, err
}

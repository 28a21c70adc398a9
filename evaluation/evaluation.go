// Package evaluation scores recommendation tables against held-out
// interactions.
package evaluation

import (
	"context"
	"runtime"
	"slices"

	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/table"
	"golang.org/x/sync/errgroup"
)

// Result is the precision and recall of one entity at one cutoff. Count is the
// number of held-out rows of the entity.
type Result struct {
	Entity    string
	Cutoff    int
	Precision float64
	Recall    float64
	Count     int
}

// Options configure PrecisionRecall.
type Options struct {
	EntityColumn string
	ItemColumn   string
	Cutoffs      []int
	// Workers bounds parallelism. Zero means GOMAXPROCS.
	Workers int
}

// PrecisionRecall computes, for every entity of heldOut (in order of first
// appearance) followed by every entity found only in recs (in table order),
// and every cutoff c,
//
//	precision = |held-out ∩ recommended[:c]| / c
//	recall    = |held-out ∩ recommended[:c]| / |held-out|
//
// Recommendations are taken in table order. Entities without recommendations
// score zero, and so does the recall of entities without held-out items.
func PrecisionRecall(ctx context.Context, heldOut *frame.Frame, recs *table.Table, opts Options) ([]Result, error) {
	if len(opts.Cutoffs) == 0 {
		return nil, model.Configurationf("at least one cutoff is required")
	}
	for _, c := range opts.Cutoffs {
		if c <= 0 {
			return nil, model.Configurationf("cutoffs must be positive, got %d", c)
		}
	}
	ec, err := column(heldOut, opts.EntityColumn)
	if err != nil {
		return nil, err
	}
	ic, err := column(heldOut, opts.ItemColumn)
	if err != nil {
		return nil, err
	}

	var (
		entities []string
		truth    = make(map[string][]string)
	)
	for row, e := range ec.Strings {
		if _, ok := truth[e]; !ok {
			entities = append(entities, e)
		}
		truth[e] = append(truth[e], ic.Strings[row])
	}

	predicted := make(map[string][]string)
	if recs != nil {
		for _, r := range recs.Rows {
			if _, ok := predicted[r.Entity]; !ok {
				if _, known := truth[r.Entity]; !known {
					entities = append(entities, r.Entity)
				}
			}
			predicted[r.Entity] = append(predicted[r.Entity], r.Item)
		}
	}

	nc := len(opts.Cutoffs)
	out := make([]Result, len(entities)*nc)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(1, min(workers, len(entities)))

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*len(entities)/workers, (w+1)*len(entities)/workers
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				e := entities[i]
				score(out[i*nc:(i+1)*nc], e, truth[e], predicted[e], opts.Cutoffs)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func column(f *frame.Frame, name string) (*frame.Column, error) {
	c, ok := f.Lookup(name)
	if !ok {
		return nil, model.Configurationf("held-out data must contain the column %q", name)
	}
	if c.IsNumeric() {
		return nil, &model.SchemaError{Column: name, Reason: "must be categorical"}
	}
	return c, nil
}

func score(dst []Result, entity string, truth, predicted []string, cutoffs []int) {
	relevant := make(map[string]struct{}, len(truth))
	for _, it := range truth {
		relevant[it] = struct{}{}
	}

	// hits[j] counts distinct relevant items among predicted[:j+1].
	hits := make([]int, len(predicted))
	seen := make(map[string]struct{}, len(predicted))
	n := 0
	for j, it := range predicted {
		if _, ok := relevant[it]; ok {
			if _, dup := seen[it]; !dup {
				seen[it] = struct{}{}
				n++
			}
		}
		hits[j] = n
	}

	for j, c := range cutoffs {
		h := 0
		if len(hits) > 0 {
			h = hits[min(c, len(hits))-1]
		}
		r := Result{
			Entity:    entity,
			Cutoff:    c,
			Precision: float64(h) / float64(c),
			Count:     len(truth),
		}
		if len(relevant) > 0 {
			r.Recall = float64(h) / float64(len(relevant))
		}
		dst[j] = r
	}
}

// Summary is the mean precision and recall over entities at one cutoff.
type Summary struct {
	Cutoff    int
	Precision float64
	Recall    float64
	Entities  int
}

// Summarize averages results per cutoff, ordered by cutoff.
func Summarize(results []Result) []Summary {
	byCutoff := make(map[int]*Summary)
	for _, r := range results {
		s, ok := byCutoff[r.Cutoff]
		if !ok {
			s = &Summary{Cutoff: r.Cutoff}
			byCutoff[r.Cutoff] = s
		}
		s.Precision += r.Precision
		s.Recall += r.Recall
		s.Entities++
	}

	out := make([]Summary, 0, len(byCutoff))
	for _, s := range byCutoff {
		s.Precision /= float64(s.Entities)
		s.Recall /= float64(s.Entities)
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Summary) int { return a.Cutoff - b.Cutoff })
	return out
}

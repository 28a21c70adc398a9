package lookup

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"

	"github.com/hupe1980/recgo/model"
	"golang.org/x/sync/errgroup"
)

// chunkRows is the number of rows a worker claims per cursor step.
const chunkRows = 4096

type entry[V any] struct {
	item model.ItemID
	row  int
	val  V
}

// decodeFunc maps one table row to an (entity, item, value) triple. ok is
// false for rows that reference unknown ids.
type decodeFunc[V any] func(row int) (e model.EntityID, i model.ItemID, v V, ok bool)

// group decodes n rows in parallel and groups them by entity. It returns the
// number of dropped rows.
func group[V any](ctx context.Context, workers, n int, decode decodeFunc[V]) (map[model.EntityID][]entry[V], int, error) {
	if n == 0 {
		return map[model.EntityID][]entry[V]{}, 0, nil
	}
	workers = max(1, min(workers, (n+chunkRows-1)/chunkRows))

	var (
		cursor  atomic.Int64
		dropped atomic.Int64
	)
	locals := make([]map[model.EntityID][]entry[V], workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			local := make(map[model.EntityID][]entry[V])
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				lo := int(cursor.Add(chunkRows)) - chunkRows
				if lo >= n {
					break
				}
				hi := min(lo+chunkRows, n)
				for row := lo; row < hi; row++ {
					e, i, v, ok := decode(row)
					if !ok {
						dropped.Add(1)
						continue
					}
					local[e] = append(local[e], entry[V]{item: i, row: row, val: v})
				}
			}
			locals[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := locals[0]
	for _, local := range locals[1:] {
		for e, es := range local {
			out[e] = append(out[e], es...)
		}
	}
	return out, int(dropped.Load()), nil
}

// finalize sorts every entity's entries by item and keeps the entry of the
// last row for duplicate items. Entities are distributed over workers through
// an atomic cursor.
func finalize[V, T any](ctx context.Context, workers int, grouped map[model.EntityID][]entry[V], conv func(entry[V]) T) (map[model.EntityID][]T, error) {
	keys := make([]model.EntityID, 0, len(grouped))
	for e := range grouped {
		keys = append(keys, e)
	}
	results := make([][]T, len(keys))

	var cursor atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < max(1, min(workers, len(keys))); w++ {
		g.Go(func() error {
			for {
				k := int(cursor.Add(1)) - 1
				if k >= len(keys) {
					return nil
				}
				if k%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				results[k] = sortDedupe(grouped[keys[k]], conv)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[model.EntityID][]T, len(keys))
	for k, e := range keys {
		out[e] = results[k]
	}
	return out, nil
}

func sortDedupe[V, T any](es []entry[V], conv func(entry[V]) T) []T {
	slices.SortFunc(es, func(a, b entry[V]) int {
		if c := cmp.Compare(a.item, b.item); c != 0 {
			return c
		}
		return cmp.Compare(a.row, b.row)
	})
	out := make([]T, 0, len(es))
	for j, en := range es {
		if j+1 < len(es) && es[j+1].item == en.item {
			continue
		}
		out = append(out, conv(en))
	}
	return out
}

package interactions

import (
	"context"
	"runtime"

	"github.com/hupe1980/recgo/model"
	"golang.org/x/sync/errgroup"
)

// Stats holds interaction counts per entity and per item.
type Stats struct {
	// ItemsPerEntity[e] is the number of distinct items entity e interacted with.
	ItemsPerEntity []int
	// EntitiesPerItem[i] is the number of distinct entities that interacted with item i.
	EntitiesPerItem []int
}

// Counts computes interaction counts. Entities are scanned in parallel
// contiguous ranges, each with its own reader.
func Counts(ctx context.Context, s Store) (*Stats, error) {
	numEntities := s.NumEntities()
	st := &Stats{
		ItemsPerEntity:  make([]int, numEntities),
		EntitiesPerItem: make([]int, s.NumItems()),
	}
	if numEntities == 0 {
		return st, nil
	}

	workers := min(runtime.GOMAXPROCS(0), numEntities)
	perItem := make([][]int, workers)
	chunk := (numEntities + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, numEntities)
		g.Go(func() error {
			r, err := s.NewReader(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			local := make([]int, s.NumItems())
			var buf []model.Interaction
			for e := lo; e < hi; e++ {
				list, err := r.Read(model.EntityID(e), buf)
				if err != nil {
					return err
				}
				buf = list
				st.ItemsPerEntity[e] = len(list)
				for _, in := range list {
					local[in.Item]++
				}
			}
			perItem[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, local := range perItem {
		for i, c := range local {
			st.EntitiesPerItem[i] += c
		}
	}
	return st, nil
}

package recgo

import (
	"fmt"
	"math"

	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/internal/lookup"
	"github.com/hupe1980/recgo/internal/query"
)

type (
	// Query selects the entities of a call. It is one of QueryAll, QueryList
	// or QueryRows.
	Query = query.Shape
	// QueryAll queries every known entity, including entities first seen in
	// the call's new observations or new entity data.
	QueryAll = query.All
	// QueryList queries the listed entity keys in order.
	QueryList = query.List
	// QueryRows queries one entity per row with contextual feature columns.
	QueryRows = query.Rows
)

// QueryFromFrame picks the query form from the column count of f: none for
// all entities, one for a key list, two or more for contextual rows.
func QueryFromFrame(f *frame.Frame) Query { return query.FromFrame(f) }

// Request describes one batch call. Nil tables are empty.
type Request struct {
	Query Query
	TopK  int

	// Restriction has one item column (global) or the entity and item
	// columns (per entity).
	Restriction *frame.Frame
	// Exclusion has the entity and item columns.
	Exclusion *frame.Frame

	NewObservations *frame.Frame
	NewEntityData   *frame.Frame
	NewItemData     *frame.Frame

	// ExcludeTrainingInteractions removes items the entity interacted with
	// at training time.
	ExcludeTrainingInteractions bool

	// DiversityFactor inflates the stage-one pool to round(TopK*(1+f))
	// candidates, from which TopK are re-ranked for variety. Zero disables it.
	DiversityFactor float64
	RandomSeed      uint64
}

func (r *Request) tables() lookup.Tables {
	return lookup.Tables{
		Restriction:     r.Restriction,
		Exclusion:       r.Exclusion,
		NewObservations: r.NewObservations,
		NewEntityData:   r.NewEntityData,
		NewItemData:     r.NewItemData,
	}
}

func (r *Request) validate() error {
	if r.TopK <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTopK, r.TopK)
	}
	if r.DiversityFactor < 0 || math.IsNaN(r.DiversityFactor) || math.IsInf(r.DiversityFactor, 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidDiversity, r.DiversityFactor)
	}
	return nil
}

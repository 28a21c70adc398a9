// Package query resolves the entity selection of a call into an execution plan.
//
// A Shape is one of All, List or Rows. Resolve validates it against the model
// schema, maps caller keys to dense ids and returns a Plan whose queries can
// be split into contiguous index ranges.
package query

import (
	"github.com/hupe1980/recgo/frame"
)

// Shape is the tagged union of query shapes.
type Shape interface {
	isShape()
}

// All queries every entity known to the call.
type All struct{}

// List queries an explicit list of entities, in order.
type List struct {
	Entities []string
}

// Rows queries observation rows: an entity column plus context feature
// columns. Each row is one query.
type Rows struct {
	Frame *frame.Frame
}

func (All) isShape()  {}
func (List) isShape() {}
func (Rows) isShape() {}

// FromFrame maps a query table to a Shape by its column count: no columns
// (or nil) is All, one column is List, two or more is Rows.
//
// A single column must hold entity keys; its name is checked by Resolve.
func FromFrame(f *frame.Frame) Shape {
	switch f.NumColumns() {
	case 0:
		return All{}
	case 1:
		return listFrame{f: f}
	default:
		return Rows{Frame: f}
	}
}

// listFrame is a one-column query table, checked for the entity column name.
type listFrame struct {
	f *frame.Frame
}

func (listFrame) isShape() {}

// Range is a half-open range of query indices.
type Range struct {
	Lo, Hi int
}

// Len returns the number of queries in r.
func (r Range) Len() int { return r.Hi - r.Lo }

// Partition splits n queries into at most workers contiguous ranges of
// near-equal size. Empty ranges are omitted.
func Partition(n, workers int) []Range {
	if n <= 0 {
		return nil
	}
	workers = max(1, min(workers, n))
	out := make([]Range, 0, workers)
	for w := 0; w < workers; w++ {
		lo := w * n / workers
		hi := (w + 1) * n / workers
		if hi > lo {
			out = append(out, Range{Lo: lo, Hi: hi})
		}
	}
	return out
}

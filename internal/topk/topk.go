// Package topk selects the highest-scoring candidates of a query.
package topk

import (
	"cmp"
	"math"
	"slices"

	"github.com/hupe1980/recgo/model"
)

// Less reports whether a ranks before b: higher score first, lower item id on
// ties. NaN scores rank below every number.
func Less(a, b model.Candidate) bool {
	an, bn := math.IsNaN(a.Score), math.IsNaN(b.Score)
	switch {
	case an && bn:
		return a.Item < b.Item
	case an:
		return false
	case bn:
		return true
	case a.Score != b.Score:
		return a.Score > b.Score
	default:
		return a.Item < b.Item
	}
}

func compare(a, b model.Candidate) int {
	if Less(a, b) {
		return -1
	}
	if Less(b, a) {
		return 1
	}
	return cmp.Compare(a.Item, b.Item)
}

// Select reorders c so that its first min(m, len(c)) elements are the best
// candidates in rank order, and returns them. The remaining elements are left
// in unspecified order.
func Select(c []model.Candidate, m int) []model.Candidate {
	if m <= 0 {
		return c[:0]
	}
	if m < len(c) {
		nthElement(c, m)
		c = c[:m]
	}
	slices.SortFunc(c, compare)
	return c
}

// nthElement partitions c so that the m best candidates occupy c[:m], using
// quickselect with a median-of-three pivot.
func nthElement(c []model.Candidate, m int) {
	lo, hi := 0, len(c)-1
	for lo < hi {
		p := partition(c, lo, hi)
		switch {
		case p == m-1 || p == m:
			return
		case p < m:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partition(c []model.Candidate, lo, hi int) int {
	mid := lo + (hi-lo)/2
	if Less(c[mid], c[lo]) {
		c[mid], c[lo] = c[lo], c[mid]
	}
	if Less(c[hi], c[lo]) {
		c[hi], c[lo] = c[lo], c[hi]
	}
	if Less(c[hi], c[mid]) {
		c[hi], c[mid] = c[mid], c[hi]
	}
	c[mid], c[hi] = c[hi], c[mid]

	pivot := c[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if Less(c[j], pivot) {
			c[i], c[j] = c[j], c[i]
			i++
		}
	}
	c[i], c[hi] = c[hi], c[i]
	return i
}

// Package candidate builds the eligible candidate list of one query.
package candidate

import "github.com/hupe1980/recgo/model"

// Sources are the exclusion sources of one entity, each sorted by item.
type Sources struct {
	Excluded []model.ItemID
	Observed []model.Interaction
	// Trained is only set when training interactions are excluded.
	Trained []model.Interaction
}

// Cursors track the merge position in each source. The zero value starts at
// the beginning of every source.
type Cursors struct {
	ex, ob, tr int
}

// Skip reports whether item appears in any source, advancing the cursors
// past smaller items. Successive calls for one Cursors value must pass items
// in strictly ascending order.
func Skip(item model.ItemID, s *Sources, c *Cursors) bool {
	for c.ex < len(s.Excluded) && s.Excluded[c.ex] < item {
		c.ex++
	}
	if c.ex < len(s.Excluded) && s.Excluded[c.ex] == item {
		return true
	}

	for c.ob < len(s.Observed) && s.Observed[c.ob].Item < item {
		c.ob++
	}
	if c.ob < len(s.Observed) && s.Observed[c.ob].Item == item {
		return true
	}

	for c.tr < len(s.Trained) && s.Trained[c.tr].Item < item {
		c.tr++
	}
	return c.tr < len(s.Trained) && s.Trained[c.tr].Item == item
}

// CollectRange appends every item in [0, n) that no source excludes to dst.
func CollectRange(dst []model.Candidate, n int, s *Sources) []model.Candidate {
	var c Cursors
	for i := 0; i < n; i++ {
		item := model.ItemID(i)
		if !Skip(item, s, &c) {
			dst = append(dst, model.Candidate{Item: item})
		}
	}
	return dst
}

// CollectList appends every item of the sorted list items that no source
// excludes to dst.
func CollectList(dst []model.Candidate, items []model.ItemID, s *Sources) []model.Candidate {
	var c Cursors
	for _, item := range items {
		if !Skip(item, s, &c) {
			dst = append(dst, model.Candidate{Item: item})
		}
	}
	return dst
}

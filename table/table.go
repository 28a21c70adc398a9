// Package table holds ranked recommendation output.
//
// Workers write into private SegmentWriters; the driver concatenates them in
// worker order once all workers finished. A Table can be persisted to a
// blobstore.BlobStore or exported as CSV.
package table

// Row is one ranked recommendation. Rank is 1-based.
type Row struct {
	Entity string  `json:"entity"`
	Item   string  `json:"item"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}

// Ranked is an item and its score, in final rank order.
type Ranked struct {
	Item  string
	Score float64
}

// Table is a ranked recommendation table. Rows of one entity are contiguous
// and ordered by rank.
type Table struct {
	EntityColumn string `json:"entity_column"`
	ItemColumn   string `json:"item_column"`
	Rows         []Row  `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Group is the contiguous run of rows of one entity.
type Group struct {
	Entity string
	Rows   []Row
}

// Groups splits the table into per-entity runs in table order. An entity
// queried more than once yields one group per run.
func (t *Table) Groups() []Group {
	var out []Group
	for lo := 0; lo < t.Len(); {
		hi := lo + 1
		for hi < len(t.Rows) && t.Rows[hi].Entity == t.Rows[lo].Entity && t.Rows[hi].Rank > t.Rows[hi-1].Rank {
			hi++
		}
		out = append(out, Group{Entity: t.Rows[lo].Entity, Rows: t.Rows[lo:hi]})
		lo = hi
	}
	return out
}

// SegmentWriter collects the rows of one worker. It is not safe for
// concurrent use.
type SegmentWriter struct {
	rows     []Row
	entities int
}

// NewSegmentWriter returns a writer with room for capacity rows.
func NewSegmentWriter(capacity int) *SegmentWriter {
	return &SegmentWriter{rows: make([]Row, 0, capacity)}
}

// Append writes all rows of one entity, ranked 1..len(ranked). An empty
// ranked list writes nothing.
func (w *SegmentWriter) Append(entity string, ranked []Ranked) {
	if len(ranked) == 0 {
		return
	}
	for i, r := range ranked {
		w.rows = append(w.rows, Row{Entity: entity, Item: r.Item, Score: r.Score, Rank: i + 1})
	}
	w.entities++
}

// Len returns the number of rows written.
func (w *SegmentWriter) Len() int { return len(w.rows) }

// Entities returns the number of entities with at least one row.
func (w *SegmentWriter) Entities() int { return w.entities }

// Concat joins segments in order into a table.
func Concat(entityColumn, itemColumn string, segments ...*SegmentWriter) *Table {
	n := 0
	for _, s := range segments {
		n += s.Len()
	}
	t := &Table{EntityColumn: entityColumn, ItemColumn: itemColumn, Rows: make([]Row, 0, n)}
	for _, s := range segments {
		t.Rows = append(t.Rows, s.rows...)
	}
	return t
}

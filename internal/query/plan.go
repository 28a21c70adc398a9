package query

import (
	"github.com/hupe1980/recgo/model"
)

// Mode is the shape of a resolved plan.
type Mode uint8

const (
	ModeAll Mode = iota
	ModeList
	ModeRows
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeList:
		return "list"
	case ModeRows:
		return "rows"
	default:
		return "unknown"
	}
}

// Plan is a resolved, read-only sequence of queries. Implementations are
// safe for concurrent use.
type Plan interface {
	Mode() Mode
	// Len returns the number of queries.
	Len() int
	// Entity returns the entity of query i.
	Entity(i int) model.EntityID
	// Key returns the per-query key mixed into the diversity seed.
	Key(i int) uint64
	// Features returns the encoded context features of query i, ordered by
	// model column index. Nil outside ROWS mode.
	Features(i int) []model.Feature
}

// AllPlan queries entities 0..N-1.
type AllPlan struct {
	N int
}

func (p *AllPlan) Mode() Mode                   { return ModeAll }
func (p *AllPlan) Len() int                     { return p.N }
func (p *AllPlan) Entity(i int) model.EntityID  { return model.EntityID(i) }
func (p *AllPlan) Key(i int) uint64             { return uint64(i) }
func (p *AllPlan) Features(int) []model.Feature { return nil }

// ListPlan queries an explicit entity list.
type ListPlan struct {
	Entities []model.EntityID
}

func (p *ListPlan) Mode() Mode                   { return ModeList }
func (p *ListPlan) Len() int                     { return len(p.Entities) }
func (p *ListPlan) Entity(i int) model.EntityID  { return p.Entities[i] }
func (p *ListPlan) Key(i int) uint64             { return uint64(p.Entities[i]) }
func (p *ListPlan) Features(int) []model.Feature { return nil }

// RowsPlan queries observation rows with context features.
type RowsPlan struct {
	Entities []model.EntityID
	// RowKeys holds a hash of each encoded query row.
	RowKeys []uint64
	// Permutation maps caller column position to model column index. The
	// entity column maps to model.EntityColumnIndex.
	Permutation []int
	// stride is the number of features per row.
	stride   int
	features []model.Feature
}

func (p *RowsPlan) Mode() Mode                  { return ModeRows }
func (p *RowsPlan) Len() int                    { return len(p.Entities) }
func (p *RowsPlan) Entity(i int) model.EntityID { return p.Entities[i] }
func (p *RowsPlan) Key(i int) uint64            { return p.RowKeys[i] }

func (p *RowsPlan) Features(i int) []model.Feature {
	lo := i * p.stride
	return p.features[lo : lo+p.stride : lo+p.stride]
}

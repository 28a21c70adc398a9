package recgo

import (
	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/interactions"
	"github.com/hupe1980/recgo/internal/resource"
	"github.com/hupe1980/recgo/model"
)

// Model is a trained recommender as seen by the query engine.
type Model interface {
	// Schema returns the trained column layout.
	Schema() *model.Schema
	// Entities indexes the trained entity keys.
	Entities() indexer.Indexer
	// Items indexes the trained item universe.
	Items() indexer.Indexer
	// Interactions returns the trained interactions.
	Interactions() interactions.Store
	// Scorer scores candidates.
	Scorer() model.Scorer
	// Similarity drives diversity re-ranking. May be nil.
	Similarity() model.Similarity
	// SideFeatures returns the trained side data. May be nil.
	SideFeatures() model.SideFeatures
}

// Engine answers batch recommendation calls against one model.
// It is safe for concurrent use; every call builds its own lookup state.
type Engine struct {
	model Model
	opts  options
	rc    *resource.Controller
}

// New creates an Engine over m.
func New(m Model, optFns ...Option) (*Engine, error) {
	if m == nil {
		return nil, model.Configurationf("model is required")
	}
	if m.Schema() == nil || m.Entities() == nil || m.Items() == nil || m.Interactions() == nil || m.Scorer() == nil {
		return nil, model.Configurationf("model must provide a schema, indexers, interactions and a scorer")
	}
	if s := m.Interactions(); s.NumItems() > m.Items().Len() || s.NumEntities() > m.Entities().Len() {
		return nil, model.Configurationf("interactions cover %d entities and %d items, indexers only %d and %d",
			s.NumEntities(), s.NumItems(), m.Entities().Len(), m.Items().Len())
	}

	opts := applyOptions(optFns)
	return &Engine{
		model: m,
		opts:  opts,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   opts.memoryLimit,
			MaxConcurrentCalls: opts.maxCalls,
		}),
	}, nil
}

// Model returns the model the engine queries.
func (e *Engine) Model() Model { return e.model }

// Package model defines the identifiers, records and collaborator contracts
// shared by the query engine and the scoring implementations.
//
// # Identity Types
//
//   - EntityID: dense id of a querying entity ("user")
//   - ItemID: dense id of a recommendable item
//
// Both are assigned by an external indexer (see package indexer) and are
// stable between training and query time.
//
// # Collaborators
//
//   - Scorer: fills scores for a candidate list of one query
//   - Similarity: item-to-item similarity used by diversity re-ranking
//   - SideFeatures: per-entity and per-item contextual attributes
package model

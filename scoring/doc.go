// Package scoring provides the bundled Scorer and Similarity implementations:
// latent-factor models, item-item similarity tables and popularity.
//
// All scorers are read-only after construction and safe for concurrent use
// by the engine's workers.
package scoring

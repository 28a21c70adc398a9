// Package testutil provides testing utilities for recgo.
//
// This package is intended for use in tests and benchmarks only.
// It generates deterministic synthetic models and computes exact top-K
// ground truth.
//
// # Synthetic Models
//
//	rng := testutil.NewRNG(seed)
//	b := rng.Model(testutil.ModelConfig{Entities: 50, Items: 200, Dim: 8})
//
// # Ground Truth
//
//	want := testutil.BruteForceTopK(scores, excluded, k)
//	overlap := testutil.Overlap(want, got)
package testutil

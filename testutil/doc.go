// Package testutil provides testing utilities for pme.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random byte vectors and computing
// exact nearest neighbors.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.Vectors(100, 16)
//	query := rng.Near(vecs[0], 3)
//
// # Exact Search (Ground Truth)
//
//	want := testutil.ExactTopK(query, vecs, k, distance.L1)
package testutil

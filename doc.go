// Package pme provides an embeddable pattern matching engine for Go.
//
// The engine hosts a table of classifiers. Each classifier stores byte
// pattern vectors with a category and an influence field, and classifies
// new vectors against them with either a radial basis function network
// (RBF) or k nearest neighbors (KNN). Distances are L1, LSup or dynamic time
// warping (DTW) over interleaved multi-channel sequences.
//
// # Quick Start
//
//	e, _ := pme.New([]pme.ClassifierConfig{{
//	    ID:          1,
//	    PatternSize: 16,
//	    MaxPatterns: 256,
//	    NumClasses:  4,
//	    Distance:    distance.MetricL1,
//	    Mode:        pme.ModeRBF,
//	}})
//	defer e.Close()
//
//	_, _ = e.Learn(ctx, 1, features, 2, 400)
//	res, _ := e.Classify(ctx, 1, features)
//	fmt.Println(res.Status, res.Category)
//
// # Submit and Rank
//
// Submit compares a vector against every stored pattern and returns the
// network status: Negative when no influence field contains the vector,
// Positive when every firing pattern agrees and Uncertain otherwise. Rank
// sorts the result list and returns a Cursor that hands out neighbors under
// a retrieval strategy:
//
//	status, _ := e.Submit(ctx, 1, features)
//	cur, _ := e.Rank(ctx, 1)
//	hits, _ := cur.Retrieve(pme.StrategyRBF, 3)
//
// A later Submit or Flush of the same classifier invalidates its cursors.
// Classifiers own separate regions of the result arena, so work on one
// classifier never disturbs cursors of another.
//
// # Learning
//
// Learn adds unknown vectors and corrects wrong ones by shrinking the
// influence of the firing patterns before storing the vector. Score and
// Rebalance implement supervised cleanup: scoring records per-pattern
// errors and a histogram of true categories, rebalancing reassigns
// patterns with a negative score to their most frequent true category.
//
// # Persistence
//
// Save writes one knowledge pack per classifier and a YAML manifest to any
// blobstore.BlobStore (memory, local directory, S3 or MinIO); Load restores
// the model:
//
//	store := blobstore.NewLocalStore("./model")
//	_, _ = e.Save(ctx, store)
//	e2, _ := pme.Load(ctx, store)
//
// # Key Features
//
//   - Fixed result arena shared by all classifiers
//   - L1, LSup and multi-channel DTW distances
//   - RBF and KNN classification with online learning
//   - Versioned knowledge packs with LZ4, Zstd or Snappy compression
//   - Memory and IO limits, structured logging and metrics hooks
package pme

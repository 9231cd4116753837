// Package vectorstore provides the bounded pattern store behind a classifier.
//
// # Layout
//
// Patterns are stored in a Structure-of-Arrays layout sized once at
// construction:
//
//	data        capacity * dim bytes, pattern i at data[i*dim : (i+1)*dim]
//	categories  capacity uint16
//	influences  capacity uint32
//	errors      capacity int32             (created on first score)
//	histograms  capacity * classes uint32  (created on first score)
//
// The store never grows. Append fails with ErrFull once capacity patterns are
// held, and Flush only resets the count.
//
// # Scores
//
// Learning scores are created lazily by the first RecordScore call, so stores
// that are only used for inference never pay for them. Rebalance reassigns
// the category of every pattern with a negative error counter and then zeroes
// all scores.
//
// Thread safety: Store is not safe for concurrent use.
package vectorstore

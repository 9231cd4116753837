// Package searcher implements result retrieval over a ranked arena list.
//
// A Cursor walks a region's list in its current order and keeps its position
// between calls. RBF retrieval collects neighbors whose distance falls inside
// their influence field and stops once k are found, so a later call continues
// from the same point. KNN retrieval takes the next k neighbors
// unconditionally.
//
// A Cursor is tied to the region generation it was created on. Once the region
// is reallocated or invalidated every call returns ErrStaleCursor.
package searcher

// Package arena provides the fixed-capacity result pool used by classifier
// submissions.
//
// A Pool owns one contiguous array of result nodes. Each classifier reserves a
// Region of that array once, sized to its pattern capacity. A submission calls
// Region.Allocate, which links the first n slots of the region into a circular
// doubly linked list. Links are int32 indices into the pool array, so lists
// can be spliced and sorted without pointers.
//
// # Generations
//
// Every Allocate and Invalidate bumps the region generation. Readers that
// captured a generation (see internal/searcher) detect that the list they
// were walking has been rebuilt.
//
// # Sorting
//
// Sort is an iterative bottom-up merge sort over a list of nodes. It is stable
// and maintains the links selected by Flags (Doubly, Circular).
//
// Regions are not safe for concurrent use; callers serialize access.
package arena

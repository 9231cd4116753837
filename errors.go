package pme

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pme/distance"
	"github.com/hupe1980/pme/internal/arena"
	"github.com/hupe1980/pme/internal/resource"
	"github.com/hupe1980/pme/internal/searcher"
	"github.com/hupe1980/pme/internal/vectorstore"
)

var (
	// ErrCapacityExceeded is returned when a classifier already holds MaxPatterns patterns.
	ErrCapacityExceeded = errors.New("pattern capacity exceeded")
	// ErrInvalidCategory is matched by *CategoryError.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrUnknownClassifier is returned for ids missing from the table.
	ErrUnknownClassifier = errors.New("unknown classifier")
	// ErrSizeViolation is matched by *SizeError.
	ErrSizeViolation = errors.New("size violation")
	// ErrArenaExhausted is returned when the classifiers do not fit the result arena.
	ErrArenaExhausted = errors.New("result arena exhausted")
	// ErrInvalidConfig is returned for malformed tables and limits.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
	// ErrPatternIndex is returned for pattern indices outside [0, PatternCount).
	ErrPatternIndex = errors.New("pattern index out of range")
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine is closed")
	// ErrPackMismatch is returned by Load when a knowledge pack disagrees
	// with its manifest entry.
	ErrPackMismatch = errors.New("knowledge pack does not match manifest")

	// ErrStaleCursor is returned by a Cursor whose list was rebuilt by a later
	// submission or flush of the same classifier.
	ErrStaleCursor = searcher.ErrStaleCursor
	// ErrUnimplemented is returned by reserved retrieval strategies.
	ErrUnimplemented = searcher.ErrUnimplemented
	// ErrMemoryLimitExceeded is returned when the memory limit would be exceeded.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// CategoryError reports a category outside [1, NumClasses].
type CategoryError struct {
	Classifier uint16
	Category   int
	NumClasses int
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("classifier %d: category %d not in [1, %d]", e.Classifier, e.Category, e.NumClasses)
}

// Is reports whether target is ErrInvalidCategory.
func (e *CategoryError) Is(target error) bool { return target == ErrInvalidCategory }

// SizeError reports a vector or sequence that does not fit the configured size.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type SizeError struct {
	Classifier uint16
	Got        int
	Want       int
	cause      error
}

func (e *SizeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("classifier %d: size violation: %v", e.Classifier, e.cause)
	}
	return fmt.Sprintf("classifier %d: size violation: got %d, want %d", e.Classifier, e.Got, e.Want)
}

// Is reports whether target is ErrSizeViolation.
func (e *SizeError) Is(target error) bool { return target == ErrSizeViolation }

func (e *SizeError) Unwrap() error { return e.cause }

func unknownClassifier(id uint16) error {
	return fmt.Errorf("%w: %d", ErrUnknownClassifier, id)
}

// translateError maps errors of the internal packages onto the public taxonomy.
func translateError(id uint16, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, vectorstore.ErrFull) {
		return fmt.Errorf("classifier %d: %w", id, ErrCapacityExceeded)
	}
	if errors.Is(err, vectorstore.ErrWrongDimension) {
		return &SizeError{Classifier: id, cause: err}
	}
	var se *distance.SequenceError
	if errors.As(err, &se) {
		return &SizeError{Classifier: id, Got: se.Length, Want: se.Limit, cause: err}
	}
	if errors.Is(err, arena.ErrExhausted) || errors.Is(err, arena.ErrRegionOverflow) {
		return fmt.Errorf("%w: %w", ErrArenaExhausted, err)
	}

	return err
}

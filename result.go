package pme

import (
	"fmt"

	"github.com/hupe1980/pme/internal/searcher"
)

// Status is the outcome of a submission.
type Status int

const (
	// StatusNegative means no stored pattern's influence field contains the input.
	StatusNegative Status = iota
	// StatusPositive means all firing patterns agree on one category.
	StatusPositive
	// StatusUncertain means firing patterns disagree.
	StatusUncertain
)

func (s Status) String() string {
	switch s {
	case StatusNegative:
		return "Negative"
	case StatusPositive:
		return "Positive"
	case StatusUncertain:
		return "Uncertain"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Neighbor is one ranked result.
type Neighbor = searcher.Neighbor

// Strategy selects how a Cursor takes neighbors from a ranked list.
type Strategy = searcher.Strategy

const (
	StrategyRBF               = searcher.StrategyRBF
	StrategyKNN               = searcher.StrategyKNN
	StrategyRBFUniqueCategory = searcher.StrategyRBFUniqueCategory
	StrategyDistanceWeighted  = searcher.StrategyDistanceWeighted
)

// UnknownCategory is the category reported when nothing matched.
const UnknownCategory uint16 = 0

// Classification is the result of classifying one vector.
type Classification struct {
	Status Status
	// Category is the predicted category, UnknownCategory if none.
	Category uint16
	// PatternID, Influence and Distance describe the reported neighbor:
	// the winner, or the nearest pattern when the category is unknown.
	// PatternID is -1 when the classifier holds no patterns.
	PatternID int32
	Influence uint32
	Distance  uint32
	// NeighborCategory is the stored category of the reported neighbor.
	NeighborCategory uint16
	// Neighbors holds the retrieved neighbors in ascending distance.
	Neighbors []Neighbor
}

// Known reports whether a category was predicted.
func (c Classification) Known() bool { return c.Category != UnknownCategory }

// Value returns the scalar result: the category, or 0 when unknown.
func (c Classification) Value() float32 { return float32(c.Category) }

// Diagnostics returns [pattern_id, category, influence, distance] of the
// reported neighbor.
func (c Classification) Diagnostics() [4]float32 {
	return [4]float32{
		float32(c.PatternID),
		float32(c.NeighborCategory),
		float32(c.Influence),
		float32(c.Distance),
	}
}

// ResultSink receives a classification in the output-buffer form.
type ResultSink struct {
	Result float32
	Output []float32
}

// Report writes the scalar result and the diagnostics into sink.
// Output must hold at least four values.
func (c Classification) Report(sink *ResultSink) error {
	if len(sink.Output) < 4 {
		return &SizeError{Got: len(sink.Output), Want: 4}
	}
	sink.Result = c.Value()
	d := c.Diagnostics()
	copy(sink.Output, d[:])
	return nil
}

// FeatureVector is a tagged byte buffer produced by a feature pipeline.
type FeatureVector struct {
	TypeID uint8
	Size   int
	Data   []byte
}

// LearnOutcome reports what Learn did.
type LearnOutcome int

const (
	// LearnNoop means the vector was already classified correctly.
	LearnNoop LearnOutcome = iota
	// LearnAdded means the vector was unknown and was stored.
	LearnAdded
	// LearnCorrected means firing patterns were shrunk and the vector was stored.
	LearnCorrected
)

func (o LearnOutcome) String() string {
	switch o {
	case LearnNoop:
		return "Noop"
	case LearnAdded:
		return "Added"
	case LearnCorrected:
		return "Corrected"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// ScoreOutcome reports what Score recorded.
type ScoreOutcome struct {
	// PatternID is the scored pattern, -1 if the classifier is empty.
	PatternID int32
	Predicted uint16
	Correct   bool
}

// Pattern is a copy of one stored pattern.
type Pattern struct {
	Vector    []byte
	Category  uint16
	Influence uint32
}

// PatternScore is the scoring state of one stored pattern since the last
// rebalance or flush.
type PatternScore struct {
	// Error is incremented by correct and decremented by wrong predictions.
	Error int32
	// Histogram counts ground-truth categories, index 0 for category 1.
	Histogram []uint32
}

// ClassifierStats describes one classifier.
type ClassifierStats struct {
	ID       uint16
	Patterns int
	Capacity int
	Scored   bool
}

// Stats is a snapshot of engine state.
type Stats struct {
	ModelID       string
	Classifiers   []ClassifierStats
	ArenaCapacity int
	ArenaReserved int
	MemoryUsed    int64
	MemoryLimit   int64
	IOBytes       int64
}

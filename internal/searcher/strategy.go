package searcher

import "fmt"

// Strategy selects how neighbors are taken from a ranked list.
type Strategy uint8

const (
	// StrategyRBF takes neighbors whose distance is below their influence.
	StrategyRBF Strategy = iota
	// StrategyKNN takes the nearest neighbors regardless of influence.
	StrategyKNN
	// StrategyRBFUniqueCategory is reserved and returns ErrUnimplemented.
	StrategyRBFUniqueCategory
	// StrategyDistanceWeighted is reserved and returns ErrUnimplemented.
	StrategyDistanceWeighted
)

func (s Strategy) String() string {
	switch s {
	case StrategyRBF:
		return "RBF"
	case StrategyKNN:
		return "KNN"
	case StrategyRBFUniqueCategory:
		return "RBFUniqueCategory"
	case StrategyDistanceWeighted:
		return "DistanceWeighted"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

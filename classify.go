package pme

import (
	"context"
	"time"

	"github.com/hupe1980/pme/internal/searcher"
)

// Classify submits vector and returns the predicted category.
//
// KNN classifiers report the nearest pattern's category. RBF classifiers
// report the category of the nearest firing pattern, or UnknownCategory when
// the status is Negative; the nearest pattern is still reported for
// diagnostics. A classifier without patterns yields Negative, unknown and
// PatternID -1.
func (e *Engine) Classify(ctx context.Context, id uint16, vector []byte) (Classification, error) {
	return e.ClassifyK(ctx, id, vector, 1)
}

// ClassifyK is Classify retrieving up to k neighbors.
func (e *Engine) ClassifyK(ctx context.Context, id uint16, vector []byte, k int) (Classification, error) {
	if k <= 0 {
		return Classification{PatternID: -1}, ErrInvalidK
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return Classification{PatternID: -1}, err
	}

	start := time.Now()
	res, _, err := e.classifyLocked(ctx, c, vector, k)
	e.metrics.RecordClassify(res.Known(), time.Since(start), err)
	return res, err
}

// ClassifyFeature classifies the data of a feature vector.
func (e *Engine) ClassifyFeature(ctx context.Context, id uint16, fv FeatureVector) (Classification, error) {
	if fv.Size != len(fv.Data) {
		return Classification{PatternID: -1}, &SizeError{Classifier: id, Got: len(fv.Data), Want: fv.Size}
	}
	return e.Classify(ctx, id, fv.Data)
}

// classifyLocked returns the cursor positioned after the retrieved neighbors.
func (e *Engine) classifyLocked(ctx context.Context, c *classifier, vector []byte, k int) (Classification, *searcher.Cursor, error) {
	res := Classification{PatternID: -1}

	status, err := e.submitLocked(ctx, c, vector)
	if err != nil {
		return res, nil, err
	}
	res.Status = status

	c.region.Sort()
	cur := searcher.NewCursor(c.region)

	nearest, ok, err := cur.Peek()
	if err != nil || !ok {
		return res, cur, err
	}

	switch {
	case c.cfg.Mode == ModeKNN:
		res.Neighbors, err = cur.Retrieve(StrategyKNN, k)
	case status != StatusNegative:
		res.Neighbors, err = cur.Retrieve(StrategyRBF, k)
	}
	if err != nil {
		return res, cur, err
	}

	reported := nearest
	if len(res.Neighbors) > 0 {
		reported = res.Neighbors[0]
		res.Category = reported.Category
	}
	res.PatternID = reported.PatternID
	res.Influence = reported.Influence
	res.Distance = reported.Distance
	res.NeighborCategory = reported.Category
	return res, cur, nil
}

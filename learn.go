package pme

import (
	"context"
	"time"

	"github.com/hupe1980/pme/internal/searcher"
)

// Learn trains classifier id on one labelled vector.
//
// An unknown prediction stores the vector (LearnAdded). A wrong prediction
// shrinks the influence field of every firing pattern to its distance from
// the vector and then stores the vector with the given influence
// (LearnCorrected). A correct prediction changes nothing (LearnNoop).
// Invalid categories are rejected before anything is mutated. When the
// classifier is full, an unknown vector yields LearnNoop with
// ErrCapacityExceeded; a wrong prediction still shrinks the firing fields
// and yields LearnCorrected with the error.
func (e *Engine) Learn(ctx context.Context, id uint16, vector []byte, category uint16, influence uint32) (LearnOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return LearnNoop, err
	}

	start := time.Now()
	outcome, err := e.learnLocked(ctx, c, vector, category, influence)
	e.metrics.RecordLearn(outcome, time.Since(start), err)
	e.logger.LogLearn(ctx, id, category, outcome, err)
	return outcome, err
}

func (e *Engine) learnLocked(ctx context.Context, c *classifier, vector []byte, category uint16, influence uint32) (LearnOutcome, error) {
	if err := checkCategory(c, category); err != nil {
		return LearnNoop, err
	}

	res, cur, err := e.classifyLocked(ctx, c, vector, 1)
	if err != nil {
		return LearnNoop, err
	}

	switch {
	case !res.Known():
		if err := e.addLocked(c, vector, category, influence); err != nil {
			return LearnNoop, err
		}
		return LearnAdded, nil

	case res.Category != category:
		shrunk, err := shrink(c, res, cur)
		if err != nil {
			return LearnNoop, err
		}
		// The halved winner distance is reported only; the stored
		// influence is the caller's.
		local := min(res.Distance/2, influence)
		e.logger.DebugContext(ctx, "learn correction",
			"classifier", c.cfg.ID,
			"winner", res.PatternID,
			"shrunk", shrunk,
			"local_influence", local,
			"influence", influence,
		)
		return LearnCorrected, e.addLocked(c, vector, category, influence)

	default:
		return LearnNoop, nil
	}
}

// shrink sets the influence of every firing pattern to its distance: first
// the reported neighbors, then the remaining hits found by continuing cur.
func shrink(c *classifier, res Classification, cur *searcher.Cursor) (int, error) {
	n := 0
	apply := func(nb Neighbor) {
		if nb.Hit() {
			c.store.SetInfluence(int(nb.PatternID), nb.Distance)
			n++
		}
	}

	for _, nb := range res.Neighbors {
		apply(nb)
	}

	var buf [1]Neighbor
	for {
		got, err := cur.RetrieveInto(buf[:0], StrategyRBF, 1)
		if err != nil {
			return n, err
		}
		if len(got) == 0 {
			return n, nil
		}
		apply(got[0])
	}
}

// Score classifies a labelled vector and records on the reported pattern
// whether the prediction was correct.
func (e *Engine) Score(ctx context.Context, id uint16, vector []byte, category uint16) (ScoreOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return ScoreOutcome{PatternID: -1}, err
	}

	start := time.Now()
	out, err := e.scoreLocked(ctx, c, vector, category)
	e.metrics.RecordScore(out.Correct, time.Since(start), err)
	e.logger.LogScore(ctx, id, out, err)
	return out, err
}

func (e *Engine) scoreLocked(ctx context.Context, c *classifier, vector []byte, category uint16) (ScoreOutcome, error) {
	out := ScoreOutcome{PatternID: -1}
	if err := checkCategory(c, category); err != nil {
		return out, err
	}

	res, _, err := e.classifyLocked(ctx, c, vector, 1)
	if err != nil {
		return out, err
	}
	out.PatternID = res.PatternID
	out.Predicted = res.Category
	if res.PatternID < 0 {
		return out, nil
	}

	out.Correct = res.Category == category
	return out, translateError(c.cfg.ID, c.store.RecordScore(int(res.PatternID), out.Correct, category))
}

// Rebalance reassigns every pattern with a negative score to the category it
// was most often confused with, then clears all scores. It returns the number
// of reassigned patterns.
func (e *Engine) Rebalance(ctx context.Context, id uint16) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	n := c.store.Rebalance()
	e.metrics.RecordRebalance(n, time.Since(start))
	e.logger.LogRebalance(ctx, id, n)
	return n, nil
}

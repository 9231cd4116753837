package pme

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pme/distance"
)

func influences(t *testing.T, e *Engine, id uint16) []uint32 {
	t.Helper()

	n, err := e.PatternCount(id)
	require.NoError(t, err)

	out := make([]uint32, n)
	for i := range out {
		p, err := e.Pattern(id, i)
		require.NoError(t, err)
		out[i] = p.Influence
	}
	return out
}

func TestLearn(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []ClassifierConfig{scalar(1, 8, distance.MetricL1, ModeRBF)})

	outcome, err := e.Learn(ctx, 1, []byte{10}, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, LearnAdded, outcome)

	outcome, err = e.Learn(ctx, 1, []byte{11}, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, LearnNoop, outcome)

	outcome, err = e.Learn(ctx, 1, []byte{12}, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, LearnCorrected, outcome)

	// The firing pattern shrinks to its distance and the new pattern keeps
	// the requested influence rather than min(distance/2, influence).
	assert.Equal(t, []uint32{2, 7}, influences(t, e, 1))

	p, err := e.Pattern(1, 1)
	require.NoError(t, err)
	assert.Equal(t, Pattern{Vector: []byte{12}, Category: 2, Influence: 7}, p)

	res, err := e.Classify(ctx, 1, []byte{12})
	require.NoError(t, err)
	assert.Equal(t, StatusPositive, res.Status)
	assert.Equal(t, uint16(2), res.Category)
}

func TestLearn_ShrinksEveryHit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []ClassifierConfig{scalar(1, 8, distance.MetricL1, ModeRBF)})
	// distances from [12]: 2, 2, 18, 1
	addAll(t, e, 1, []byte{10, 14, 30, 13}, []uint16{1, 1, 1, 3}, 20)
	require.NoError(t, e.AddPattern(ctx, 1, []byte{60}, 1, 5))

	outcome, err := e.Learn(ctx, 1, []byte{12}, 2, 9)
	require.NoError(t, err)
	assert.Equal(t, LearnCorrected, outcome)

	assert.Equal(t, []uint32{2, 2, 18, 1, 5, 9}, influences(t, e, 1))
}

func TestLearn_KNN(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []ClassifierConfig{scalar(1, 4, distance.MetricL1, ModeKNN)})

	outcome, err := e.Learn(ctx, 1, []byte{10}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, LearnAdded, outcome)

	// KNN always predicts once a pattern exists.
	outcome, err = e.Learn(ctx, 1, []byte{200}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, LearnCorrected, outcome)

	outcome, err = e.Learn(ctx, 1, []byte{190}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, LearnNoop, outcome)

	n, _ := e.PatternCount(1)
	assert.Equal(t, 2, n)
}

func TestLearn_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("InvalidCategory", func(t *testing.T) {
		e := newTestEngine(t, []ClassifierConfig{scalar(1, 4, distance.MetricL1, ModeRBF)})
		addAll(t, e, 1, []byte{10}, []uint16{1}, 5)

		for _, category := range []uint16{0, 5} {
			_, err := e.Learn(ctx, 1, []byte{10}, category, 5)
			assert.ErrorIs(t, err, ErrInvalidCategory)
		}
		assert.Equal(t, []uint32{5}, influences(t, e, 1))
	})

	t.Run("CapacityExceeded", func(t *testing.T) {
		e := newTestEngine(t, []ClassifierConfig{scalar(1, 1, distance.MetricL1, ModeRBF)})

		_, err := e.Learn(ctx, 1, []byte{10}, 1, 5)
		require.NoError(t, err)

		outcome, err := e.Learn(ctx, 1, []byte{100}, 1, 5)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
		assert.Equal(t, LearnNoop, outcome)

		outcome, err = e.Learn(ctx, 1, []byte{12}, 2, 5)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
		assert.Equal(t, LearnCorrected, outcome)
		assert.Equal(t, []uint32{2}, influences(t, e, 1))

		n, err := e.PatternCount(1)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("UnknownClassifier", func(t *testing.T) {
		e := newTestEngine(t, []ClassifierConfig{scalar(1, 1, distance.MetricL1, ModeRBF)})

		_, err := e.Learn(ctx, 3, []byte{10}, 1, 5)
		assert.ErrorIs(t, err, ErrUnknownClassifier)
	})
}

func TestScoreAndRebalance(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []ClassifierConfig{{
		ID: 1, PatternSize: 1, MaxPatterns: 4, NumClasses: 3, Mode: ModeRBF,
	}})
	addAll(t, e, 1, []byte{10, 20}, []uint16{1, 2}, 5)

	out, err := e.Score(ctx, 1, []byte{11}, 1)
	require.NoError(t, err)
	assert.Equal(t, ScoreOutcome{PatternID: 0, Predicted: 1, Correct: true}, out)

	out, err = e.Score(ctx, 1, []byte{19}, 1)
	require.NoError(t, err)
	assert.Equal(t, ScoreOutcome{PatternID: 1, Predicted: 2, Correct: false}, out)

	out, err = e.Score(ctx, 1, []byte{21}, 3)
	require.NoError(t, err)
	assert.Equal(t, ScoreOutcome{PatternID: 1, Predicted: 2, Correct: false}, out)

	_, err = e.Score(ctx, 1, []byte{21}, 4)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	s0, err := e.PatternScore(1, 0)
	require.NoError(t, err)
	assert.Equal(t, PatternScore{Error: 1, Histogram: []uint32{1, 0, 0}}, s0)
	s1, err := e.PatternScore(1, 1)
	require.NoError(t, err)
	assert.Equal(t, PatternScore{Error: -2, Histogram: []uint32{1, 0, 1}}, s1)

	_, err = e.PatternScore(1, 2)
	assert.ErrorIs(t, err, ErrPatternIndex)

	// pattern 1: error -2, histogram [1,0,1] -> class 1
	n, err := e.Rebalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s1, err = e.PatternScore(1, 1)
	require.NoError(t, err)
	assert.Equal(t, PatternScore{Histogram: []uint32{0, 0, 0}}, s1)

	p0, _ := e.Pattern(1, 0)
	p1, _ := e.Pattern(1, 1)
	assert.Equal(t, uint16(1), p0.Category)
	assert.Equal(t, uint16(1), p1.Category)

	n, err = e.Rebalance(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRebalance_MostConfusedClass(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []ClassifierConfig{{
		ID: 1, PatternSize: 1, MaxPatterns: 1, NumClasses: 3, Mode: ModeKNN,
	}})
	addAll(t, e, 1, []byte{10}, []uint16{1}, 0)

	// histogram [3,5,1], error 3-5-1 = -3
	for truth, times := range map[uint16]int{1: 3, 2: 5, 3: 1} {
		for i := 0; i < times; i++ {
			_, err := e.Score(ctx, 1, []byte{10}, truth)
			require.NoError(t, err)
		}
	}

	n, err := e.Rebalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, _ := e.Pattern(1, 0)
	assert.Equal(t, uint16(2), p.Category)
}

func TestScore_Empty(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []ClassifierConfig{scalar(1, 2, distance.MetricL1, ModeRBF)})

	out, err := e.Score(ctx, 1, []byte{1}, 1)
	require.NoError(t, err)
	assert.Equal(t, ScoreOutcome{PatternID: -1}, out)
	assert.False(t, e.Stats().Classifiers[0].Scored)
}

func TestScore_NegativeScoresNearest(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []ClassifierConfig{scalar(1, 2, distance.MetricL1, ModeRBF)})
	addAll(t, e, 1, []byte{10, 40}, []uint16{1, 2}, 2)

	out, err := e.Score(ctx, 1, []byte{30}, 2)
	require.NoError(t, err)
	assert.Equal(t, ScoreOutcome{PatternID: 1, Predicted: UnknownCategory, Correct: false}, out)

	n, err := e.Rebalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, _ := e.Pattern(1, 1)
	assert.Equal(t, uint16(2), p.Category)
}

func TestFlush_ClearsScores(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []ClassifierConfig{scalar(1, 2, distance.MetricL1, ModeKNN)})
	addAll(t, e, 1, []byte{10}, []uint16{1}, 0)

	_, err := e.Score(ctx, 1, []byte{10}, 2)
	require.NoError(t, err)

	require.NoError(t, e.Flush(ctx, 1))
	addAll(t, e, 1, []byte{10}, []uint16{1}, 0)

	n, err := e.Rebalance(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLearnOutcome_String(t *testing.T) {
	assert.Equal(t, "Noop", LearnNoop.String())
	assert.Equal(t, "Added", LearnAdded.String())
	assert.Equal(t, "Corrected", LearnCorrected.String())
}

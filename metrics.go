package pme

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordSubmit is called after each submission with the resulting status
	// and the number of patterns compared.
	RecordSubmit(status Status, patterns int, duration time.Duration, err error)

	// RecordClassify is called after each classification.
	// known is false when the result category is unknown.
	RecordClassify(known bool, duration time.Duration, err error)

	// RecordLearn is called after each learn operation.
	RecordLearn(outcome LearnOutcome, duration time.Duration, err error)

	// RecordScore is called after each scoring pass.
	RecordScore(correct bool, duration time.Duration, err error)

	// RecordRebalance is called after each rebalance.
	RecordRebalance(reassigned int, duration time.Duration)

	// RecordFlush is called after each flush.
	RecordFlush(dropped int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSubmit(Status, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordClassify(bool, time.Duration, error)      {}
func (NoopMetricsCollector) RecordLearn(LearnOutcome, time.Duration, error) {}
func (NoopMetricsCollector) RecordScore(bool, time.Duration, error)         {}
func (NoopMetricsCollector) RecordRebalance(int, time.Duration)             {}
func (NoopMetricsCollector) RecordFlush(int)                                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	SubmitCount       atomic.Int64
	SubmitErrors      atomic.Int64
	SubmitTotalNanos  atomic.Int64
	PositiveCount     atomic.Int64
	UncertainCount    atomic.Int64
	NegativeCount     atomic.Int64
	DistanceCount     atomic.Int64
	ClassifyCount     atomic.Int64
	ClassifyErrors    atomic.Int64
	ClassifyUnknown   atomic.Int64
	LearnCount        atomic.Int64
	LearnErrors       atomic.Int64
	LearnAdded        atomic.Int64
	LearnCorrected    atomic.Int64
	ScoreCount        atomic.Int64
	ScoreErrors       atomic.Int64
	ScoreCorrect      atomic.Int64
	RebalanceCount    atomic.Int64
	RebalanceAssigned atomic.Int64
	FlushCount        atomic.Int64
}

// RecordSubmit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSubmit(status Status, patterns int, duration time.Duration, err error) {
	b.SubmitCount.Add(1)
	b.SubmitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SubmitErrors.Add(1)
		return
	}
	b.DistanceCount.Add(int64(patterns))
	switch status {
	case StatusPositive:
		b.PositiveCount.Add(1)
	case StatusUncertain:
		b.UncertainCount.Add(1)
	default:
		b.NegativeCount.Add(1)
	}
}

// RecordClassify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClassify(known bool, _ time.Duration, err error) {
	b.ClassifyCount.Add(1)
	if err != nil {
		b.ClassifyErrors.Add(1)
		return
	}
	if !known {
		b.ClassifyUnknown.Add(1)
	}
}

// RecordLearn implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLearn(outcome LearnOutcome, _ time.Duration, err error) {
	b.LearnCount.Add(1)
	if err != nil {
		b.LearnErrors.Add(1)
		return
	}
	switch outcome {
	case LearnAdded:
		b.LearnAdded.Add(1)
	case LearnCorrected:
		b.LearnCorrected.Add(1)
	}
}

// RecordScore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScore(correct bool, _ time.Duration, err error) {
	b.ScoreCount.Add(1)
	if err != nil {
		b.ScoreErrors.Add(1)
		return
	}
	if correct {
		b.ScoreCorrect.Add(1)
	}
}

// RecordRebalance implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebalance(reassigned int, _ time.Duration) {
	b.RebalanceCount.Add(1)
	b.RebalanceAssigned.Add(int64(reassigned))
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(int) {
	b.FlushCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SubmitCount:       b.SubmitCount.Load(),
		SubmitErrors:      b.SubmitErrors.Load(),
		SubmitAvgNanos:    b.getAvgSubmitNanos(),
		PositiveCount:     b.PositiveCount.Load(),
		UncertainCount:    b.UncertainCount.Load(),
		NegativeCount:     b.NegativeCount.Load(),
		DistanceCount:     b.DistanceCount.Load(),
		ClassifyCount:     b.ClassifyCount.Load(),
		ClassifyErrors:    b.ClassifyErrors.Load(),
		ClassifyUnknown:   b.ClassifyUnknown.Load(),
		LearnCount:        b.LearnCount.Load(),
		LearnErrors:       b.LearnErrors.Load(),
		LearnAdded:        b.LearnAdded.Load(),
		LearnCorrected:    b.LearnCorrected.Load(),
		ScoreCount:        b.ScoreCount.Load(),
		ScoreErrors:       b.ScoreErrors.Load(),
		ScoreCorrect:      b.ScoreCorrect.Load(),
		RebalanceCount:    b.RebalanceCount.Load(),
		RebalanceAssigned: b.RebalanceAssigned.Load(),
		FlushCount:        b.FlushCount.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSubmitNanos() int64 {
	count := b.SubmitCount.Load()
	if count == 0 {
		return 0
	}
	return b.SubmitTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SubmitCount       int64
	SubmitErrors      int64
	SubmitAvgNanos    int64
	PositiveCount     int64
	UncertainCount    int64
	NegativeCount     int64
	DistanceCount     int64
	ClassifyCount     int64
	ClassifyErrors    int64
	ClassifyUnknown   int64
	LearnCount        int64
	LearnErrors       int64
	LearnAdded        int64
	LearnCorrected    int64
	ScoreCount        int64
	ScoreErrors       int64
	ScoreCorrect      int64
	RebalanceCount    int64
	RebalanceAssigned int64
	FlushCount        int64
}

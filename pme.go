package pme

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"github.com/hupe1980/pme/distance"
	"github.com/hupe1980/pme/internal/arena"
	"github.com/hupe1980/pme/internal/resource"
	"github.com/hupe1980/pme/internal/searcher"
	"github.com/hupe1980/pme/internal/vectorstore"
	"github.com/hupe1980/pme/pack"
)

// Engine is a set of pattern matching classifiers sharing one result arena.
//
// All operations are serialized by an internal mutex; an Engine is safe for
// use by multiple goroutines. Cursors returned by Rank take the same lock.
type Engine struct {
	mu sync.Mutex

	build       BuildConfig
	modelID     uuid.UUID
	classifiers map[uint16]*classifier
	order       []uint16

	pool     *arena.Pool
	dtw      *distance.DTW
	dtwBytes int64
	rc       *resource.Controller

	compression pack.Compression

	logger  *Logger
	metrics MetricsCollector
	closed  bool
}

type classifier struct {
	cfg    ClassifierConfig
	store  *vectorstore.Store
	region *arena.Region
	hits   *roaring.Bitmap
}

// New creates an engine for the classifier table.
//
// Each classifier reserves MaxPatterns result slots up front; the table is
// rejected with ErrArenaExhausted when the reservations exceed
// BuildConfig.ResultArenaCapacity.
func New(table []ClassifierConfig, opts ...Option) (*Engine, error) {
	o := applyOptions(opts)
	if err := o.build.ValidateTable(table); err != nil {
		return nil, err
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		MaxIOWorkers:       o.ioWorkers,
		IOLimitBytesPerSec: o.ioLimit,
	})

	pool, err := arena.New(o.build.ResultArenaCapacity, arena.WithMemoryAcquirer(rc))
	if err != nil {
		return nil, translateError(0, err)
	}

	e := &Engine{
		build:       o.build,
		modelID:     o.modelID,
		classifiers: make(map[uint16]*classifier, len(table)),
		order:       make([]uint16, 0, len(table)),
		pool:        pool,
		rc:          rc,
		compression: o.compression,
		logger:      o.logger,
		metrics:     o.metricsCollector,
	}

	for _, cfg := range table {
		if err := e.register(cfg); err != nil {
			e.release()
			return nil, err
		}
	}

	e.logger.Info("engine created",
		"model", e.modelID.String(),
		"classifiers", len(table),
		"arena_capacity", o.build.ResultArenaCapacity,
	)
	return e, nil
}

func (e *Engine) register(cfg ClassifierConfig) error {
	store, err := vectorstore.New(cfg.PatternSize, cfg.MaxPatterns, cfg.NumClasses, e.rc)
	if err != nil {
		return fmt.Errorf("classifier %d: %w", cfg.ID, err)
	}
	region, err := e.pool.Reserve(cfg.ID, cfg.MaxPatterns)
	if err != nil {
		store.Release()
		return translateError(cfg.ID, err)
	}

	if cfg.Distance == distance.MetricDTW && e.dtw == nil {
		n := int64(e.build.MaxPatternLength)
		size := n * n * (4 + 8)
		if err := e.rc.AcquireMemory(size); err != nil {
			store.Release()
			return err
		}
		dtw, err := distance.NewDTW(e.build.MaxPatternLength)
		if err != nil {
			e.rc.ReleaseMemory(size)
			store.Release()
			return err
		}
		e.dtw, e.dtwBytes = dtw, size
	}

	e.classifiers[cfg.ID] = &classifier{
		cfg:    cfg,
		store:  store,
		region: region,
		hits:   roaring.New(),
	}
	e.order = append(e.order, cfg.ID)
	return nil
}

func (e *Engine) release() {
	for _, c := range e.classifiers {
		c.store.Release()
	}
	if e.dtwBytes > 0 {
		e.rc.ReleaseMemory(e.dtwBytes)
		e.dtwBytes = 0
	}
	e.pool.Free()
}

// Close releases the engine's memory. Later operations return ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.release()
	return nil
}

// lookup resolves id. Callers hold e.mu.
func (e *Engine) lookup(id uint16) (*classifier, error) {
	if e.closed {
		return nil, ErrClosed
	}
	c, ok := e.classifiers[id]
	if !ok {
		return nil, unknownClassifier(id)
	}
	return c, nil
}

func checkCategory(c *classifier, category uint16) error {
	if category == UnknownCategory || int(category) > c.cfg.NumClasses {
		return &CategoryError{Classifier: c.cfg.ID, Category: int(category), NumClasses: c.cfg.NumClasses}
	}
	return nil
}

func checkSize(c *classifier, v []byte) error {
	if len(v) != c.cfg.PatternSize {
		return &SizeError{Classifier: c.cfg.ID, Got: len(v), Want: c.cfg.PatternSize}
	}
	return nil
}

// ModelID returns the model identity.
func (e *Engine) ModelID() uuid.UUID {
	return e.modelID
}

// Classifiers returns the classifier ids in table order.
func (e *Engine) Classifiers() []uint16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint16(nil), e.order...)
}

// Config returns the configuration of classifier id.
func (e *Engine) Config(id uint16) (ClassifierConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return ClassifierConfig{}, err
	}
	return c.cfg, nil
}

// AddPattern stores a pattern. It fails with ErrCapacityExceeded when the
// classifier is full and leaves the store unchanged on any error.
func (e *Engine) AddPattern(ctx context.Context, id uint16, vector []byte, category uint16, influence uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return err
	}
	if err := e.addLocked(c, vector, category, influence); err != nil {
		e.logger.DebugContext(ctx, "add pattern rejected", "classifier", id, "error", err)
		return err
	}
	return nil
}

func (e *Engine) addLocked(c *classifier, vector []byte, category uint16, influence uint32) error {
	if err := checkCategory(c, category); err != nil {
		return err
	}
	if err := checkSize(c, vector); err != nil {
		return err
	}
	_, err := c.store.Append(vector, category, influence)
	return translateError(c.cfg.ID, err)
}

// Flush drops every pattern of classifier id and invalidates its cursors.
func (e *Engine) Flush(ctx context.Context, id uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return err
	}

	dropped := c.store.Len()
	c.store.Flush()
	c.region.Invalidate()
	c.hits.Clear()

	e.metrics.RecordFlush(dropped)
	e.logger.LogFlush(ctx, id, dropped)
	return nil
}

// PatternCount returns the number of stored patterns.
func (e *Engine) PatternCount(id uint16) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	return c.store.Len(), nil
}

// Pattern returns a copy of stored pattern index.
func (e *Engine) Pattern(id uint16, index int) (Pattern, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return Pattern{}, err
	}
	if index < 0 || index >= c.store.Len() {
		return Pattern{}, fmt.Errorf("%w: %d of %d", ErrPatternIndex, index, c.store.Len())
	}
	return Pattern{
		Vector:    append([]byte(nil), c.store.Vector(index)...),
		Category:  c.store.Category(index),
		Influence: c.store.Influence(index),
	}, nil
}

// PatternScore returns the scoring state of stored pattern index.
func (e *Engine) PatternScore(id uint16, index int) (PatternScore, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return PatternScore{}, err
	}
	if index < 0 || index >= c.store.Len() {
		return PatternScore{}, fmt.Errorf("%w: %d of %d", ErrPatternIndex, index, c.store.Len())
	}
	return PatternScore{
		Error:     c.store.Error(index),
		Histogram: c.store.Histogram(index),
	}, nil
}

// Submit compares vector against every stored pattern and returns the
// network status. The result list is left in storage order; call Rank to
// sort it.
func (e *Engine) Submit(ctx context.Context, id uint16, vector []byte) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return StatusNegative, err
	}
	return e.submitLocked(ctx, c, vector)
}

func (e *Engine) submitLocked(ctx context.Context, c *classifier, vector []byte) (status Status, err error) {
	start := time.Now()
	n := c.store.Len()
	defer func() {
		e.metrics.RecordSubmit(status, n, time.Since(start), err)
		e.logger.LogSubmit(ctx, c.cfg.ID, n, status, err)
	}()

	if err := checkSize(c, vector); err != nil {
		return StatusNegative, err
	}
	if _, err := c.region.Allocate(n); err != nil {
		return StatusNegative, translateError(c.cfg.ID, err)
	}
	c.hits.Clear()

	status = StatusNegative
	seen := UnknownCategory
	for i := 0; i < n; i++ {
		d, err := e.distance(c, vector, c.store.Vector(i))
		if err != nil {
			c.region.Invalidate()
			c.hits.Clear()
			return StatusNegative, translateError(c.cfg.ID, err)
		}

		category := c.store.Category(i)
		influence := c.store.Influence(i)

		node := c.region.Slot(i)
		node.PatternID = int32(i)
		node.Category = category
		node.Influence = influence
		node.Distance = d

		if d >= influence {
			continue
		}
		c.hits.Add(uint32(i))
		switch {
		case seen == UnknownCategory:
			seen = category
			status = StatusPositive
		case category != seen:
			seen = category
			status = StatusUncertain
		}
	}
	return status, nil
}

func (e *Engine) distance(c *classifier, x, y []byte) (uint32, error) {
	switch c.cfg.Distance {
	case distance.MetricL1:
		return distance.L1(x, y), nil
	case distance.MetricLSup:
		return distance.LSup(x, y, nil), nil
	case distance.MetricDTW:
		return e.dtw.Distance(x, y, c.cfg.Channels())
	default:
		return 0, fmt.Errorf("%w: unknown distance %s", ErrInvalidConfig, c.cfg.Distance)
	}
}

// Rank sorts the classifier's current result list by ascending distance and
// returns a cursor at its head.
func (e *Engine) Rank(ctx context.Context, id uint16) (*Cursor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	c.region.Sort()
	e.logger.DebugContext(ctx, "results ranked", "classifier", id, "results", c.region.Len())
	return e.newCursor(c), nil
}

// Hits returns the ids of the patterns that fired on the last submission.
func (e *Engine) Hits(id uint16) (*roaring.Bitmap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	return c.hits.Clone(), nil
}

// Stats returns a snapshot of engine state.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Stats{
		ModelID:     e.modelID.String(),
		Classifiers: make([]ClassifierStats, 0, len(e.order)),
	}
	if !e.closed {
		ps := e.pool.Stats()
		st.ArenaCapacity = ps.Capacity
		st.ArenaReserved = ps.Reserved
	}
	rs := e.rc.Stats()
	st.MemoryUsed, st.MemoryLimit, st.IOBytes = rs.MemoryUsed, rs.MemoryLimit, rs.IOBytes

	for _, id := range e.order {
		c := e.classifiers[id]
		st.Classifiers = append(st.Classifiers, ClassifierStats{
			ID:       id,
			Patterns: c.store.Len(),
			Capacity: c.store.Cap(),
			Scored:   c.store.Scored(),
		})
	}
	return st
}

func (e *Engine) newCursor(c *classifier) *Cursor {
	return &Cursor{e: e, mode: c.cfg.Mode, c: searcher.NewCursor(c.region)}
}

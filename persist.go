package pme

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pme/blobstore"
	"github.com/hupe1980/pme/internal/manifest"
	"github.com/hupe1980/pme/internal/resource"
	"github.com/hupe1980/pme/pack"
)

// Save writes every classifier as a knowledge pack to store and publishes a
// new manifest version referencing them. It returns the version ID.
//
// Patterns are snapshotted under the engine lock; the uploads run
// concurrently, bounded and throttled by WithIOLimit. A failed Save leaves
// the previously published version current.
func (e *Engine) Save(ctx context.Context, store blobstore.BlobStore) (version uint64, err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0, ErrClosed
	}
	packs := e.snapshotLocked()
	e.mu.Unlock()

	defer func() {
		e.logger.LogSave(ctx, version, len(packs), err)
	}()

	ms := manifest.NewStore(store)
	version, err = ms.NextID(ctx)
	if err != nil {
		return 0, err
	}

	m := &manifest.Manifest{
		ID:      version,
		ModelID: e.modelID.String(),
		Build: manifest.Build{
			MaxClassifiers:      e.build.MaxClassifiers,
			ResultArenaCapacity: e.build.ResultArenaCapacity,
			MaxPatternLength:    e.build.MaxPatternLength,
			MaxCategoryCount:    e.build.MaxCategoryCount,
		},
		Classifiers: make([]manifest.Classifier, len(packs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.rc.MaxIOWorkers())

	for i, p := range packs {
		cfg := e.classifiers[p.Header.ClassifierID].cfg
		g.Go(func() error {
			entry, err := e.writePack(gctx, store, version, p)
			if err != nil {
				return fmt.Errorf("classifier %d: %w", cfg.ID, err)
			}
			entry.ID = cfg.ID
			entry.PatternSize = cfg.PatternSize
			entry.MaxPatterns = cfg.MaxPatterns
			entry.NumClasses = cfg.NumClasses
			entry.NumChannels = cfg.NumChannels
			entry.Distance = cfg.Distance
			entry.Mode = cfg.Mode.String()
			m.Classifiers[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := ms.Save(ctx, m); err != nil {
		return 0, err
	}
	return version, nil
}

func (e *Engine) snapshotLocked() []*pack.Pack {
	packs := make([]*pack.Pack, 0, len(e.order))
	for _, id := range e.order {
		c := e.classifiers[id]
		p := &pack.Pack{
			Header: pack.Header{
				ModelID:      e.modelID,
				ClassifierID: id,
				PatternSize:  c.cfg.PatternSize,
				MaxPatterns:  c.cfg.MaxPatterns,
				NumClasses:   c.cfg.NumClasses,
				NumChannels:  c.cfg.NumChannels,
				Distance:     c.cfg.Distance,
				Mode:         uint8(c.cfg.Mode),
				Compression:  e.compression,
			},
			Patterns: make([]pack.Pattern, c.store.Len()),
		}
		for i := range p.Patterns {
			p.Patterns[i] = pack.Pattern{
				Category:  c.store.Category(i),
				Influence: c.store.Influence(i),
				Vector:    bytes.Clone(c.store.Vector(i)),
			}
		}
		packs = append(packs, p)
	}
	return packs
}

func (e *Engine) writePack(ctx context.Context, store blobstore.BlobStore, version uint64, p *pack.Pack) (manifest.Classifier, error) {
	if err := e.rc.AcquireWorker(ctx); err != nil {
		return manifest.Classifier{}, err
	}
	defer e.rc.ReleaseWorker()

	data, err := p.Marshal()
	if err != nil {
		return manifest.Classifier{}, err
	}
	info, err := pack.ReadInfo(bytes.NewReader(data))
	if err != nil {
		return manifest.Classifier{}, err
	}

	name := manifest.PackName(version, p.Header.ClassifierID)
	w, err := store.Create(ctx, name)
	if err != nil {
		return manifest.Classifier{}, err
	}
	if _, err := resource.NewRateLimitedWriter(ctx, w, e.rc).Write(data); err != nil {
		_ = blobstore.Abort(ctx, store, name, w)
		return manifest.Classifier{}, err
	}
	if err := w.Close(); err != nil {
		return manifest.Classifier{}, err
	}

	return manifest.Classifier{
		Blob:        name,
		Patterns:    info.Count,
		Size:        int64(len(data)),
		Compression: info.Compression,
	}, nil
}

// Load restores the model most recently saved to store.
//
// The build limits, classifier table and model id come from the manifest;
// opts configure everything else (logging, metrics, memory and IO limits,
// pack compression for later saves).
func Load(ctx context.Context, store blobstore.BlobStore, opts ...Option) (*Engine, error) {
	return LoadVersion(ctx, store, 0, opts...)
}

// LoadVersion restores manifest version of store. 0 means latest.
func LoadVersion(ctx context.Context, store blobstore.BlobStore, version uint64, opts ...Option) (e *Engine, err error) {
	logger := applyOptions(opts).logger
	patterns := 0
	defer func() {
		logger.LogLoad(ctx, version, patterns, err)
	}()

	m, err := manifest.NewStore(store).LoadVersion(ctx, version)
	if err != nil {
		return nil, err
	}
	version = m.ID

	modelID, err := uuid.Parse(m.ModelID)
	if err != nil {
		return nil, fmt.Errorf("%w: model id: %w", ErrInvalidConfig, err)
	}

	table := make([]ClassifierConfig, len(m.Classifiers))
	for i, c := range m.Classifiers {
		var mode Mode
		if err := mode.UnmarshalText([]byte(c.Mode)); err != nil {
			return nil, fmt.Errorf("%w: classifier %d: %w", ErrInvalidConfig, c.ID, err)
		}
		table[i] = ClassifierConfig{
			ID:          c.ID,
			PatternSize: c.PatternSize,
			MaxPatterns: c.MaxPatterns,
			NumClasses:  c.NumClasses,
			NumChannels: c.NumChannels,
			Distance:    c.Distance,
			Mode:        mode,
		}
	}

	opts = append(opts[:len(opts):len(opts)],
		WithBuildConfig(BuildConfig{
			MaxClassifiers:      m.Build.MaxClassifiers,
			ResultArenaCapacity: m.Build.ResultArenaCapacity,
			MaxPatternLength:    m.Build.MaxPatternLength,
			MaxCategoryCount:    m.Build.MaxCategoryCount,
		}),
		WithModelID(modelID),
	)
	e, err = New(table, opts...)
	if err != nil {
		return nil, err
	}

	packs := make([]*pack.Pack, len(m.Classifiers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.rc.MaxIOWorkers())

	for i, entry := range m.Classifiers {
		g.Go(func() error {
			p, err := e.readPack(gctx, store, entry)
			if err != nil {
				return fmt.Errorf("classifier %d: %w", entry.ID, err)
			}
			if err := checkPack(table[i], modelID, entry, p); err != nil {
				return err
			}
			packs[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = e.Close()
		return nil, err
	}

	for i, p := range packs {
		c := e.classifiers[table[i].ID]
		for _, pat := range p.Patterns {
			if err := e.addLocked(c, pat.Vector, pat.Category, pat.Influence); err != nil {
				_ = e.Close()
				return nil, err
			}
		}
		patterns += len(p.Patterns)
	}
	return e, nil
}

func (e *Engine) readPack(ctx context.Context, store blobstore.BlobStore, entry manifest.Classifier) (*pack.Pack, error) {
	if err := e.rc.AcquireWorker(ctx); err != nil {
		return nil, err
	}
	defer e.rc.ReleaseWorker()

	b, err := store.Open(ctx, entry.Blob)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	if b.Size() != entry.Size {
		return nil, fmt.Errorf("%w: %s is %d bytes, manifest says %d", ErrPackMismatch, entry.Blob, b.Size(), entry.Size)
	}

	r, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return pack.Decode(resource.NewRateLimitedReader(ctx, r, e.rc))
}

func checkPack(cfg ClassifierConfig, modelID uuid.UUID, entry manifest.Classifier, p *pack.Pack) error {
	h := p.Header
	mismatch := func(field string, got, want any) error {
		return fmt.Errorf("%w: classifier %d: %s is %v, want %v", ErrPackMismatch, cfg.ID, field, got, want)
	}

	switch {
	case h.ModelID != modelID:
		return mismatch("model id", h.ModelID, modelID)
	case h.ClassifierID != cfg.ID:
		return mismatch("classifier id", h.ClassifierID, cfg.ID)
	case h.PatternSize != cfg.PatternSize:
		return mismatch("pattern size", h.PatternSize, cfg.PatternSize)
	case h.MaxPatterns != cfg.MaxPatterns:
		return mismatch("max patterns", h.MaxPatterns, cfg.MaxPatterns)
	case h.NumClasses != cfg.NumClasses:
		return mismatch("class count", h.NumClasses, cfg.NumClasses)
	case h.NumChannels != cfg.NumChannels:
		return mismatch("channel count", h.NumChannels, cfg.NumChannels)
	case h.Distance != cfg.Distance:
		return mismatch("distance", h.Distance, cfg.Distance)
	case Mode(h.Mode) != cfg.Mode:
		return mismatch("mode", Mode(h.Mode), cfg.Mode)
	case len(p.Patterns) != entry.Patterns:
		return mismatch("pattern count", len(p.Patterns), entry.Patterns)
	}
	return nil
}
